package service

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/DenisKhanov/DescGenBOT/internal/tg_bot/models"
	"github.com/sirupsen/logrus"
)

// ChatTracker keeps the sets of chats the bot currently belongs to.
type ChatTracker struct {
	users    map[int64]struct{}
	groups   map[int64]struct{}
	channels map[int64]struct{}
	log      logrus.FieldLogger // Membership event log
	mu       sync.RWMutex
}

// ChatsSnapshot lists the tracked chat IDs by kind, sorted.
type ChatsSnapshot struct {
	Users    []int64 `json:"users"`
	Groups   []int64 `json:"groups"`
	Channels []int64 `json:"channels"`
}

// NewChatTracker creates a ChatTracker writing membership events to log;
// a nil log means the standard logrus logger.
func NewChatTracker(log logrus.FieldLogger) *ChatTracker {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ChatTracker{
		users:    make(map[int64]struct{}),
		groups:   make(map[int64]struct{}),
		channels: make(map[int64]struct{}),
		log:      log,
	}
}

// isMemberStatus reports whether a Telegram member status means the bot is in the chat.
func isMemberStatus(status string, isMember bool) bool {
	switch status {
	case "member", "creator", "administrator":
		return true
	case "restricted":
		return isMember
	}
	return false
}

// Track applies a membership change. Changes that don't flip membership are ignored.
func (c *ChatTracker) Track(change models.MembershipChange) {
	if change.OldStatus == change.NewStatus {
		return
	}
	wasMember := isMemberStatus(change.OldStatus, change.OldIsMember)
	isMember := isMemberStatus(change.NewStatus, change.NewIsMember)
	if wasMember == isMember {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry := c.log.WithField("chat_id", change.ChatID)
	switch change.ChatType {
	case models.ChatTypePrivate:
		if isMember {
			entry.Infof("%s разблокировал бота", change.CauseName)
			c.users[change.ChatID] = struct{}{}
		} else {
			entry.Infof("%s заблокировал бота", change.CauseName)
			delete(c.users, change.ChatID)
		}
	case models.ChatTypeGroup, models.ChatTypeSupergroup:
		if isMember {
			entry.Infof("%s добавил бота в группу %s", change.CauseName, change.ChatTitle)
			c.groups[change.ChatID] = struct{}{}
		} else {
			entry.Infof("%s удалил бота из группы %s", change.CauseName, change.ChatTitle)
			delete(c.groups, change.ChatID)
		}
	default:
		if isMember {
			entry.Infof("%s добавил бота в канал %s", change.CauseName, change.ChatTitle)
			c.channels[change.ChatID] = struct{}{}
		} else {
			entry.Infof("%s удалил бота из канала %s", change.CauseName, change.ChatTitle)
			delete(c.channels, change.ChatID)
		}
	}
}

// TrackUser records a private chat seen through a regular message.
func (c *ChatTracker) TrackUser(chatID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users[chatID] = struct{}{}
}

// Snapshot returns the tracked chats.
func (c *ChatTracker) Snapshot() ChatsSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ChatsSnapshot{
		Users:    sortedIDs(c.users),
		Groups:   sortedIDs(c.groups),
		Channels: sortedIDs(c.channels),
	}
}

// Total returns the number of tracked chats of all kinds.
func (s ChatsSnapshot) Total() int {
	return len(s.Users) + len(s.Groups) + len(s.Channels)
}

// JoinIDs formats ids as a comma-separated list.
func JoinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}

func sortedIDs(set map[int64]struct{}) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
