package service

import (
	"testing"

	"github.com/DenisKhanov/DescGenBOT/internal/tg_bot/models"
)

func TestChatTracker_Track(t *testing.T) {
	tracker := NewChatTracker(nil)

	tracker.Track(models.MembershipChange{ChatID: -100, ChatType: models.ChatTypeSupergroup, ChatTitle: "Риелторы", CauseName: "Ира", OldStatus: "left", NewStatus: "member"})
	tracker.Track(models.MembershipChange{ChatID: -200, ChatType: models.ChatTypeChannel, OldStatus: "left", NewStatus: "administrator"})
	tracker.Track(models.MembershipChange{ChatID: 5, ChatType: models.ChatTypePrivate, OldStatus: "kicked", NewStatus: "member"})
	// Ограниченный участник остается в группе
	tracker.Track(models.MembershipChange{ChatID: -300, ChatType: models.ChatTypeGroup, OldStatus: "left", NewStatus: "restricted", NewIsMember: true})

	snapshot := tracker.Snapshot()
	if len(snapshot.Groups) != 2 || len(snapshot.Channels) != 1 || len(snapshot.Users) != 1 {
		t.Fatalf("unexpected snapshot %+v", snapshot)
	}
	if snapshot.Groups[0] != -300 || snapshot.Groups[1] != -100 {
		t.Errorf("expected sorted group ids, got %v", snapshot.Groups)
	}

	tracker.Track(models.MembershipChange{ChatID: 5, ChatType: models.ChatTypePrivate, OldStatus: "member", NewStatus: "kicked"})
	tracker.Track(models.MembershipChange{ChatID: -100, ChatType: models.ChatTypeSupergroup, OldStatus: "member", NewStatus: "left"})
	// Смена статуса без смены членства игнорируется
	tracker.Track(models.MembershipChange{ChatID: -200, ChatType: models.ChatTypeChannel, OldStatus: "administrator", NewStatus: "member"})

	snapshot = tracker.Snapshot()
	if len(snapshot.Users) != 0 || len(snapshot.Groups) != 1 || len(snapshot.Channels) != 1 {
		t.Fatalf("unexpected snapshot after leaving %+v", snapshot)
	}
	if snapshot.Total() != 2 {
		t.Errorf("expected total 2, got %d", snapshot.Total())
	}
}

func TestJoinIDs(t *testing.T) {
	if got := JoinIDs([]int64{1, -2, 3}); got != "1, -2, 3" {
		t.Errorf("unexpected %q", got)
	}
	if got := JoinIDs(nil); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}
