package models

// ChatTypePrivate is the Telegram type of one-to-one chats.
const ChatTypePrivate = "private"

// PhotoRef points to an image attachment that has not been downloaded yet.
type PhotoRef struct {
	FileID   string
	MIMEType string
}

// InboundMessage is a transport-independent view of an incoming chat message.
type InboundMessage struct {
	UserID    int64
	ChatID    int64
	ChatType  string
	UserName  string
	MessageID int
	Text      string
	Photo     *PhotoRef // nil when the message carries no image
}

// IsPrivate reports whether the message came from a private chat.
func (m InboundMessage) IsPrivate() bool {
	return m.ChatType == ChatTypePrivate
}

// PromptPart is one element of a multi-modal generation request: either text or an image.
type PromptPart struct {
	Text      string
	Image     []byte
	ImageMIME string
}

// IsImage reports whether the part carries an image.
func (p PromptPart) IsImage() bool {
	return len(p.Image) > 0
}

// TextPart builds a text prompt part.
func TextPart(text string) PromptPart {
	return PromptPart{Text: text}
}

// ImagePart builds an image prompt part.
func ImagePart(data []byte, mime string) PromptPart {
	if mime == "" {
		mime = "image/jpeg"
	}
	return PromptPart{Image: data, ImageMIME: mime}
}

// Chat types reported by Telegram besides private.
const (
	ChatTypeGroup      = "group"
	ChatTypeSupergroup = "supergroup"
	ChatTypeChannel    = "channel"
)

// MembershipChange describes a change of the bot's own membership in a chat.
type MembershipChange struct {
	ChatID      int64
	ChatType    string
	ChatTitle   string
	CauseName   string // Who made the change
	OldStatus   string
	NewStatus   string
	OldIsMember bool // Meaningful for the "restricted" status only
	NewIsMember bool
}
