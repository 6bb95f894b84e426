package domain

import "realtime_chat_service/pkg"

// ContentType closed set of message body kinds
type ContentType string

const (
	//ContentText plain text body
	ContentText ContentType = "text"
	//ContentSticker sticker reference body
	ContentSticker ContentType = "sticker"
	//ContentGif gif reference body
	ContentGif ContentType = "gif"
)

// ValidContentType check t is one of the closed set
func ValidContentType(t ContentType) bool {
	switch t {
	case ContentText, ContentSticker, ContentGif:
		return true
	}
	return false
}

// Reaction at most one per user per message, upserted by user id
type Reaction struct {
	UserID string `bson:"user_id" json:"userId"`
	Emoji  string `bson:"emoji" json:"emoji"`
}

// Message belongs to exactly one chat. DeliveredBy and ReadBy only ever grow;
// IsRead is derived from ReadBy and the chat shape, never set directly.
type Message struct {
	ID          string      `bson:"_id,omitempty" json:"id"`
	ChatID      string      `bson:"chat_id" json:"chatId"`
	SenderID    string      `bson:"sender_id" json:"senderId"`
	Content     string      `bson:"content" json:"content"`
	ContentType ContentType `bson:"content_type" json:"contentType"`

	Mentions  []string   `bson:"mentions,omitempty" json:"mentions,omitempty"`
	ReplyTo   string     `bson:"reply_to,omitempty" json:"replyTo,omitempty"`
	Reactions []Reaction `bson:"reactions,omitempty" json:"reactions,omitempty"`

	DeliveredBy []string `bson:"delivered_by" json:"deliveredBy"`
	ReadBy      []string `bson:"read_by" json:"readBy"`
	IsRead      bool     `bson:"is_read" json:"isRead"`

	CreatedAt int64 `bson:"created_at" json:"createdAt"`
	UpdatedAt int64 `bson:"updated_at" json:"updatedAt"`
}

// RecomputeRead derive IsRead from the read set. Single derivation point:
// direct chat — the non-sender participant has read it; group chat — every
// participant has read it. Repeated calls always converge to the same value.
func (m *Message) RecomputeRead(chat *Chat) {
	if chat.IsGroup {
		m.IsRead = pkg.ContainsAll(m.ReadBy, chat.Users)
		return
	}
	for _, u := range chat.Users {
		if u != m.SenderID {
			m.IsRead = pkg.Contains(m.ReadBy, u)
			return
		}
	}
	m.IsRead = false
}

// ReactionOf return the reaction left by userID, if any
func (m *Message) ReactionOf(userID string) (Reaction, bool) {
	for _, r := range m.Reactions {
		if r.UserID == userID {
			return r, true
		}
	}
	return Reaction{}, false
}

// Status snapshot the full post-mutation delivery state
func (m *Message) Status(userID string) MessageStatus {
	return MessageStatus{
		MessageID:   m.ID,
		ChatID:      m.ChatID,
		UserID:      userID,
		DeliveredBy: m.DeliveredBy,
		ReadBy:      m.ReadBy,
		IsRead:      m.IsRead,
	}
}

// MessageStatus full delivery state of one message after a mutation. Emitted
// with every status event so consumers can merge snapshots in any order: the
// sets only grow, so applying an old snapshot after a newer one is harmless.
type MessageStatus struct {
	MessageID   string   `json:"messageId"`
	ChatID      string   `json:"chatId"`
	UserID      string   `json:"userId,omitempty"`
	DeliveredBy []string `json:"deliveredBy"`
	ReadBy      []string `json:"readBy"`
	IsRead      bool     `json:"isRead"`
}

// MessageView message with its sender resolved for client payloads
type MessageView struct {
	Message
	Sender *User `json:"sender,omitempty"`
}
