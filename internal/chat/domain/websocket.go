package domain

import "encoding/json"

// Action websocket request action
type Action string

const (
	// ActionSetup websocket action setup: register presence for the connection
	ActionSetup Action = "setup"
	// ActionJoinChat websocket action join chat: subscribe to a chat room
	ActionJoinChat Action = "join chat"
	// ActionNewMessage websocket action new message: relay a freshly sent message
	ActionNewMessage Action = "new message"
	// ActionTyping websocket action typing
	ActionTyping Action = "typing"
	// ActionStopTyping websocket action stop typing
	ActionStopTyping Action = "stop typing"
	// ActionMarkDelivered websocket action mark message delivered (low-latency echo)
	ActionMarkDelivered Action = "mark message delivered"
	// ActionMarkRead websocket action mark message read (low-latency echo)
	ActionMarkRead Action = "mark message read"
)

// Outbound event names. The REST path and the live path both publish these.
const (
	// EventUserOnline a user came online
	EventUserOnline = "user online"
	// EventUserOffline a user went offline
	EventUserOffline = "user offline"
	// EventNewMessage a message was created in a chat
	EventNewMessage = "new message"
	// EventMessageDelivered a recipient received a message
	EventMessageDelivered = "message delivered"
	// EventMessageStatus full delivery/read snapshot for a message
	EventMessageStatus = "message status update"
	// EventUserTyping a participant started typing
	EventUserTyping = "user typing"
	// EventUserStoppedTyping a participant stopped typing
	EventUserStoppedTyping = "user stopped typing"
	// EventGroupInfoUpdated name/icon/description changed
	EventGroupInfoUpdated = "group info updated"
	// EventGroupMembersUpdated membership changed
	EventGroupMembersUpdated = "group members updated"
	// EventGroupAdminsUpdated admin list changed
	EventGroupAdminsUpdated = "group admins updated"
	// EventGroupMutedUpdated muted list changed
	EventGroupMutedUpdated = "group muted users updated"
	// EventGroupOwnershipTransferred the owner changed
	EventGroupOwnershipTransferred = "group ownership transferred"
	// EventGroupDeleted the group was removed
	EventGroupDeleted = "group deleted"
	// EventMessagePinned a message was pinned
	EventMessagePinned = "message pinned"
	// EventMessageUnpinned a message was unpinned
	EventMessageUnpinned = "message unpinned"
	// EventMessageReaction a reaction was added, changed or removed
	EventMessageReaction = "message reaction updated"
	// EventMentioned the user was mentioned in a message
	EventMentioned = "mentioned in message"
	// EventAddedToGroup the user was added to a group
	EventAddedToGroup = "added to group"
	// EventRemovedFromGroup the user was removed from a group
	EventRemovedFromGroup = "removed from group"
	// EventLeftGroup the user left a group
	EventLeftGroup = "left group"
)

// WSRequest websocket request envelope
type WSRequest struct {
	Action    string `json:"action"`
	ChatID    string `json:"chat_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	MessageID string `json:"message_id,omitempty"`
	// Message raw message payload for the new-message relay; the REST path
	// is authoritative for its content, the relay never re-parses it fully.
	Message json.RawMessage `json:"message,omitempty"`
}

// WSResponse websocket command reply
type WSResponse struct {
	Action  string                 `json:"action"`
	Success bool                   `json:"success"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// Event outbound event envelope, also the redis pub/sub wire format
type Event struct {
	Name    string      `json:"event"`
	Payload interface{} `json:"payload,omitempty"`
}

// TypingNotice relayed verbatim to the chat room
type TypingNotice struct {
	ChatID string `json:"chatId"`
	UserID string `json:"userId"`
}

// PresenceNotice user online / offline payload
type PresenceNotice struct {
	UserID string `json:"userId"`
}

// MentionNotice pushed to a mentioned user's own channel
type MentionNotice struct {
	MessageID string `json:"messageId"`
	ChatID    string `json:"chatId"`
	SenderID  string `json:"senderId"`
	Content   string `json:"content"`
}

// PinNotice pinned/unpinned payload
type PinNotice struct {
	ChatID    string `json:"chatId"`
	MessageID string `json:"messageId"`
}

// ReactionNotice reaction change payload; Emoji is empty on removal
type ReactionNotice struct {
	MessageID string     `json:"messageId"`
	ChatID    string     `json:"chatId"`
	UserID    string     `json:"userId"`
	Emoji     string     `json:"emoji,omitempty"`
	Reactions []Reaction `json:"reactions"`
}
