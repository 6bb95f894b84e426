package domain

import "realtime_chat_service/pkg"

// Chat either a direct chat (exactly two users, no admins) or a group chat.
// For groups the Owner is also Admins[0]; the admin ordering is kept in sync
// with the Owner field by every governance mutation.
type Chat struct {
	ID          string `bson:"_id,omitempty" json:"id"`
	Name        string `bson:"name,omitempty" json:"name,omitempty"`
	IsGroup     bool   `bson:"is_group" json:"isGroup"`
	GroupIcon   string `bson:"group_icon,omitempty" json:"groupIcon,omitempty"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`

	Users  []string `bson:"users" json:"users"`
	Owner  string   `bson:"owner,omitempty" json:"owner,omitempty"`
	Admins []string `bson:"admins,omitempty" json:"admins,omitempty"`

	MutedUsers     []string `bson:"muted_users,omitempty" json:"mutedUsers,omitempty"`
	PinnedMessages []string `bson:"pinned_messages,omitempty" json:"pinnedMessages,omitempty"`

	LatestMessageID string `bson:"latest_message_id,omitempty" json:"latestMessageId,omitempty"`

	CreatedAt int64 `bson:"created_at,omitempty" json:"createdAt,omitempty"`
	UpdatedAt int64 `bson:"updated_at,omitempty" json:"updatedAt,omitempty"`
}

// IsMember check userID is a participant
func (c *Chat) IsMember(userID string) bool {
	return pkg.Contains(c.Users, userID)
}

// IsAdmin check userID is in the admin list
func (c *Chat) IsAdmin(userID string) bool {
	return pkg.Contains(c.Admins, userID)
}

// IsOwner check userID owns the group
func (c *Chat) IsOwner(userID string) bool {
	return c.Owner != "" && c.Owner == userID
}

// IsMuted check userID is muted in the group
func (c *Chat) IsMuted(userID string) bool {
	return pkg.Contains(c.MutedUsers, userID)
}

// PeerOf return the other participant of a direct chat
func (c *Chat) PeerOf(userID string) (string, bool) {
	if c.IsGroup {
		return "", false
	}
	for _, u := range c.Users {
		if u != userID {
			return u, true
		}
	}
	return "", false
}

// NormalizeAdmins keep the owner at the front of the admin list
func (c *Chat) NormalizeAdmins() {
	if !c.IsGroup || c.Owner == "" {
		return
	}
	c.Admins = append([]string{c.Owner}, pkg.Remove(c.Admins, c.Owner)...)
}

// ValidateGovernance enforce owner ∈ admins ⊆ users for group chats.
// Checked after every membership mutation before it is persisted.
func (c *Chat) ValidateGovernance() error {
	if !c.IsGroup {
		return nil
	}
	if c.Owner == "" || !pkg.Contains(c.Admins, c.Owner) {
		return ErrOwnerNotAdmin
	}
	if len(c.Admins) > 0 && c.Admins[0] != c.Owner {
		return ErrOwnerNotAdmin
	}
	for _, a := range c.Admins {
		if !pkg.Contains(c.Users, a) {
			return ErrAdminNotMember
		}
	}
	for _, m := range c.MutedUsers {
		if pkg.Contains(c.Admins, m) {
			return ErrMuteAdmin
		}
	}
	return nil
}

// ChatView chat document with its user references resolved. Assembled by a
// named read-model function, never by generic reference expansion.
type ChatView struct {
	ID              string   `json:"id"`
	Name            string   `json:"name,omitempty"`
	IsGroup         bool     `json:"isGroup"`
	GroupIcon       string   `json:"groupIcon,omitempty"`
	Description     string   `json:"description,omitempty"`
	Owner           string   `json:"owner,omitempty"`
	Users           []User   `json:"users"`
	Admins          []User   `json:"admins,omitempty"`
	MutedUsers      []string `json:"mutedUsers,omitempty"`
	PinnedMessages  []string `json:"pinnedMessages,omitempty"`
	LatestMessage   *Message `json:"latestMessage,omitempty"`
	CreatedAt       int64    `json:"createdAt,omitempty"`
	UpdatedAt       int64    `json:"updatedAt,omitempty"`
}
