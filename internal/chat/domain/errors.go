package domain

import "errors"

// Validation failures: the request itself is malformed, nothing is touched.
var (
	// ErrMissingField a required field is absent
	ErrMissingField = errors.New("missing required field")
	// ErrInvalidContentType content type outside the closed set
	ErrInvalidContentType = errors.New("invalid content type")
	// ErrGroupTooSmall a group chat needs at least two members besides the creator
	ErrGroupTooSmall = errors.New("group chat needs at least two other members")
	// ErrInvalidUsers one or more user ids do not resolve to real users
	ErrInvalidUsers = errors.New("some user ids are invalid")
	// ErrNotGroupChat the operation only applies to group chats
	ErrNotGroupChat = errors.New("not a group chat")
	// ErrTargetNotMember the target user is not a member of the chat
	ErrTargetNotMember = errors.New("user must be a member of the group")
)

// Not-found failures.
var (
	// ErrChatNotFound chat id does not resolve
	ErrChatNotFound = errors.New("chat not found")
	// ErrMessageNotFound message id does not resolve
	ErrMessageNotFound = errors.New("message not found")
	// ErrUserNotFound user id does not resolve
	ErrUserNotFound = errors.New("user not found")
)

// Authorization failures: the actor may not perform the operation.
var (
	// ErrNotMember the actor is not a participant of the chat
	ErrNotMember = errors.New("not a member of this chat")
	// ErrNotAdmin the operation needs admin rights
	ErrNotAdmin = errors.New("only admins can perform this action")
	// ErrNotOwner the operation needs owner rights
	ErrNotOwner = errors.New("only the owner can perform this action")
	// ErrSenderMuted a muted user tried to send into a group
	ErrSenderMuted = errors.New("muted users cannot send messages in this group")
)

// Invariant violations: the mutation would corrupt group governance state.
var (
	// ErrLastAdmin the sole admin tried to leave without transfer or delete
	ErrLastAdmin = errors.New("the last admin must transfer ownership or delete the group before leaving")
	// ErrMuteAdmin admins can never be muted
	ErrMuteAdmin = errors.New("cannot mute an admin")
	// ErrRemoveAdmin only the owner can remove another admin
	ErrRemoveAdmin = errors.New("only the owner can remove other admins")
	// ErrOwnerNotAdmin owner fell out of the admin list
	ErrOwnerNotAdmin = errors.New("group owner must lead the admin list")
	// ErrAdminNotMember an admin fell out of the member list
	ErrAdminNotMember = errors.New("group admins must be members")
)

// IsValidation report err belongs to the validation class
func IsValidation(err error) bool {
	return errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrInvalidContentType) ||
		errors.Is(err, ErrGroupTooSmall) ||
		errors.Is(err, ErrInvalidUsers) ||
		errors.Is(err, ErrNotGroupChat) ||
		errors.Is(err, ErrTargetNotMember)
}

// IsNotFound report err belongs to the not-found class
func IsNotFound(err error) bool {
	return errors.Is(err, ErrChatNotFound) ||
		errors.Is(err, ErrMessageNotFound) ||
		errors.Is(err, ErrUserNotFound)
}

// IsAuthorization report err belongs to the authorization class
func IsAuthorization(err error) bool {
	return errors.Is(err, ErrNotMember) ||
		errors.Is(err, ErrNotAdmin) ||
		errors.Is(err, ErrNotOwner) ||
		errors.Is(err, ErrSenderMuted)
}

// IsInvariant report err belongs to the governance-invariant class
func IsInvariant(err error) bool {
	return errors.Is(err, ErrLastAdmin) ||
		errors.Is(err, ErrMuteAdmin) ||
		errors.Is(err, ErrRemoveAdmin) ||
		errors.Is(err, ErrOwnerNotAdmin) ||
		errors.Is(err, ErrAdminNotMember)
}
