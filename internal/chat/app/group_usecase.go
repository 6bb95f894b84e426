package app

import (
	"context"
	"strings"

	"realtime_chat_service/internal/chat/domain"
	"realtime_chat_service/internal/chat/repository"
	"realtime_chat_service/pkg"
	"realtime_chat_service/pkg/logger"

	"go.uber.org/zap"
)

// CreateGroupInput fields accepted when creating a group chat
type CreateGroupInput struct {
	Name        string   `json:"name"`
	UserIDs     []string `json:"users"`
	Description string   `json:"description,omitempty"`
	GroupIcon   string   `json:"groupIcon,omitempty"`
}

// GroupUseCase group lifecycle and governance. The creator starts as owner
// and first admin; every mutation re-validates the governance shape before
// it is persisted, then broadcasts the updated view.
type GroupUseCase struct {
	chatRepo    repository.ChatRepository
	msgRepo     repository.MessageRepository
	userRepo    repository.UserRepository
	assembler   *ViewAssembler
	broadcaster repository.Broadcaster
}

// NewGroupUseCase create a GroupUseCase
func NewGroupUseCase(
	chatRepo repository.ChatRepository,
	msgRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	assembler *ViewAssembler,
	broadcaster repository.Broadcaster,
) *GroupUseCase {
	return &GroupUseCase{
		chatRepo:    chatRepo,
		msgRepo:     msgRepo,
		userRepo:    userRepo,
		assembler:   assembler,
		broadcaster: broadcaster,
	}
}

// CreateGroup create a group chat. The creator plus at least two others.
func (uc *GroupUseCase) CreateGroup(ctx context.Context, creatorID string, in CreateGroupInput) (*domain.ChatView, error) {
	if strings.TrimSpace(in.Name) == "" || len(in.UserIDs) == 0 {
		return nil, domain.ErrMissingField
	}

	users := []string{creatorID}
	for _, id := range in.UserIDs {
		users = pkg.AppendIfMissing(users, id)
	}
	if len(users) < 3 {
		return nil, domain.ErrGroupTooSmall
	}

	found, err := uc.userRepo.FindByIDs(ctx, users)
	if err != nil {
		return nil, err
	}
	if len(found) != len(users) {
		return nil, domain.ErrInvalidUsers
	}

	chat := &domain.Chat{
		ID:          newChatID(),
		Name:        in.Name,
		IsGroup:     true,
		GroupIcon:   in.GroupIcon,
		Description: in.Description,
		Users:       users,
		Owner:       creatorID,
		Admins:      []string{creatorID},
	}
	if err := chat.ValidateGovernance(); err != nil {
		return nil, err
	}
	if err := uc.chatRepo.CreateChat(ctx, chat); err != nil {
		return nil, err
	}

	view := uc.viewOf(ctx, chat)
	for _, member := range chat.Users {
		uc.publishToUser(member, domain.Event{Name: domain.EventAddedToGroup, Payload: view})
	}
	return view, nil
}

// UpdateGroupInfo change name, icon or description. Admins only. Empty
// fields keep their current value.
func (uc *GroupUseCase) UpdateGroupInfo(ctx context.Context, chatID, actorID, name, icon, description string) (*domain.ChatView, error) {
	chat, err := uc.loadGroup(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.IsAdmin(actorID) {
		return nil, domain.ErrNotAdmin
	}

	if strings.TrimSpace(name) != "" {
		chat.Name = name
	}
	if icon != "" {
		chat.GroupIcon = icon
	}
	if description != "" {
		chat.Description = description
	}
	if err := uc.chatRepo.UpdateChat(ctx, chat); err != nil {
		return nil, err
	}

	view := uc.viewOf(ctx, chat)
	uc.publishToChat(chatID, domain.Event{Name: domain.EventGroupInfoUpdated, Payload: view})
	return view, nil
}

// AddMembers add users to the group. Admins only; every id must resolve to
// a real user before anything is appended.
func (uc *GroupUseCase) AddMembers(ctx context.Context, chatID, actorID string, targetIDs []string) (*domain.ChatView, error) {
	chat, err := uc.loadGroup(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.IsAdmin(actorID) {
		return nil, domain.ErrNotAdmin
	}
	if len(targetIDs) == 0 {
		return nil, domain.ErrMissingField
	}
	found, err := uc.userRepo.FindByIDs(ctx, targetIDs)
	if err != nil {
		return nil, err
	}
	if len(found) != len(targetIDs) {
		return nil, domain.ErrInvalidUsers
	}

	var added []string
	for _, targetID := range targetIDs {
		if !chat.IsMember(targetID) {
			added = append(added, targetID)
		}
		chat.Users = pkg.AppendIfMissing(chat.Users, targetID)
	}
	if err := chat.ValidateGovernance(); err != nil {
		return nil, err
	}
	if err := uc.chatRepo.UpdateChat(ctx, chat); err != nil {
		return nil, err
	}

	view := uc.viewOf(ctx, chat)
	uc.publishToChat(chatID, domain.Event{Name: domain.EventGroupMembersUpdated, Payload: view})
	for _, targetID := range added {
		uc.publishToUser(targetID, domain.Event{Name: domain.EventAddedToGroup, Payload: view})
	}
	return view, nil
}

// RemoveMembers remove users from the group. Admins only; removing another
// admin is the owner's privilege and the owner is never removable. Each
// target leaves the member, admin and muted lists in the same write.
func (uc *GroupUseCase) RemoveMembers(ctx context.Context, chatID, actorID string, targetIDs []string) (*domain.ChatView, error) {
	chat, err := uc.loadGroup(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.IsAdmin(actorID) {
		return nil, domain.ErrNotAdmin
	}
	if len(targetIDs) == 0 {
		return nil, domain.ErrMissingField
	}
	for _, targetID := range targetIDs {
		if !chat.IsMember(targetID) {
			return nil, domain.ErrTargetNotMember
		}
		if chat.IsAdmin(targetID) && !chat.IsOwner(actorID) {
			return nil, domain.ErrRemoveAdmin
		}
		if chat.IsOwner(targetID) {
			return nil, domain.ErrRemoveAdmin
		}
	}

	chat.Users = pkg.RemoveAll(chat.Users, targetIDs)
	chat.Admins = pkg.RemoveAll(chat.Admins, targetIDs)
	chat.MutedUsers = pkg.RemoveAll(chat.MutedUsers, targetIDs)
	if err := chat.ValidateGovernance(); err != nil {
		return nil, err
	}
	if err := uc.chatRepo.UpdateChat(ctx, chat); err != nil {
		return nil, err
	}

	view := uc.viewOf(ctx, chat)
	uc.publishToChat(chatID, domain.Event{Name: domain.EventGroupMembersUpdated, Payload: view})
	for _, targetID := range targetIDs {
		uc.publishToUser(targetID, domain.Event{Name: domain.EventRemovedFromGroup, Payload: view})
	}
	return view, nil
}

// LeaveGroup let userID leave. The sole admin must transfer ownership or
// delete the group instead. An owner leaving with other admins present
// passes ownership to the next admin in line.
func (uc *GroupUseCase) LeaveGroup(ctx context.Context, chatID, userID string) (*domain.ChatView, error) {
	chat, err := uc.loadGroup(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.IsMember(userID) {
		return nil, domain.ErrNotMember
	}
	if chat.IsAdmin(userID) && len(chat.Admins) == 1 {
		return nil, domain.ErrLastAdmin
	}

	chat.Users = pkg.Remove(chat.Users, userID)
	chat.Admins = pkg.Remove(chat.Admins, userID)
	chat.MutedUsers = pkg.Remove(chat.MutedUsers, userID)
	if chat.IsOwner(userID) {
		chat.Owner = chat.Admins[0]
	}
	chat.NormalizeAdmins()
	if err := chat.ValidateGovernance(); err != nil {
		return nil, err
	}
	if err := uc.chatRepo.UpdateChat(ctx, chat); err != nil {
		return nil, err
	}

	view := uc.viewOf(ctx, chat)
	uc.publishToChat(chatID, domain.Event{Name: domain.EventGroupMembersUpdated, Payload: view})
	uc.publishToUser(userID, domain.Event{Name: domain.EventLeftGroup, Payload: view})
	return view, nil
}

// PromoteAdmin grant admin rights to a member. Admins only.
func (uc *GroupUseCase) PromoteAdmin(ctx context.Context, chatID, actorID, targetID string) (*domain.ChatView, error) {
	chat, err := uc.loadGroup(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.IsAdmin(actorID) {
		return nil, domain.ErrNotAdmin
	}
	if !chat.IsMember(targetID) {
		return nil, domain.ErrTargetNotMember
	}

	chat.Admins = pkg.AppendIfMissing(chat.Admins, targetID)
	// admins can never be muted, promotion lifts an existing mute
	chat.MutedUsers = pkg.Remove(chat.MutedUsers, targetID)
	chat.NormalizeAdmins()
	if err := chat.ValidateGovernance(); err != nil {
		return nil, err
	}
	if err := uc.chatRepo.UpdateChat(ctx, chat); err != nil {
		return nil, err
	}

	view := uc.viewOf(ctx, chat)
	uc.publishToChat(chatID, domain.Event{Name: domain.EventGroupAdminsUpdated, Payload: view})
	return view, nil
}

// DemoteAdmin revoke admin rights. Owner only, and never from the owner.
func (uc *GroupUseCase) DemoteAdmin(ctx context.Context, chatID, actorID, targetID string) (*domain.ChatView, error) {
	chat, err := uc.loadGroup(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.IsOwner(actorID) {
		return nil, domain.ErrNotOwner
	}
	if chat.IsOwner(targetID) {
		return nil, domain.ErrNotOwner
	}
	if !chat.IsAdmin(targetID) {
		return nil, domain.ErrTargetNotMember
	}

	chat.Admins = pkg.Remove(chat.Admins, targetID)
	chat.NormalizeAdmins()
	if err := chat.ValidateGovernance(); err != nil {
		return nil, err
	}
	if err := uc.chatRepo.UpdateChat(ctx, chat); err != nil {
		return nil, err
	}

	view := uc.viewOf(ctx, chat)
	uc.publishToChat(chatID, domain.Event{Name: domain.EventGroupAdminsUpdated, Payload: view})
	return view, nil
}

// MuteMember silence a member in the group. Admins only; admins can never
// be muted.
func (uc *GroupUseCase) MuteMember(ctx context.Context, chatID, actorID, targetID string) (*domain.ChatView, error) {
	chat, err := uc.loadGroup(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.IsAdmin(actorID) {
		return nil, domain.ErrNotAdmin
	}
	if !chat.IsMember(targetID) {
		return nil, domain.ErrTargetNotMember
	}
	if chat.IsAdmin(targetID) {
		return nil, domain.ErrMuteAdmin
	}

	chat.MutedUsers = pkg.AppendIfMissing(chat.MutedUsers, targetID)
	if err := uc.chatRepo.UpdateChat(ctx, chat); err != nil {
		return nil, err
	}

	view := uc.viewOf(ctx, chat)
	uc.publishToChat(chatID, domain.Event{Name: domain.EventGroupMutedUpdated, Payload: view})
	return view, nil
}

// UnmuteMember lift a member's mute. Admins only.
func (uc *GroupUseCase) UnmuteMember(ctx context.Context, chatID, actorID, targetID string) (*domain.ChatView, error) {
	chat, err := uc.loadGroup(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.IsAdmin(actorID) {
		return nil, domain.ErrNotAdmin
	}

	chat.MutedUsers = pkg.Remove(chat.MutedUsers, targetID)
	if err := uc.chatRepo.UpdateChat(ctx, chat); err != nil {
		return nil, err
	}

	view := uc.viewOf(ctx, chat)
	uc.publishToChat(chatID, domain.Event{Name: domain.EventGroupMutedUpdated, Payload: view})
	return view, nil
}

// TransferOwnership hand the group to another member. Owner only. The new
// owner moves to the front of the admin list; the old owner stays admin.
func (uc *GroupUseCase) TransferOwnership(ctx context.Context, chatID, ownerID, targetID string) (*domain.ChatView, error) {
	chat, err := uc.loadGroup(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.IsOwner(ownerID) {
		return nil, domain.ErrNotOwner
	}
	if !chat.IsMember(targetID) {
		return nil, domain.ErrTargetNotMember
	}

	chat.Owner = targetID
	chat.Admins = pkg.AppendIfMissing(chat.Admins, targetID)
	chat.MutedUsers = pkg.Remove(chat.MutedUsers, targetID)
	chat.NormalizeAdmins()
	if err := chat.ValidateGovernance(); err != nil {
		return nil, err
	}
	if err := uc.chatRepo.UpdateChat(ctx, chat); err != nil {
		return nil, err
	}

	view := uc.viewOf(ctx, chat)
	uc.publishToChat(chatID, domain.Event{Name: domain.EventGroupOwnershipTransferred, Payload: view})
	return view, nil
}

// DeleteGroup remove the group and all of its messages. Owner only.
func (uc *GroupUseCase) DeleteGroup(ctx context.Context, chatID, actorID string) error {
	chat, err := uc.loadGroup(ctx, chatID)
	if err != nil {
		return err
	}
	if !chat.IsOwner(actorID) {
		return domain.ErrNotOwner
	}

	if err := uc.msgRepo.DeleteByChat(ctx, chatID); err != nil {
		return err
	}
	if err := uc.chatRepo.DeleteChat(ctx, chatID); err != nil {
		return err
	}

	notice := map[string]string{"chatId": chatID}
	uc.publishToChat(chatID, domain.Event{Name: domain.EventGroupDeleted, Payload: notice})
	for _, member := range chat.Users {
		uc.publishToUser(member, domain.Event{Name: domain.EventGroupDeleted, Payload: notice})
	}
	return nil
}

// loadGroup fetch a chat and reject non-groups
func (uc *GroupUseCase) loadGroup(ctx context.Context, chatID string) (*domain.Chat, error) {
	chat, err := uc.chatRepo.FindByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.IsGroup {
		return nil, domain.ErrNotGroupChat
	}
	return chat, nil
}

// viewOf assemble the chat view, falling back to an unresolved shell when
// the profile lookup fails; the commit already happened
func (uc *GroupUseCase) viewOf(ctx context.Context, chat *domain.Chat) *domain.ChatView {
	view, err := uc.assembler.AssembleChatView(ctx, chat)
	if err != nil {
		logger.Log.Warn("chat view assembly failed", zap.String("chatID", chat.ID), zap.Error(err))
		return &domain.ChatView{ID: chat.ID, Name: chat.Name, IsGroup: chat.IsGroup, Owner: chat.Owner}
	}
	return view
}

func (uc *GroupUseCase) publishToChat(chatID string, event domain.Event) {
	if uc.broadcaster == nil {
		return
	}
	if err := uc.broadcaster.PublishToChat(chatID, event); err != nil {
		logger.Log.Warn("broadcast failed",
			zap.String("chatID", chatID),
			zap.String("event", event.Name),
			zap.Error(err))
	}
}

func (uc *GroupUseCase) publishToUser(userID string, event domain.Event) {
	if uc.broadcaster == nil {
		return
	}
	if err := uc.broadcaster.PublishToUser(userID, event); err != nil {
		logger.Log.Warn("broadcast failed",
			zap.String("userID", userID),
			zap.String("event", event.Name),
			zap.Error(err))
	}
}
