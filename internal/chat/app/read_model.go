package app

import (
	"context"

	"realtime_chat_service/internal/chat/domain"
	"realtime_chat_service/internal/chat/repository"
)

// ViewAssembler builds client-facing read models. Each assembly is a named
// function resolving a fixed set of references; nothing expands references
// generically.
type ViewAssembler struct {
	userRepo repository.UserRepository
	msgRepo  repository.MessageRepository
}

// NewViewAssembler create a ViewAssembler
func NewViewAssembler(userRepo repository.UserRepository, msgRepo repository.MessageRepository) *ViewAssembler {
	return &ViewAssembler{
		userRepo: userRepo,
		msgRepo:  msgRepo,
	}
}

// AssembleChatView resolve a chat's users, admins and latest message
func (a *ViewAssembler) AssembleChatView(ctx context.Context, chat *domain.Chat) (*domain.ChatView, error) {
	users, err := a.userRepo.FindByIDs(ctx, chat.Users)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	view := &domain.ChatView{
		ID:             chat.ID,
		Name:           chat.Name,
		IsGroup:        chat.IsGroup,
		GroupIcon:      chat.GroupIcon,
		Description:    chat.Description,
		Owner:          chat.Owner,
		Users:          users,
		MutedUsers:     chat.MutedUsers,
		PinnedMessages: chat.PinnedMessages,
		CreatedAt:      chat.CreatedAt,
		UpdatedAt:      chat.UpdatedAt,
	}
	for _, adminID := range chat.Admins {
		if u, ok := byID[adminID]; ok {
			view.Admins = append(view.Admins, u)
		}
	}

	if chat.LatestMessageID != "" {
		msg, err := a.msgRepo.FindByID(ctx, chat.LatestMessageID)
		if err == nil {
			view.LatestMessage = msg
		} else if err != domain.ErrMessageNotFound {
			return nil, err
		}
	}
	return view, nil
}

// AssembleChatViews resolve a list of chats, skipping none
func (a *ViewAssembler) AssembleChatViews(ctx context.Context, chats []domain.Chat) ([]domain.ChatView, error) {
	views := make([]domain.ChatView, 0, len(chats))
	for i := range chats {
		view, err := a.AssembleChatView(ctx, &chats[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

// AssembleMessageView resolve a message's sender profile
func (a *ViewAssembler) AssembleMessageView(ctx context.Context, msg *domain.Message) (*domain.MessageView, error) {
	view := &domain.MessageView{Message: *msg}
	sender, err := a.userRepo.FindByID(ctx, msg.SenderID)
	if err == nil {
		view.Sender = sender
	} else if err != domain.ErrUserNotFound {
		return nil, err
	}
	return view, nil
}

// AssembleMessageViews resolve sender profiles for a message list with one
// profile lookup per distinct sender
func (a *ViewAssembler) AssembleMessageViews(ctx context.Context, msgs []domain.Message) ([]domain.MessageView, error) {
	senderIDs := make([]string, 0, len(msgs))
	seen := make(map[string]struct{}, len(msgs))
	for _, m := range msgs {
		if _, ok := seen[m.SenderID]; ok {
			continue
		}
		seen[m.SenderID] = struct{}{}
		senderIDs = append(senderIDs, m.SenderID)
	}
	senders, err := a.userRepo.FindByIDs(ctx, senderIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.User, len(senders))
	for _, u := range senders {
		byID[u.ID] = u
	}

	views := make([]domain.MessageView, 0, len(msgs))
	for _, m := range msgs {
		view := domain.MessageView{Message: m}
		if u, ok := byID[m.SenderID]; ok {
			sender := u
			view.Sender = &sender
		}
		views = append(views, view)
	}
	return views, nil
}
