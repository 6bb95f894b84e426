package app

import (
	"context"

	"realtime_chat_service/internal/chat/domain"
	"realtime_chat_service/internal/chat/repository"

	"github.com/google/uuid"
)

// ChatUseCase direct chat access and chat listings
type ChatUseCase struct {
	chatRepo  repository.ChatRepository
	userRepo  repository.UserRepository
	assembler *ViewAssembler
}

// NewChatUseCase create a ChatUseCase
func NewChatUseCase(
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
	assembler *ViewAssembler,
) *ChatUseCase {
	return &ChatUseCase{
		chatRepo:  chatRepo,
		userRepo:  userRepo,
		assembler: assembler,
	}
}

// AccessDirectChat return the direct chat with peerID, creating it on first
// contact. Exactly one direct chat ever exists per user pair.
func (uc *ChatUseCase) AccessDirectChat(ctx context.Context, userID, peerID string) (*domain.ChatView, error) {
	if peerID == "" || peerID == userID {
		return nil, domain.ErrMissingField
	}
	if _, err := uc.userRepo.FindByID(ctx, peerID); err != nil {
		return nil, err
	}

	chat, err := uc.chatRepo.FindDirectByPair(ctx, userID, peerID)
	if err == domain.ErrChatNotFound {
		chat = &domain.Chat{
			ID:      newChatID(),
			IsGroup: false,
			Users:   []string{userID, peerID},
		}
		if err := uc.chatRepo.CreateChat(ctx, chat); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}
	return uc.assembler.AssembleChatView(ctx, chat)
}

// FetchChats every chat the user participates in, most recent first
func (uc *ChatUseCase) FetchChats(ctx context.Context, userID string) ([]domain.ChatView, error) {
	chats, err := uc.chatRepo.FindByMember(ctx, userID)
	if err != nil {
		return nil, err
	}
	return uc.assembler.AssembleChatViews(ctx, chats)
}

// FetchGroups every group chat the user participates in
func (uc *ChatUseCase) FetchGroups(ctx context.Context, userID string) ([]domain.ChatView, error) {
	chats, err := uc.chatRepo.FindGroupsByMember(ctx, userID)
	if err != nil {
		return nil, err
	}
	return uc.assembler.AssembleChatViews(ctx, chats)
}

// GetChat one chat by id, membership enforced
func (uc *ChatUseCase) GetChat(ctx context.Context, chatID, userID string) (*domain.ChatView, error) {
	chat, err := uc.chatRepo.FindByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.IsMember(userID) {
		return nil, domain.ErrNotMember
	}
	return uc.assembler.AssembleChatView(ctx, chat)
}

func newChatID() string {
	return uuid.New().String()
}
