package app

import (
	"context"
	"testing"

	"realtime_chat_service/internal/chat/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newChatUseCaseForTest(chatRepo *MockChatRepository, userRepo *MockUserRepository, msgRepo *MockMessageRepository) *ChatUseCase {
	return NewChatUseCase(chatRepo, userRepo, NewViewAssembler(userRepo, msgRepo))
}

func TestChatUseCase_AccessDirectChat_CreatesOnFirstContact(t *testing.T) {
	ctx := context.Background()
	chatRepo := new(MockChatRepository)
	userRepo := new(MockUserRepository)

	userRepo.On("FindByID", ctx, "bob").Return(&domain.User{ID: "bob"}, nil)
	chatRepo.On("FindDirectByPair", ctx, "alice", "bob").Return(nil, domain.ErrChatNotFound)
	chatRepo.On("CreateChat", ctx, mock.MatchedBy(func(c *domain.Chat) bool {
		return !c.IsGroup && len(c.Users) == 2
	})).Return(nil)
	userRepo.On("FindByIDs", ctx, mock.Anything).Return([]domain.User{{ID: "alice"}, {ID: "bob"}}, nil)

	uc := newChatUseCaseForTest(chatRepo, userRepo, new(MockMessageRepository))
	view, err := uc.AccessDirectChat(ctx, "alice", "bob")

	assert.NoError(t, err)
	assert.False(t, view.IsGroup)
	assert.Len(t, view.Users, 2)
	chatRepo.AssertExpectations(t)
}

func TestChatUseCase_AccessDirectChat_ReusesExisting(t *testing.T) {
	ctx := context.Background()
	chatRepo := new(MockChatRepository)
	userRepo := new(MockUserRepository)

	existing := &domain.Chat{ID: "c1", Users: []string{"alice", "bob"}}
	userRepo.On("FindByID", ctx, "bob").Return(&domain.User{ID: "bob"}, nil)
	chatRepo.On("FindDirectByPair", ctx, "alice", "bob").Return(existing, nil)
	userRepo.On("FindByIDs", ctx, mock.Anything).Return([]domain.User{{ID: "alice"}, {ID: "bob"}}, nil)

	uc := newChatUseCaseForTest(chatRepo, userRepo, new(MockMessageRepository))
	view, err := uc.AccessDirectChat(ctx, "alice", "bob")

	assert.NoError(t, err)
	assert.Equal(t, "c1", view.ID)
	chatRepo.AssertNotCalled(t, "CreateChat", mock.Anything, mock.Anything)
}

func TestChatUseCase_AccessDirectChat_SelfRejected(t *testing.T) {
	ctx := context.Background()
	uc := newChatUseCaseForTest(new(MockChatRepository), new(MockUserRepository), new(MockMessageRepository))

	_, err := uc.AccessDirectChat(ctx, "alice", "alice")

	assert.ErrorIs(t, err, domain.ErrMissingField)
}

func TestChatUseCase_FetchChats_ResolvesLatestMessage(t *testing.T) {
	ctx := context.Background()
	chatRepo := new(MockChatRepository)
	userRepo := new(MockUserRepository)
	msgRepo := new(MockMessageRepository)

	chats := []domain.Chat{{ID: "c1", Users: []string{"alice", "bob"}, LatestMessageID: "m9"}}
	chatRepo.On("FindByMember", ctx, "alice").Return(chats, nil)
	userRepo.On("FindByIDs", ctx, mock.Anything).Return([]domain.User{{ID: "alice"}, {ID: "bob"}}, nil)
	msgRepo.On("FindByID", ctx, "m9").Return(&domain.Message{ID: "m9", Content: "latest"}, nil)

	uc := newChatUseCaseForTest(chatRepo, userRepo, msgRepo)
	views, err := uc.FetchChats(ctx, "alice")

	assert.NoError(t, err)
	assert.Len(t, views, 1)
	assert.Equal(t, "latest", views[0].LatestMessage.Content)
}
