package app

import (
	"context"

	"realtime_chat_service/internal/chat/domain"

	"github.com/stretchr/testify/mock"
)

// MockChatRepository Mock ChatRepository
type MockChatRepository struct {
	mock.Mock
}

// CreateChat mock create chat
func (m *MockChatRepository) CreateChat(ctx context.Context, chat *domain.Chat) error {
	args := m.Called(ctx, chat)
	return args.Error(0)
}

// FindByID mock find chat by id
func (m *MockChatRepository) FindByID(ctx context.Context, chatID string) (*domain.Chat, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Chat), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindDirectByPair mock find direct chat by user pair
func (m *MockChatRepository) FindDirectByPair(ctx context.Context, userA, userB string) (*domain.Chat, error) {
	args := m.Called(ctx, userA, userB)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Chat), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindByMember mock list chats of a member
func (m *MockChatRepository) FindByMember(ctx context.Context, userID string) ([]domain.Chat, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Chat), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindGroupsByMember mock list groups of a member
func (m *MockChatRepository) FindGroupsByMember(ctx context.Context, userID string) ([]domain.Chat, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Chat), args.Error(1)
	}
	return nil, args.Error(1)
}

// UpdateChat mock update chat
func (m *MockChatRepository) UpdateChat(ctx context.Context, chat *domain.Chat) error {
	args := m.Called(ctx, chat)
	return args.Error(0)
}

// UpdateLatestMessage mock bump latest message
func (m *MockChatRepository) UpdateLatestMessage(ctx context.Context, chatID, messageID string) error {
	args := m.Called(ctx, chatID, messageID)
	return args.Error(0)
}

// DeleteChat mock delete chat
func (m *MockChatRepository) DeleteChat(ctx context.Context, chatID string) error {
	args := m.Called(ctx, chatID)
	return args.Error(0)
}

// MockMessageRepository Mock MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// CreateMessage mock insert message
func (m *MockMessageRepository) CreateMessage(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// FindByID mock find message by id
func (m *MockMessageRepository) FindByID(ctx context.Context, messageID string) (*domain.Message, error) {
	args := m.Called(ctx, messageID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindByChat mock list chat messages
func (m *MockMessageRepository) FindByChat(ctx context.Context, chatID string) ([]domain.Message, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// Search mock content search
func (m *MockMessageRepository) Search(ctx context.Context, chatID, keyword string) ([]domain.Message, error) {
	args := m.Called(ctx, chatID, keyword)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindUndelivered mock pending deliveries
func (m *MockMessageRepository) FindUndelivered(ctx context.Context, chatID, userID string) ([]domain.Message, error) {
	args := m.Called(ctx, chatID, userID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindUnread mock pending reads
func (m *MockMessageRepository) FindUnread(ctx context.Context, chatID, userID string) ([]domain.Message, error) {
	args := m.Called(ctx, chatID, userID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// UpdateStatus mock merge receipt sets
func (m *MockMessageRepository) UpdateStatus(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// UpdateReactions mock replace reactions
func (m *MockMessageRepository) UpdateReactions(ctx context.Context, messageID string, reactions []domain.Reaction) error {
	args := m.Called(ctx, messageID, reactions)
	return args.Error(0)
}

// DeleteByChat mock purge chat messages
func (m *MockMessageRepository) DeleteByChat(ctx context.Context, chatID string) error {
	args := m.Called(ctx, chatID)
	return args.Error(0)
}

// MockUserRepository Mock UserRepository
type MockUserRepository struct {
	mock.Mock
}

// Create mock insert profile
func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// FindByID mock find profile
func (m *MockUserRepository) FindByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindByIDs mock batch profile lookup
func (m *MockUserRepository) FindByIDs(ctx context.Context, userIDs []string) ([]domain.User, error) {
	args := m.Called(ctx, userIDs)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

// UpdateProfileImage mock avatar update
func (m *MockUserRepository) UpdateProfileImage(ctx context.Context, userID, objectName string) error {
	args := m.Called(ctx, userID, objectName)
	return args.Error(0)
}

// MockBroadcaster Mock Broadcaster
type MockBroadcaster struct {
	mock.Mock
}

// PublishToChat mock chat fan-out
func (m *MockBroadcaster) PublishToChat(chatID string, event domain.Event) error {
	args := m.Called(chatID, event)
	return args.Error(0)
}

// PublishToUser mock user fan-out
func (m *MockBroadcaster) PublishToUser(userID string, event domain.Event) error {
	args := m.Called(userID, event)
	return args.Error(0)
}

// PublishPresence mock presence fan-out
func (m *MockBroadcaster) PublishPresence(event domain.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockBackfiller Mock DeliveryBackfiller
type MockBackfiller struct {
	mock.Mock
}

// BackfillDelivery mock delivery backfill
func (m *MockBackfiller) BackfillDelivery(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}
