package app

import (
	"context"
	"os"
	"testing"

	"realtime_chat_service/internal/chat/domain"
	"realtime_chat_service/pkg"
	"realtime_chat_service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestMain(m *testing.M) {
	logger.SetNewNop()
	os.Exit(m.Run())
}

func newMessageUseCaseForTest(chatRepo *MockChatRepository, msgRepo *MockMessageRepository, userRepo *MockUserRepository, broadcaster *MockBroadcaster) *MessageUseCase {
	return NewMessageUseCase(chatRepo, msgRepo, NewViewAssembler(userRepo, msgRepo), broadcaster)
}

func TestMessageUseCase_Send(t *testing.T) {
	ctx := context.Background()
	chatRepo := new(MockChatRepository)
	msgRepo := new(MockMessageRepository)
	userRepo := new(MockUserRepository)
	broadcaster := new(MockBroadcaster)

	chat := &domain.Chat{ID: "c1", Users: []string{"alice", "bob"}}
	chatRepo.On("FindByID", ctx, "c1").Return(chat, nil)
	msgRepo.On("CreateMessage", ctx, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Message).ID = "m1"
	}).Return(nil)
	chatRepo.On("UpdateLatestMessage", ctx, "c1", "m1").Return(nil)
	userRepo.On("FindByID", ctx, "alice").Return(&domain.User{ID: "alice", Name: "Alice"}, nil)
	broadcaster.On("PublishToChat", "c1", mock.Anything).Return(nil)

	uc := newMessageUseCaseForTest(chatRepo, msgRepo, userRepo, broadcaster)
	view, err := uc.Send(ctx, "alice", SendMessageInput{ChatID: "c1", Content: "hi"})

	assert.NoError(t, err)
	assert.Equal(t, "m1", view.ID)
	assert.Equal(t, []string{"alice"}, view.DeliveredBy)
	assert.Equal(t, []string{"alice"}, view.ReadBy)
	assert.False(t, view.IsRead)
	assert.Equal(t, "Alice", view.Sender.Name)

	chatRepo.AssertExpectations(t)
	msgRepo.AssertExpectations(t)
	broadcaster.AssertExpectations(t)
}

func TestMessageUseCase_Send_MutedInGroup(t *testing.T) {
	ctx := context.Background()
	chatRepo := new(MockChatRepository)
	msgRepo := new(MockMessageRepository)

	chat := &domain.Chat{
		ID:         "g1",
		IsGroup:    true,
		Users:      []string{"alice", "bob", "carol"},
		Owner:      "alice",
		Admins:     []string{"alice"},
		MutedUsers: []string{"bob"},
	}
	chatRepo.On("FindByID", ctx, "g1").Return(chat, nil)

	uc := newMessageUseCaseForTest(chatRepo, msgRepo, new(MockUserRepository), new(MockBroadcaster))
	_, err := uc.Send(ctx, "bob", SendMessageInput{ChatID: "g1", Content: "hi"})

	assert.ErrorIs(t, err, domain.ErrSenderMuted)
	msgRepo.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
}

func TestMessageUseCase_Send_NotMember(t *testing.T) {
	ctx := context.Background()
	chatRepo := new(MockChatRepository)

	chat := &domain.Chat{ID: "c1", Users: []string{"alice", "bob"}}
	chatRepo.On("FindByID", ctx, "c1").Return(chat, nil)

	uc := newMessageUseCaseForTest(chatRepo, new(MockMessageRepository), new(MockUserRepository), new(MockBroadcaster))
	_, err := uc.Send(ctx, "mallory", SendMessageInput{ChatID: "c1", Content: "hi"})

	assert.ErrorIs(t, err, domain.ErrNotMember)
}

func TestMessageUseCase_MarkDelivered(t *testing.T) {
	ctx := context.Background()
	chatRepo := new(MockChatRepository)
	msgRepo := new(MockMessageRepository)
	broadcaster := new(MockBroadcaster)

	chat := &domain.Chat{ID: "c1", Users: []string{"alice", "bob"}}
	msg := &domain.Message{ID: "m1", ChatID: "c1", SenderID: "alice", DeliveredBy: []string{"alice"}, ReadBy: []string{"alice"}}
	msgRepo.On("FindByID", ctx, "m1").Return(msg, nil)
	chatRepo.On("FindByID", ctx, "c1").Return(chat, nil)
	msgRepo.On("UpdateStatus", ctx, mock.Anything).Return(nil)
	// one delivery mark publishes exactly one event
	broadcaster.On("PublishToChat", "c1", mock.MatchedBy(func(e domain.Event) bool {
		return e.Name == domain.EventMessageDelivered
	})).Return(nil).Once()

	uc := newMessageUseCaseForTest(chatRepo, msgRepo, new(MockUserRepository), broadcaster)
	status, err := uc.MarkDelivered(ctx, "m1", "bob")

	assert.NoError(t, err)
	assert.Contains(t, status.DeliveredBy, "bob")
	assert.NotContains(t, status.ReadBy, "bob")
	// delivery alone never flips the read flag
	assert.False(t, status.IsRead)

	msgRepo.AssertExpectations(t)
	broadcaster.AssertExpectations(t)
}

func TestMessageUseCase_MarkDelivered_Idempotent(t *testing.T) {
	ctx := context.Background()
	chatRepo := new(MockChatRepository)
	msgRepo := new(MockMessageRepository)
	broadcaster := new(MockBroadcaster)

	chat := &domain.Chat{ID: "c1", Users: []string{"alice", "bob"}}
	msg := &domain.Message{ID: "m1", ChatID: "c1", SenderID: "alice", DeliveredBy: []string{"alice", "bob"}, ReadBy: []string{"alice"}}
	msgRepo.On("FindByID", ctx, "m1").Return(msg, nil)
	chatRepo.On("FindByID", ctx, "c1").Return(chat, nil)

	uc := newMessageUseCaseForTest(chatRepo, msgRepo, new(MockUserRepository), broadcaster)
	status, err := uc.MarkDelivered(ctx, "m1", "bob")

	assert.NoError(t, err)
	assert.Contains(t, status.DeliveredBy, "bob")
	msgRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything)
	broadcaster.AssertNotCalled(t, "PublishToChat", mock.Anything, mock.Anything)
}

func TestMessageUseCase_MarkRead_DirectChat(t *testing.T) {
	ctx := context.Background()
	chatRepo := new(MockChatRepository)
	msgRepo := new(MockMessageRepository)
	broadcaster := new(MockBroadcaster)

	chat := &domain.Chat{ID: "c1", Users: []string{"alice", "bob"}}
	msg := &domain.Message{ID: "m1", ChatID: "c1", SenderID: "alice", DeliveredBy: []string{"alice"}, ReadBy: []string{"alice"}}
	msgRepo.On("FindByID", ctx, "m1").Return(msg, nil)
	chatRepo.On("FindByID", ctx, "c1").Return(chat, nil)
	msgRepo.On("UpdateStatus", ctx, mock.Anything).Return(nil)
	broadcaster.On("PublishToChat", "c1", mock.Anything).Return(nil)

	uc := newMessageUseCaseForTest(chatRepo, msgRepo, new(MockUserRepository), broadcaster)
	status, err := uc.MarkRead(ctx, "m1", "bob")

	assert.NoError(t, err)
	// reading implies receipt
	assert.Contains(t, status.DeliveredBy, "bob")
	assert.Contains(t, status.ReadBy, "bob")
	assert.True(t, status.IsRead)
}

func TestMessageUseCase_MarkRead_GroupNeedsEveryone(t *testing.T) {
	ctx := context.Background()
	chatRepo := new(MockChatRepository)
	msgRepo := new(MockMessageRepository)
	broadcaster := new(MockBroadcaster)

	chat := &domain.Chat{
		ID:      "g1",
		IsGroup: true,
		Users:   []string{"alice", "bob", "carol"},
		Owner:   "alice",
		Admins:  []string{"alice"},
	}
	msg := &domain.Message{ID: "m1", ChatID: "g1", SenderID: "alice", DeliveredBy: []string{"alice"}, ReadBy: []string{"alice"}}
	msgRepo.On("FindByID", ctx, "m1").Return(msg, nil)
	chatRepo.On("FindByID", ctx, "g1").Return(chat, nil)
	msgRepo.On("UpdateStatus", ctx, mock.Anything).Return(nil)
	broadcaster.On("PublishToChat", "g1", mock.Anything).Return(nil)

	uc := newMessageUseCaseForTest(chatRepo, msgRepo, new(MockUserRepository), broadcaster)

	status, err := uc.MarkRead(ctx, "m1", "bob")
	assert.NoError(t, err)
	assert.False(t, status.IsRead)

	status, err = uc.MarkRead(ctx, "m1", "carol")
	assert.NoError(t, err)
	assert.True(t, status.IsRead)
}

func TestMessageUseCase_MarkRead_NotMember(t *testing.T) {
	ctx := context.Background()
	chatRepo := new(MockChatRepository)
	msgRepo := new(MockMessageRepository)

	chat := &domain.Chat{ID: "c1", Users: []string{"alice", "bob"}}
	msg := &domain.Message{ID: "m1", ChatID: "c1", SenderID: "alice"}
	msgRepo.On("FindByID", ctx, "m1").Return(msg, nil)
	chatRepo.On("FindByID", ctx, "c1").Return(chat, nil)

	uc := newMessageUseCaseForTest(chatRepo, msgRepo, new(MockUserRepository), new(MockBroadcaster))
	_, err := uc.MarkRead(ctx, "m1", "mallory")

	assert.ErrorIs(t, err, domain.ErrNotMember)
	msgRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything)
}

func TestMessageUseCase_BackfillDelivery(t *testing.T) {
	ctx := context.Background()
	chatRepo := new(MockChatRepository)
	msgRepo := new(MockMessageRepository)
	broadcaster := new(MockBroadcaster)

	chats := []domain.Chat{
		{ID: "c1", Users: []string{"alice", "bob"}},
		{ID: "c2", Users: []string{"bob", "carol"}},
	}
	chatRepo.On("FindByMember", ctx, "bob").Return(chats, nil)
	msgRepo.On("FindUndelivered", ctx, "c1", "bob").Return([]domain.Message{
		{ID: "m1", ChatID: "c1", SenderID: "alice", DeliveredBy: []string{"alice"}, ReadBy: []string{"alice"}},
	}, nil)
	msgRepo.On("FindUndelivered", ctx, "c2", "bob").Return([]domain.Message{}, nil)
	msgRepo.On("UpdateStatus", ctx, mock.MatchedBy(func(m *domain.Message) bool {
		return m.ID == "m1" && len(m.DeliveredBy) == 2
	})).Return(nil)
	broadcaster.On("PublishToChat", "c1", mock.Anything).Return(nil)

	uc := newMessageUseCaseForTest(chatRepo, msgRepo, new(MockUserRepository), broadcaster)
	err := uc.BackfillDelivery(ctx, "bob")

	assert.NoError(t, err)
	msgRepo.AssertExpectations(t)
}

func TestMessageUseCase_BackfillDelivery_SkipsFailingMessage(t *testing.T) {
	ctx := context.Background()
	chatRepo := new(MockChatRepository)
	msgRepo := new(MockMessageRepository)
	broadcaster := new(MockBroadcaster)

	chats := []domain.Chat{{ID: "c1", Users: []string{"alice", "bob"}}}
	chatRepo.On("FindByMember", ctx, "bob").Return(chats, nil)
	msgRepo.On("FindUndelivered", ctx, "c1", "bob").Return([]domain.Message{
		{ID: "m1", ChatID: "c1", SenderID: "alice", DeliveredBy: []string{"alice"}, ReadBy: []string{"alice"}},
		{ID: "m2", ChatID: "c1", SenderID: "alice", DeliveredBy: []string{"alice"}, ReadBy: []string{"alice"}},
	}, nil)
	msgRepo.On("UpdateStatus", ctx, mock.MatchedBy(func(m *domain.Message) bool {
		return m.ID == "m1"
	})).Return(assert.AnError)
	msgRepo.On("UpdateStatus", ctx, mock.MatchedBy(func(m *domain.Message) bool {
		return m.ID == "m2" && len(m.DeliveredBy) == 2
	})).Return(nil).Once()
	broadcaster.On("PublishToChat", "c1", mock.Anything).Return(nil)

	uc := newMessageUseCaseForTest(chatRepo, msgRepo, new(MockUserRepository), broadcaster)
	err := uc.BackfillDelivery(ctx, "bob")

	// one failing message never blocks the rest of the backlog
	assert.NoError(t, err)
	msgRepo.AssertExpectations(t)
}

func TestMessageUseCase_BackfillDelivery_SkipsFailingChat(t *testing.T) {
	ctx := context.Background()
	chatRepo := new(MockChatRepository)
	msgRepo := new(MockMessageRepository)
	broadcaster := new(MockBroadcaster)

	chats := []domain.Chat{
		{ID: "c1", Users: []string{"alice", "bob"}},
		{ID: "c2", Users: []string{"bob", "carol"}},
	}
	chatRepo.On("FindByMember", ctx, "bob").Return(chats, nil)
	msgRepo.On("FindUndelivered", ctx, "c1", "bob").Return(nil, assert.AnError)
	msgRepo.On("FindUndelivered", ctx, "c2", "bob").Return([]domain.Message{
		{ID: "m9", ChatID: "c2", SenderID: "carol", DeliveredBy: []string{"carol"}, ReadBy: []string{"carol"}},
	}, nil)
	msgRepo.On("UpdateStatus", ctx, mock.MatchedBy(func(m *domain.Message) bool {
		return m.ID == "m9"
	})).Return(nil).Once()
	broadcaster.On("PublishToChat", "c2", mock.Anything).Return(nil)

	uc := newMessageUseCaseForTest(chatRepo, msgRepo, new(MockUserRepository), broadcaster)
	err := uc.BackfillDelivery(ctx, "bob")

	assert.NoError(t, err)
	msgRepo.AssertExpectations(t)
}

func TestMessageUseCase_Send_DropsForeignReplyTo(t *testing.T) {
	ctx := context.Background()
	chatRepo := new(MockChatRepository)
	msgRepo := new(MockMessageRepository)
	userRepo := new(MockUserRepository)
	broadcaster := new(MockBroadcaster)

	chat := &domain.Chat{ID: "c1", Users: []string{"alice", "bob"}}
	chatRepo.On("FindByID", ctx, "c1").Return(chat, nil)
	// the referenced message lives in another chat
	msgRepo.On("FindByID", ctx, "foreign").Return(&domain.Message{ID: "foreign", ChatID: "c9"}, nil)
	msgRepo.On("CreateMessage", ctx, mock.MatchedBy(func(m *domain.Message) bool {
		return m.ReplyTo == ""
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Message).ID = "m1"
	}).Return(nil).Once()
	chatRepo.On("UpdateLatestMessage", ctx, "c1", "m1").Return(nil)
	userRepo.On("FindByID", ctx, "alice").Return(&domain.User{ID: "alice"}, nil)
	broadcaster.On("PublishToChat", "c1", mock.Anything).Return(nil)

	uc := newMessageUseCaseForTest(chatRepo, msgRepo, userRepo, broadcaster)
	view, err := uc.Send(ctx, "alice", SendMessageInput{ChatID: "c1", Content: "hi", ReplyTo: "foreign"})

	assert.NoError(t, err)
	assert.Empty(t, view.ReplyTo)
	msgRepo.AssertExpectations(t)
}

func TestMessageUseCase_Send_KeepsSameChatReplyTo(t *testing.T) {
	ctx := context.Background()
	chatRepo := new(MockChatRepository)
	msgRepo := new(MockMessageRepository)
	userRepo := new(MockUserRepository)
	broadcaster := new(MockBroadcaster)

	chat := &domain.Chat{ID: "c1", Users: []string{"alice", "bob"}}
	chatRepo.On("FindByID", ctx, "c1").Return(chat, nil)
	msgRepo.On("FindByID", ctx, "m0").Return(&domain.Message{ID: "m0", ChatID: "c1"}, nil)
	msgRepo.On("CreateMessage", ctx, mock.MatchedBy(func(m *domain.Message) bool {
		return m.ReplyTo == "m0"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Message).ID = "m1"
	}).Return(nil).Once()
	chatRepo.On("UpdateLatestMessage", ctx, "c1", "m1").Return(nil)
	userRepo.On("FindByID", ctx, "alice").Return(&domain.User{ID: "alice"}, nil)
	broadcaster.On("PublishToChat", "c1", mock.Anything).Return(nil)

	uc := newMessageUseCaseForTest(chatRepo, msgRepo, userRepo, broadcaster)
	view, err := uc.Send(ctx, "alice", SendMessageInput{ChatID: "c1", Content: "hi", ReplyTo: "m0"})

	assert.NoError(t, err)
	assert.Equal(t, "m0", view.ReplyTo)
	msgRepo.AssertExpectations(t)
}

func TestMessageUseCase_DeliverToOnline(t *testing.T) {
	ctx := context.Background()
	chatRepo := new(MockChatRepository)
	msgRepo := new(MockMessageRepository)
	broadcaster := new(MockBroadcaster)

	chat := &domain.Chat{
		ID:      "g1",
		IsGroup: true,
		Users:   []string{"alice", "bob", "carol"},
		Owner:   "alice",
		Admins:  []string{"alice"},
	}
	msg := &domain.Message{ID: "m1", ChatID: "g1", SenderID: "alice", DeliveredBy: []string{"alice"}, ReadBy: []string{"alice"}}
	msgRepo.On("FindByID", ctx, "m1").Return(msg, nil)
	chatRepo.On("FindByID", ctx, "g1").Return(chat, nil)
	msgRepo.On("UpdateStatus", ctx, mock.MatchedBy(func(m *domain.Message) bool {
		return pkg.Contains(m.DeliveredBy, "bob") && !pkg.Contains(m.DeliveredBy, "carol")
	})).Return(nil).Once()
	broadcaster.On("PublishToChat", "g1", mock.Anything).Return(nil)

	online := map[string]bool{"alice": true, "bob": true}

	uc := newMessageUseCaseForTest(chatRepo, msgRepo, new(MockUserRepository), broadcaster)
	uc.DeliverToOnline(ctx, "m1", func(id string) bool { return online[id] })

	// only the online non-sender got a delivery mark
	msgRepo.AssertExpectations(t)
}

func TestMessageUseCase_BackfillRead(t *testing.T) {
	ctx := context.Background()
	chatRepo := new(MockChatRepository)
	msgRepo := new(MockMessageRepository)
	broadcaster := new(MockBroadcaster)

	chat := &domain.Chat{ID: "c1", Users: []string{"alice", "bob"}}
	chatRepo.On("FindByID", ctx, "c1").Return(chat, nil)
	msgRepo.On("FindUnread", ctx, "c1", "bob").Return([]domain.Message{
		{ID: "m1", ChatID: "c1", SenderID: "alice", DeliveredBy: []string{"alice"}, ReadBy: []string{"alice"}},
	}, nil)
	msgRepo.On("UpdateStatus", ctx, mock.MatchedBy(func(m *domain.Message) bool {
		return m.ID == "m1" && m.IsRead
	})).Return(nil)
	broadcaster.On("PublishToChat", "c1", mock.Anything).Return(nil)

	uc := newMessageUseCaseForTest(chatRepo, msgRepo, new(MockUserRepository), broadcaster)
	err := uc.BackfillRead(ctx, "c1", "bob")

	assert.NoError(t, err)
	msgRepo.AssertExpectations(t)
}

func TestMessageUseCase_AddReaction_ReplacesPrevious(t *testing.T) {
	ctx := context.Background()
	chatRepo := new(MockChatRepository)
	msgRepo := new(MockMessageRepository)
	broadcaster := new(MockBroadcaster)

	chat := &domain.Chat{ID: "c1", Users: []string{"alice", "bob"}}
	msg := &domain.Message{
		ID: "m1", ChatID: "c1", SenderID: "alice",
		Reactions: []domain.Reaction{{UserID: "bob", Emoji: "x"}},
	}
	msgRepo.On("FindByID", ctx, "m1").Return(msg, nil)
	chatRepo.On("FindByID", ctx, "c1").Return(chat, nil)
	msgRepo.On("UpdateReactions", ctx, "m1", []domain.Reaction{{UserID: "bob", Emoji: "y"}}).Return(nil)
	broadcaster.On("PublishToChat", "c1", mock.Anything).Return(nil)

	uc := newMessageUseCaseForTest(chatRepo, msgRepo, new(MockUserRepository), broadcaster)
	updated, err := uc.AddReaction(ctx, "m1", "bob", "y")

	assert.NoError(t, err)
	assert.Len(t, updated.Reactions, 1)
	assert.Equal(t, "y", updated.Reactions[0].Emoji)
}

func TestMessageUseCase_BroadcastFailureDoesNotFailSend(t *testing.T) {
	ctx := context.Background()
	chatRepo := new(MockChatRepository)
	msgRepo := new(MockMessageRepository)
	userRepo := new(MockUserRepository)
	broadcaster := new(MockBroadcaster)

	chat := &domain.Chat{ID: "c1", Users: []string{"alice", "bob"}}
	chatRepo.On("FindByID", ctx, "c1").Return(chat, nil)
	msgRepo.On("CreateMessage", ctx, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Message).ID = "m1"
	}).Return(nil)
	chatRepo.On("UpdateLatestMessage", ctx, "c1", "m1").Return(nil)
	userRepo.On("FindByID", ctx, "alice").Return(&domain.User{ID: "alice"}, nil)
	broadcaster.On("PublishToChat", "c1", mock.Anything).Return(assert.AnError)

	uc := newMessageUseCaseForTest(chatRepo, msgRepo, userRepo, broadcaster)
	view, err := uc.Send(ctx, "alice", SendMessageInput{ChatID: "c1", Content: "hi"})

	assert.NoError(t, err)
	assert.Equal(t, "m1", view.ID)
}

func TestMessageUseCase_PinMessage_AdminOnly(t *testing.T) {
	ctx := context.Background()
	chatRepo := new(MockChatRepository)
	msgRepo := new(MockMessageRepository)
	broadcaster := new(MockBroadcaster)

	chat := &domain.Chat{
		ID:      "g1",
		IsGroup: true,
		Users:   []string{"alice", "bob", "carol"},
		Owner:   "alice",
		Admins:  []string{"alice"},
	}
	chatRepo.On("FindByID", ctx, "g1").Return(chat, nil)
	msgRepo.On("FindByID", ctx, "m1").Return(&domain.Message{ID: "m1", ChatID: "g1"}, nil)
	chatRepo.On("UpdateChat", ctx, mock.Anything).Return(nil)
	broadcaster.On("PublishToChat", "g1", mock.Anything).Return(nil)

	uc := newMessageUseCaseForTest(chatRepo, msgRepo, new(MockUserRepository), broadcaster)

	_, err := uc.PinMessage(ctx, "g1", "m1", "bob")
	assert.ErrorIs(t, err, domain.ErrNotAdmin)

	updated, err := uc.PinMessage(ctx, "g1", "m1", "alice")
	assert.NoError(t, err)
	assert.Contains(t, updated.PinnedMessages, "m1")

	// pinning twice keeps a single entry
	updated, err = uc.PinMessage(ctx, "g1", "m1", "alice")
	assert.NoError(t, err)
	assert.Len(t, updated.PinnedMessages, 1)
}

func TestMessageUseCase_PinMessage_DirectChatRejected(t *testing.T) {
	ctx := context.Background()
	chatRepo := new(MockChatRepository)

	chat := &domain.Chat{ID: "c1", Users: []string{"alice", "bob"}}
	chatRepo.On("FindByID", ctx, "c1").Return(chat, nil)

	uc := newMessageUseCaseForTest(chatRepo, new(MockMessageRepository), new(MockUserRepository), new(MockBroadcaster))
	_, err := uc.PinMessage(ctx, "c1", "m1", "alice")

	assert.ErrorIs(t, err, domain.ErrNotGroupChat)
}
