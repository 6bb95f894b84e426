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

// SendMessageInput fields accepted when creating a message
type SendMessageInput struct {
	ChatID      string             `json:"chatId"`
	Content     string             `json:"content"`
	ContentType domain.ContentType `json:"contentType"`
	Mentions    []string           `json:"mentions,omitempty"`
	ReplyTo     string             `json:"replyTo,omitempty"`
}

// MessageUseCase message creation, receipt tracking and reactions. Every
// mutation commits first and broadcasts after; a failed broadcast is logged
// and never undoes the commit.
type MessageUseCase struct {
	chatRepo    repository.ChatRepository
	msgRepo     repository.MessageRepository
	assembler   *ViewAssembler
	broadcaster repository.Broadcaster
}

// NewMessageUseCase create a MessageUseCase
func NewMessageUseCase(
	chatRepo repository.ChatRepository,
	msgRepo repository.MessageRepository,
	assembler *ViewAssembler,
	broadcaster repository.Broadcaster,
) *MessageUseCase {
	return &MessageUseCase{
		chatRepo:    chatRepo,
		msgRepo:     msgRepo,
		assembler:   assembler,
		broadcaster: broadcaster,
	}
}

// Send validate, persist and fan out a new message. The sender counts as
// having received and read their own message from the start.
func (uc *MessageUseCase) Send(ctx context.Context, senderID string, in SendMessageInput) (*domain.MessageView, error) {
	if in.ChatID == "" || strings.TrimSpace(in.Content) == "" {
		return nil, domain.ErrMissingField
	}
	if in.ContentType == "" {
		in.ContentType = domain.ContentText
	}
	if !domain.ValidContentType(in.ContentType) {
		return nil, domain.ErrInvalidContentType
	}

	chat, err := uc.chatRepo.FindByID(ctx, in.ChatID)
	if err != nil {
		return nil, err
	}
	if !chat.IsMember(senderID) {
		return nil, domain.ErrNotMember
	}
	if chat.IsGroup && chat.IsMuted(senderID) {
		return nil, domain.ErrSenderMuted
	}

	// a reply must point at a message of the same chat, anything else is dropped
	if in.ReplyTo != "" {
		ref, err := uc.msgRepo.FindByID(ctx, in.ReplyTo)
		if err != nil || ref.ChatID != in.ChatID {
			logger.Log.Warn("reply reference dropped",
				zap.String("chatID", in.ChatID),
				zap.String("replyTo", in.ReplyTo))
			in.ReplyTo = ""
		}
	}

	msg := &domain.Message{
		ChatID:      in.ChatID,
		SenderID:    senderID,
		Content:     in.Content,
		ContentType: in.ContentType,
		ReplyTo:     in.ReplyTo,
		DeliveredBy: []string{senderID},
		ReadBy:      []string{senderID},
	}
	for _, m := range in.Mentions {
		if chat.IsMember(m) {
			msg.Mentions = pkg.AppendIfMissing(msg.Mentions, m)
		}
	}
	msg.RecomputeRead(chat)

	if err := uc.msgRepo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	if err := uc.chatRepo.UpdateLatestMessage(ctx, chat.ID, msg.ID); err != nil {
		logger.Log.Warn("latest message bump failed", zap.String("chatID", chat.ID), zap.Error(err))
	}

	view, err := uc.assembler.AssembleMessageView(ctx, msg)
	if err != nil {
		view = &domain.MessageView{Message: *msg}
	}

	uc.publishToChat(chat.ID, domain.Event{Name: domain.EventNewMessage, Payload: view})
	for _, mentioned := range msg.Mentions {
		if mentioned == senderID {
			continue
		}
		uc.publishToUser(mentioned, domain.Event{
			Name: domain.EventMentioned,
			Payload: domain.MentionNotice{
				MessageID: msg.ID,
				ChatID:    chat.ID,
				SenderID:  senderID,
				Content:   msg.Content,
			},
		})
	}
	return view, nil
}

// MarkDelivered record that userID received the message. Idempotent: a
// repeat mark changes nothing and publishes nothing.
func (uc *MessageUseCase) MarkDelivered(ctx context.Context, messageID, userID string) (*domain.MessageStatus, error) {
	msg, chat, err := uc.loadForReceipt(ctx, messageID, userID)
	if err != nil {
		return nil, err
	}
	if pkg.Contains(msg.DeliveredBy, userID) {
		status := msg.Status(userID)
		return &status, nil
	}

	msg.DeliveredBy = pkg.AppendIfMissing(msg.DeliveredBy, userID)
	msg.RecomputeRead(chat)
	if err := uc.msgRepo.UpdateStatus(ctx, msg); err != nil {
		return nil, err
	}

	status := msg.Status(userID)
	uc.publishToChat(chat.ID, domain.Event{Name: domain.EventMessageDelivered, Payload: status})
	return &status, nil
}

// MarkRead record that userID read the message. Reading implies receipt, so
// the delivered set is merged too. Idempotent like MarkDelivered.
func (uc *MessageUseCase) MarkRead(ctx context.Context, messageID, userID string) (*domain.MessageStatus, error) {
	msg, chat, err := uc.loadForReceipt(ctx, messageID, userID)
	if err != nil {
		return nil, err
	}
	if pkg.Contains(msg.ReadBy, userID) {
		status := msg.Status(userID)
		return &status, nil
	}

	msg.DeliveredBy = pkg.AppendIfMissing(msg.DeliveredBy, userID)
	msg.ReadBy = pkg.AppendIfMissing(msg.ReadBy, userID)
	msg.RecomputeRead(chat)
	if err := uc.msgRepo.UpdateStatus(ctx, msg); err != nil {
		return nil, err
	}

	status := msg.Status(userID)
	uc.publishToChat(chat.ID, domain.Event{Name: domain.EventMessageStatus, Payload: status})
	return &status, nil
}

// BackfillDelivery mark every message pending for userID as delivered, chat
// by chat. Runs when the user comes online. Best effort: one failing chat or
// message is logged and skipped, the rest still catch up.
func (uc *MessageUseCase) BackfillDelivery(ctx context.Context, userID string) error {
	chats, err := uc.chatRepo.FindByMember(ctx, userID)
	if err != nil {
		return err
	}
	for i := range chats {
		chat := &chats[i]
		pending, err := uc.msgRepo.FindUndelivered(ctx, chat.ID, userID)
		if err != nil {
			logger.Log.Warn("delivery backfill skipped a chat",
				zap.String("chatID", chat.ID),
				zap.String("userID", userID),
				zap.Error(err))
			continue
		}
		for j := range pending {
			msg := &pending[j]
			msg.DeliveredBy = pkg.AppendIfMissing(msg.DeliveredBy, userID)
			msg.RecomputeRead(chat)
			if err := uc.msgRepo.UpdateStatus(ctx, msg); err != nil {
				logger.Log.Warn("delivery backfill skipped a message",
					zap.String("messageID", msg.ID),
					zap.String("userID", userID),
					zap.Error(err))
				continue
			}
			uc.publishToChat(chat.ID, domain.Event{Name: domain.EventMessageDelivered, Payload: msg.Status(userID)})
		}
	}
	return nil
}

// DeliverToOnline record delivery for every chat member currently holding a
// live session, skipping the sender. Runs after the live relay of a fresh
// message; each mark is best effort.
func (uc *MessageUseCase) DeliverToOnline(ctx context.Context, messageID string, isOnline func(string) bool) {
	msg, err := uc.msgRepo.FindByID(ctx, messageID)
	if err != nil {
		logger.Log.Warn("online delivery lookup failed", zap.String("messageID", messageID), zap.Error(err))
		return
	}
	chat, err := uc.chatRepo.FindByID(ctx, msg.ChatID)
	if err != nil {
		logger.Log.Warn("online delivery lookup failed", zap.String("chatID", msg.ChatID), zap.Error(err))
		return
	}
	for _, member := range chat.Users {
		if member == msg.SenderID || !isOnline(member) {
			continue
		}
		if _, err := uc.MarkDelivered(ctx, messageID, member); err != nil {
			logger.Log.Warn("online delivery mark failed",
				zap.String("messageID", messageID),
				zap.String("userID", member),
				zap.Error(err))
		}
	}
}

// BackfillRead mark every unread message of one chat as read by userID.
// Runs when the user opens the chat.
func (uc *MessageUseCase) BackfillRead(ctx context.Context, chatID, userID string) error {
	chat, err := uc.chatRepo.FindByID(ctx, chatID)
	if err != nil {
		return err
	}
	if !chat.IsMember(userID) {
		return domain.ErrNotMember
	}
	pending, err := uc.msgRepo.FindUnread(ctx, chatID, userID)
	if err != nil {
		return err
	}
	for i := range pending {
		msg := &pending[i]
		msg.DeliveredBy = pkg.AppendIfMissing(msg.DeliveredBy, userID)
		msg.ReadBy = pkg.AppendIfMissing(msg.ReadBy, userID)
		msg.RecomputeRead(chat)
		if err := uc.msgRepo.UpdateStatus(ctx, msg); err != nil {
			return err
		}
		uc.publishToChat(chatID, domain.Event{Name: domain.EventMessageStatus, Payload: msg.Status(userID)})
	}
	return nil
}

// FetchMessages all messages of a chat in send order, senders resolved
func (uc *MessageUseCase) FetchMessages(ctx context.Context, chatID, userID string) ([]domain.MessageView, error) {
	chat, err := uc.chatRepo.FindByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.IsMember(userID) {
		return nil, domain.ErrNotMember
	}
	msgs, err := uc.msgRepo.FindByChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return uc.assembler.AssembleMessageViews(ctx, msgs)
}

// SearchMessages case-insensitive content search within one chat
func (uc *MessageUseCase) SearchMessages(ctx context.Context, chatID, userID, keyword string) ([]domain.MessageView, error) {
	if strings.TrimSpace(keyword) == "" {
		return nil, domain.ErrMissingField
	}
	chat, err := uc.chatRepo.FindByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.IsMember(userID) {
		return nil, domain.ErrNotMember
	}
	msgs, err := uc.msgRepo.Search(ctx, chatID, keyword)
	if err != nil {
		return nil, err
	}
	return uc.assembler.AssembleMessageViews(ctx, msgs)
}

// AddReaction set userID's reaction on a message, replacing any previous one
func (uc *MessageUseCase) AddReaction(ctx context.Context, messageID, userID, emoji string) (*domain.Message, error) {
	if strings.TrimSpace(emoji) == "" {
		return nil, domain.ErrMissingField
	}
	msg, chat, err := uc.loadForReceipt(ctx, messageID, userID)
	if err != nil {
		return nil, err
	}

	reactions := make([]domain.Reaction, 0, len(msg.Reactions)+1)
	for _, r := range msg.Reactions {
		if r.UserID != userID {
			reactions = append(reactions, r)
		}
	}
	reactions = append(reactions, domain.Reaction{UserID: userID, Emoji: emoji})
	msg.Reactions = reactions

	if err := uc.msgRepo.UpdateReactions(ctx, messageID, reactions); err != nil {
		return nil, err
	}
	uc.publishToChat(chat.ID, domain.Event{
		Name: domain.EventMessageReaction,
		Payload: domain.ReactionNotice{
			MessageID: messageID,
			ChatID:    chat.ID,
			UserID:    userID,
			Emoji:     emoji,
			Reactions: reactions,
		},
	})
	return msg, nil
}

// RemoveReaction clear userID's reaction, if any
func (uc *MessageUseCase) RemoveReaction(ctx context.Context, messageID, userID string) (*domain.Message, error) {
	msg, chat, err := uc.loadForReceipt(ctx, messageID, userID)
	if err != nil {
		return nil, err
	}
	if _, ok := msg.ReactionOf(userID); !ok {
		return msg, nil
	}

	reactions := make([]domain.Reaction, 0, len(msg.Reactions))
	for _, r := range msg.Reactions {
		if r.UserID != userID {
			reactions = append(reactions, r)
		}
	}
	msg.Reactions = reactions

	if err := uc.msgRepo.UpdateReactions(ctx, messageID, reactions); err != nil {
		return nil, err
	}
	uc.publishToChat(chat.ID, domain.Event{
		Name: domain.EventMessageReaction,
		Payload: domain.ReactionNotice{
			MessageID: messageID,
			ChatID:    chat.ID,
			UserID:    userID,
			Reactions: reactions,
		},
	})
	return msg, nil
}

// PinMessage add a message of a group chat to its pinned list. Admins only.
func (uc *MessageUseCase) PinMessage(ctx context.Context, chatID, messageID, userID string) (*domain.Chat, error) {
	chat, err := uc.chatRepo.FindByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.IsGroup {
		return nil, domain.ErrNotGroupChat
	}
	if !chat.IsAdmin(userID) {
		return nil, domain.ErrNotAdmin
	}
	msg, err := uc.msgRepo.FindByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.ChatID != chatID {
		return nil, domain.ErrMessageNotFound
	}

	chat.PinnedMessages = pkg.AppendIfMissing(chat.PinnedMessages, messageID)
	if err := uc.chatRepo.UpdateChat(ctx, chat); err != nil {
		return nil, err
	}
	uc.publishToChat(chatID, domain.Event{
		Name:    domain.EventMessagePinned,
		Payload: domain.PinNotice{ChatID: chatID, MessageID: messageID},
	})
	return chat, nil
}

// UnpinMessage drop a message from a group chat's pinned list. Admins only.
func (uc *MessageUseCase) UnpinMessage(ctx context.Context, chatID, messageID, userID string) (*domain.Chat, error) {
	chat, err := uc.chatRepo.FindByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.IsGroup {
		return nil, domain.ErrNotGroupChat
	}
	if !chat.IsAdmin(userID) {
		return nil, domain.ErrNotAdmin
	}

	chat.PinnedMessages = pkg.Remove(chat.PinnedMessages, messageID)
	if err := uc.chatRepo.UpdateChat(ctx, chat); err != nil {
		return nil, err
	}
	uc.publishToChat(chatID, domain.Event{
		Name:    domain.EventMessageUnpinned,
		Payload: domain.PinNotice{ChatID: chatID, MessageID: messageID},
	})
	return chat, nil
}

// loadForReceipt fetch a message and its chat, enforcing membership
func (uc *MessageUseCase) loadForReceipt(ctx context.Context, messageID, userID string) (*domain.Message, *domain.Chat, error) {
	msg, err := uc.msgRepo.FindByID(ctx, messageID)
	if err != nil {
		return nil, nil, err
	}
	chat, err := uc.chatRepo.FindByID(ctx, msg.ChatID)
	if err != nil {
		return nil, nil, err
	}
	if !chat.IsMember(userID) {
		return nil, nil, domain.ErrNotMember
	}
	return msg, chat, nil
}

func (uc *MessageUseCase) publishToChat(chatID string, event domain.Event) {
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

func (uc *MessageUseCase) publishToUser(userID string, event domain.Event) {
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
