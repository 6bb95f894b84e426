package repository

import (
	"context"
	"time"

	"realtime_chat_service/internal/chat/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ChatRepository definition chat documents, direct and group alike
type ChatRepository interface {
	CreateChat(ctx context.Context, chat *domain.Chat) error
	FindByID(ctx context.Context, chatID string) (*domain.Chat, error)
	// FindDirectByPair find the direct chat holding exactly this user pair.
	FindDirectByPair(ctx context.Context, userA, userB string) (*domain.Chat, error)
	FindByMember(ctx context.Context, userID string) ([]domain.Chat, error)
	FindGroupsByMember(ctx context.Context, userID string) ([]domain.Chat, error)
	UpdateChat(ctx context.Context, chat *domain.Chat) error
	UpdateLatestMessage(ctx context.Context, chatID, messageID string) error
	DeleteChat(ctx context.Context, chatID string) error
}

type chatRepository struct {
	coll *mongo.Collection
}

// NewMongoChatRepository create a mongo backed ChatRepository
func NewMongoChatRepository(db *mongo.Database) ChatRepository {
	return &chatRepository{
		coll: db.Collection("chats"),
	}
}

// CreateChat insert a chat document
func (r *chatRepository) CreateChat(ctx context.Context, chat *domain.Chat) error {
	now := time.Now().Unix()
	chat.CreatedAt = now
	chat.UpdatedAt = now
	_, err := r.coll.InsertOne(ctx, chat)
	return err
}

// FindByID find one chat by id
func (r *chatRepository) FindByID(ctx context.Context, chatID string) (*domain.Chat, error) {
	var chat domain.Chat
	err := r.coll.FindOne(ctx, bson.M{"_id": chatID}).Decode(&chat)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrChatNotFound
		}
		return nil, err
	}
	return &chat, nil
}

// FindDirectByPair find the non-group chat whose member set is {userA, userB}
func (r *chatRepository) FindDirectByPair(ctx context.Context, userA, userB string) (*domain.Chat, error) {
	var chat domain.Chat
	filter := bson.M{
		"is_group": false,
		"users":    bson.M{"$all": []string{userA, userB}},
	}
	err := r.coll.FindOne(ctx, filter).Decode(&chat)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrChatNotFound
		}
		return nil, err
	}
	return &chat, nil
}

// FindByMember find every chat userID participates in, most recent first
func (r *chatRepository) FindByMember(ctx context.Context, userID string) ([]domain.Chat, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{"users": userID}, opts)
	if err != nil {
		return nil, err
	}
	var chats []domain.Chat
	if err := cur.All(ctx, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

// FindGroupsByMember find every group chat userID participates in
func (r *chatRepository) FindGroupsByMember(ctx context.Context, userID string) ([]domain.Chat, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{"users": userID, "is_group": true}, opts)
	if err != nil {
		return nil, err
	}
	var chats []domain.Chat
	if err := cur.All(ctx, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

// UpdateChat persist the full mutable state of a chat document
func (r *chatRepository) UpdateChat(ctx context.Context, chat *domain.Chat) error {
	chat.UpdatedAt = time.Now().Unix()
	update := bson.M{"$set": bson.M{
		"name":            chat.Name,
		"group_icon":      chat.GroupIcon,
		"description":     chat.Description,
		"users":           chat.Users,
		"owner":           chat.Owner,
		"admins":          chat.Admins,
		"muted_users":     chat.MutedUsers,
		"pinned_messages": chat.PinnedMessages,
		"updated_at":      chat.UpdatedAt,
	}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": chat.ID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrChatNotFound
	}
	return nil
}

// UpdateLatestMessage bump the latest-message pointer and the updated_at sort key
func (r *chatRepository) UpdateLatestMessage(ctx context.Context, chatID, messageID string) error {
	update := bson.M{"$set": bson.M{
		"latest_message_id": messageID,
		"updated_at":        time.Now().Unix(),
	}}
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": chatID}, update)
	return err
}

// DeleteChat remove a chat document
func (r *chatRepository) DeleteChat(ctx context.Context, chatID string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": chatID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrChatNotFound
	}
	return nil
}
