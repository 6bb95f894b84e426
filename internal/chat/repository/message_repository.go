package repository

import (
	"context"
	"time"

	"realtime_chat_service/internal/chat/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageRepository definition message documents and their receipt state
type MessageRepository interface {
	CreateMessage(ctx context.Context, msg *domain.Message) error
	FindByID(ctx context.Context, messageID string) (*domain.Message, error)
	FindByChat(ctx context.Context, chatID string) ([]domain.Message, error)
	Search(ctx context.Context, chatID, keyword string) ([]domain.Message, error)
	// FindUndelivered find messages in chatID not yet delivered to userID and
	// not sent by them. Used by the presence and join-chat backfills.
	FindUndelivered(ctx context.Context, chatID, userID string) ([]domain.Message, error)
	FindUnread(ctx context.Context, chatID, userID string) ([]domain.Message, error)
	// UpdateStatus merge the receipt sets with $addToSet so concurrent marks
	// from different recipients never shrink each other's writes.
	UpdateStatus(ctx context.Context, msg *domain.Message) error
	UpdateReactions(ctx context.Context, messageID string, reactions []domain.Reaction) error
	DeleteByChat(ctx context.Context, chatID string) error
}

type messageRepository struct {
	coll *mongo.Collection
}

// NewMongoMessageRepository create a mongo backed MessageRepository
func NewMongoMessageRepository(db *mongo.Database) MessageRepository {
	return &messageRepository{
		coll: db.Collection("messages"),
	}
}

// CreateMessage insert a message document, assigning its id
func (r *messageRepository) CreateMessage(ctx context.Context, msg *domain.Message) error {
	now := time.Now().Unix()
	msg.CreatedAt = now
	msg.UpdatedAt = now
	if msg.ID == "" {
		msg.ID = primitive.NewObjectID().Hex()
	}
	if msg.DeliveredBy == nil {
		msg.DeliveredBy = []string{}
	}
	if msg.ReadBy == nil {
		msg.ReadBy = []string{}
	}
	_, err := r.coll.InsertOne(ctx, msg)
	return err
}

// FindByID find one message by id
func (r *messageRepository) FindByID(ctx context.Context, messageID string) (*domain.Message, error) {
	var msg domain.Message
	err := r.coll.FindOne(ctx, bson.M{"_id": messageID}).Decode(&msg)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrMessageNotFound
		}
		return nil, err
	}
	return &msg, nil
}

// FindByChat find all messages of a chat in send order
func (r *messageRepository) FindByChat(ctx context.Context, chatID string) ([]domain.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.M{"chat_id": chatID}, opts)
	if err != nil {
		return nil, err
	}
	var msgs []domain.Message
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// Search case-insensitive substring match over message content within a chat
func (r *messageRepository) Search(ctx context.Context, chatID, keyword string) ([]domain.Message, error) {
	filter := bson.M{
		"chat_id": chatID,
		"content": bson.M{"$regex": primitive.Regex{Pattern: keyword, Options: "i"}},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var msgs []domain.Message
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// FindUndelivered messages userID has not received and did not send
func (r *messageRepository) FindUndelivered(ctx context.Context, chatID, userID string) ([]domain.Message, error) {
	filter := bson.M{
		"chat_id":      chatID,
		"sender_id":    bson.M{"$ne": userID},
		"delivered_by": bson.M{"$ne": userID},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var msgs []domain.Message
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// FindUnread messages userID has not read and did not send
func (r *messageRepository) FindUnread(ctx context.Context, chatID, userID string) ([]domain.Message, error) {
	filter := bson.M{
		"chat_id":   chatID,
		"sender_id": bson.M{"$ne": userID},
		"read_by":   bson.M{"$ne": userID},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var msgs []domain.Message
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// UpdateStatus merge receipt sets and write the derived read flag
func (r *messageRepository) UpdateStatus(ctx context.Context, msg *domain.Message) error {
	update := bson.M{
		"$addToSet": bson.M{
			"delivered_by": bson.M{"$each": msg.DeliveredBy},
			"read_by":      bson.M{"$each": msg.ReadBy},
		},
		"$set": bson.M{
			"is_read":    msg.IsRead,
			"updated_at": time.Now().Unix(),
		},
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": msg.ID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrMessageNotFound
	}
	return nil
}

// UpdateReactions replace the reaction list of a message
func (r *messageRepository) UpdateReactions(ctx context.Context, messageID string, reactions []domain.Reaction) error {
	update := bson.M{"$set": bson.M{
		"reactions":  reactions,
		"updated_at": time.Now().Unix(),
	}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": messageID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrMessageNotFound
	}
	return nil
}

// DeleteByChat remove every message of a deleted chat
func (r *messageRepository) DeleteByChat(ctx context.Context, chatID string) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{"chat_id": chatID})
	return err
}
