package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"realtime_chat_service/internal/chat/domain"
	"realtime_chat_service/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ChatChannel redis channel carrying events for every member of a chat
func ChatChannel(chatID string) string {
	return fmt.Sprintf("chat:room:%s", chatID)
}

// UserChannel redis channel carrying events for a single user
func UserChannel(userID string) string {
	return fmt.Sprintf("chat:user:%s", userID)
}

// PresenceChannel redis channel carrying online/offline events
const PresenceChannel = "chat:presence"

// Broadcaster definition event fan-out. Publish failures are reported but a
// committed mutation is never rolled back because its broadcast failed.
type Broadcaster interface {
	PublishToChat(chatID string, event domain.Event) error
	PublishToUser(userID string, event domain.Event) error
	PublishPresence(event domain.Event) error
}

// Subscriber definition the receiving side of the fan-out, one subscription
// per websocket connection interest
type Subscriber interface {
	Subscribe(ctx context.Context, channel string, handler func(event domain.Event)) error
}

// RedisBroadcaster fan-out over redis pub/sub with an optional kafka journal
type RedisBroadcaster struct {
	client  *redis.Client
	journal *kafka.Writer
	ctx     context.Context
}

// NewRedisBroadcaster create a RedisBroadcaster; journal may be nil
func NewRedisBroadcaster(client *redis.Client, journal *kafka.Writer) *RedisBroadcaster {
	return &RedisBroadcaster{
		client:  client,
		journal: journal,
		ctx:     context.Background(),
	}
}

// PublishToChat publish an event to every subscriber of a chat room
func (r *RedisBroadcaster) PublishToChat(chatID string, event domain.Event) error {
	return r.publish(ChatChannel(chatID), event)
}

// PublishToUser publish an event to a user's own channel
func (r *RedisBroadcaster) PublishToUser(userID string, event domain.Event) error {
	return r.publish(UserChannel(userID), event)
}

// PublishPresence publish an online/offline event to the shared presence channel
func (r *RedisBroadcaster) PublishPresence(event domain.Event) error {
	return r.publish(PresenceChannel, event)
}

func (r *RedisBroadcaster) publish(channel string, event domain.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := r.client.Publish(r.ctx, channel, data).Err(); err != nil {
		return err
	}
	r.appendJournal(channel, data)
	return nil
}

// appendJournal mirror the event into kafka for offline consumers. Best
// effort: the live fan-out already happened, a journal miss only logs.
func (r *RedisBroadcaster) appendJournal(channel string, data []byte) {
	if r.journal == nil {
		return
	}
	err := r.journal.WriteMessages(r.ctx, kafka.Message{
		Key:   []byte(channel),
		Value: data,
	})
	if err != nil {
		logger.Log.Warn("kafka journal append failed",
			zap.String("channel", channel),
			zap.Error(err))
	}
}

// Subscribe listen on channel until ctx is cancelled, decoding each payload
// into an Event and handing it to handler
func (r *RedisBroadcaster) Subscribe(ctx context.Context, channel string, handler func(event domain.Event)) error {
	sub := r.client.Subscribe(r.ctx, channel)
	go func() {
		ch := sub.Channel()
		for {
			select {
			case m, ok := <-ch:
				if !ok {
					return
				}
				var event domain.Event
				if err := json.Unmarshal([]byte(m.Payload), &event); err != nil {
					logger.Log.Error("broadcast decode failed",
						zap.String("channel", channel),
						zap.Error(err))
					continue
				}
				handler(event)
			case <-ctx.Done():
				logger.Log.Info(fmt.Sprintf("%s , sub close", channel))
				sub.Close()
				return
			}
		}
	}()
	return nil
}
