package app

import (
	"context"
	"sync"

	"realtime_chat_service/internal/chat/domain"
	"realtime_chat_service/internal/chat/repository"
	"realtime_chat_service/pkg/logger"

	"go.uber.org/zap"
)

// Session one live websocket connection able to receive events
type Session interface {
	Send(event domain.Event) error
}

// DeliveryBackfiller marks everything pending for a user as delivered. The
// presence registry calls it when a user comes online.
type DeliveryBackfiller interface {
	BackfillDelivery(ctx context.Context, userID string) error
}

// PresenceRegistry tracks which users hold a live connection. One session per
// user, last registration wins; a stale unregister from a replaced connection
// is ignored. All state behind one mutex, injected rather than global.
type PresenceRegistry struct {
	mu       sync.Mutex
	sessions map[string]Session

	broadcaster repository.Broadcaster
	backfill    DeliveryBackfiller
}

// NewPresenceRegistry create a PresenceRegistry; backfill may be nil
func NewPresenceRegistry(broadcaster repository.Broadcaster, backfill DeliveryBackfiller) *PresenceRegistry {
	return &PresenceRegistry{
		sessions:    make(map[string]Session),
		broadcaster: broadcaster,
		backfill:    backfill,
	}
}

// Register bind userID to session. Announces the user online, replays the
// current online snapshot to the new session, then backfills pending
// deliveries. The snapshot and backfill are best effort.
func (p *PresenceRegistry) Register(ctx context.Context, userID string, session Session) {
	p.mu.Lock()
	p.sessions[userID] = session
	online := p.onlineLocked()
	p.mu.Unlock()

	if err := p.broadcaster.PublishPresence(domain.Event{
		Name:    domain.EventUserOnline,
		Payload: domain.PresenceNotice{UserID: userID},
	}); err != nil {
		logger.Log.Warn("presence publish failed", zap.String("userID", userID), zap.Error(err))
	}

	for _, id := range online {
		if id == userID {
			continue
		}
		if err := session.Send(domain.Event{
			Name:    domain.EventUserOnline,
			Payload: domain.PresenceNotice{UserID: id},
		}); err != nil {
			logger.Log.Warn("presence snapshot send failed", zap.String("userID", userID), zap.Error(err))
			break
		}
	}

	if p.backfill != nil {
		if err := p.backfill.BackfillDelivery(ctx, userID); err != nil {
			logger.Log.Warn("delivery backfill failed", zap.String("userID", userID), zap.Error(err))
		}
	}
}

// Unregister drop the binding, but only if session is still the current one.
// A reconnect replaces the session first, so the old connection's teardown
// must not knock the new one offline.
func (p *PresenceRegistry) Unregister(userID string, session Session) {
	p.mu.Lock()
	current, ok := p.sessions[userID]
	if !ok || current != session {
		p.mu.Unlock()
		return
	}
	delete(p.sessions, userID)
	p.mu.Unlock()

	if err := p.broadcaster.PublishPresence(domain.Event{
		Name:    domain.EventUserOffline,
		Payload: domain.PresenceNotice{UserID: userID},
	}); err != nil {
		logger.Log.Warn("presence publish failed", zap.String("userID", userID), zap.Error(err))
	}
}

// IsOnline report whether userID holds a live session
func (p *PresenceRegistry) IsOnline(userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.sessions[userID]
	return ok
}

// OnlineUsers snapshot of every user currently online
func (p *PresenceRegistry) OnlineUsers() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.onlineLocked()
}

func (p *PresenceRegistry) onlineLocked() []string {
	ids := make([]string, 0, len(p.sessions))
	for id := range p.sessions {
		ids = append(ids, id)
	}
	return ids
}
