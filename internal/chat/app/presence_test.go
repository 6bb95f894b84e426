package app

import (
	"context"
	"sync"
	"testing"

	"realtime_chat_service/internal/chat/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// fakeSession collects pushed events
type fakeSession struct {
	mu     sync.Mutex
	events []domain.Event
}

func (s *fakeSession) Send(event domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *fakeSession) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for _, e := range s.events {
		names = append(names, e.Name)
	}
	return names
}

func TestPresenceRegistry_RegisterAnnouncesAndBackfills(t *testing.T) {
	broadcaster := new(MockBroadcaster)
	backfill := new(MockBackfiller)
	ctx := context.Background()

	broadcaster.On("PublishPresence", mock.MatchedBy(func(e domain.Event) bool {
		return e.Name == domain.EventUserOnline
	})).Return(nil)
	backfill.On("BackfillDelivery", ctx, "alice").Return(nil)

	reg := NewPresenceRegistry(broadcaster, backfill)
	reg.Register(ctx, "alice", &fakeSession{})

	assert.True(t, reg.IsOnline("alice"))
	broadcaster.AssertExpectations(t)
	backfill.AssertNumberOfCalls(t, "BackfillDelivery", 1)
}

func TestPresenceRegistry_SnapshotForNewSession(t *testing.T) {
	broadcaster := new(MockBroadcaster)
	backfill := new(MockBackfiller)
	ctx := context.Background()

	broadcaster.On("PublishPresence", mock.Anything).Return(nil)
	backfill.On("BackfillDelivery", ctx, mock.Anything).Return(nil)

	reg := NewPresenceRegistry(broadcaster, backfill)
	reg.Register(ctx, "alice", &fakeSession{})

	bobSession := &fakeSession{}
	reg.Register(ctx, "bob", bobSession)

	// bob's fresh session hears that alice is already online
	assert.Contains(t, bobSession.names(), domain.EventUserOnline)
	assert.ElementsMatch(t, []string{"alice", "bob"}, reg.OnlineUsers())
}

func TestPresenceRegistry_LastRegistrationWins(t *testing.T) {
	broadcaster := new(MockBroadcaster)
	ctx := context.Background()

	broadcaster.On("PublishPresence", mock.Anything).Return(nil)

	reg := NewPresenceRegistry(broadcaster, nil)
	old := &fakeSession{}
	fresh := &fakeSession{}
	reg.Register(ctx, "alice", old)
	reg.Register(ctx, "alice", fresh)

	// the replaced connection's teardown must not knock alice offline
	reg.Unregister("alice", old)
	assert.True(t, reg.IsOnline("alice"))

	reg.Unregister("alice", fresh)
	assert.False(t, reg.IsOnline("alice"))
}

func TestPresenceRegistry_UnregisterAnnouncesOffline(t *testing.T) {
	broadcaster := new(MockBroadcaster)
	ctx := context.Background()

	broadcaster.On("PublishPresence", mock.MatchedBy(func(e domain.Event) bool {
		return e.Name == domain.EventUserOnline
	})).Return(nil)
	broadcaster.On("PublishPresence", mock.MatchedBy(func(e domain.Event) bool {
		return e.Name == domain.EventUserOffline
	})).Return(nil)

	reg := NewPresenceRegistry(broadcaster, nil)
	session := &fakeSession{}
	reg.Register(ctx, "alice", session)
	reg.Unregister("alice", session)

	assert.False(t, reg.IsOnline("alice"))
	broadcaster.AssertExpectations(t)
}
