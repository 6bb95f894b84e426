package app

import (
	"context"
	"sync"
	"time"

	"realtime_chat_service/pkg/logger"

	"go.uber.org/zap"
)

// DedupFilter remembers recently relayed message ids so a message fanned out
// by several of its recipients is only processed once. The whole seen set is
// cleared in bulk every window; a retry arriving after the clear is treated
// as new, which only costs a duplicate relay.
type DedupFilter struct {
	mu     sync.Mutex
	seen   map[string]struct{}
	window time.Duration
}

// NewDedupFilter create a DedupFilter with the given clear window
func NewDedupFilter(window time.Duration) *DedupFilter {
	return &DedupFilter{
		seen:   make(map[string]struct{}),
		window: window,
	}
}

// ShouldProcess record messageID and report whether it is the first sighting
func (f *DedupFilter) ShouldProcess(messageID string) bool {
	if messageID == "" {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.seen[messageID]; ok {
		return false
	}
	f.seen[messageID] = struct{}{}
	return true
}

// Start run the periodic bulk clear until ctx is cancelled
func (f *DedupFilter) Start(ctx context.Context) {
	ticker := time.NewTicker(f.window)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				f.mu.Lock()
				n := len(f.seen)
				f.seen = make(map[string]struct{})
				f.mu.Unlock()
				if n > 0 {
					logger.Log.Debug("dedup filter cleared", zap.Int("entries", n))
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Size current number of remembered ids
func (f *DedupFilter) Size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}
