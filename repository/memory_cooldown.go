package repository

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/akinalp/boardwatch/pkg/cache"
)

// MemoryCooldownStore keeps cooldown entries in a bounded LRU. Entries
// expire one window after they fired; when capacity is reached the least
// recently touched key is dropped first.
//
// capacity must exceed the number of distinct keys that can fire within one
// window. A key evicted while its window is still open can fire again before
// the window ends; each such eviction is logged at Warn and counted.
type MemoryCooldownStore struct {
	window  time.Duration
	entries *cache.LRU[string, time.Time]
	log     *zap.Logger

	liveEvictions atomic.Int64
}

// NewMemoryCooldownStore creates a store holding at most capacity keys.
func NewMemoryCooldownStore(window time.Duration, capacity int, clk clock.Clock, log *zap.Logger) *MemoryCooldownStore {
	if log == nil {
		log = zap.NewNop()
	}
	s := &MemoryCooldownStore{
		window:  window,
		entries: cache.New[string, time.Time](capacity, window, clk),
		log:     log.Named("cooldown"),
	}
	s.entries.OnEvict(func(key string, firedAt time.Time) {
		s.liveEvictions.Add(1)
		s.log.Warn("cooldown entry evicted inside its window; raise COOLDOWN_CAPACITY",
			zap.String("key", key),
			zap.Time("fired_at", firedAt),
			zap.Int("capacity", capacity))
	})
	return s
}

// Acquire implements CooldownStore.
func (s *MemoryCooldownStore) Acquire(_ context.Context, key string, now time.Time) (bool, error) {
	fired := false
	s.entries.Update(key, func(last time.Time, found bool) (time.Time, bool) {
		if found && now.Sub(last) < s.window {
			return last, false
		}
		fired = true
		return now, true
	})
	return fired, nil
}

// LastFired returns when key last fired.
func (s *MemoryCooldownStore) LastFired(key string) (time.Time, bool) {
	return s.entries.Get(key)
}

// LiveEvictions returns how many entries capacity evicted before their
// window closed.
func (s *MemoryCooldownStore) LiveEvictions() int64 {
	return s.liveEvictions.Load()
}

// Prune drops expired entries and returns how many were removed.
func (s *MemoryCooldownStore) Prune() int {
	return s.entries.Prune()
}
