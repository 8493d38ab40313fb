package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCooldownStore shares the cooldown gate between watcher replicas.
//
// Each key is a SET NX with the window as TTL: the first writer wins and
// Redis expires the entry when the window closes. Expiry follows the Redis
// server clock, not the now passed to Acquire.
type RedisCooldownStore struct {
	client redis.Cmdable
	prefix string
	window time.Duration
}

// NewRedisCooldownStore wraps client; keys are stored as prefix+key.
func NewRedisCooldownStore(client redis.Cmdable, prefix string, window time.Duration) *RedisCooldownStore {
	return &RedisCooldownStore{client: client, prefix: prefix, window: window}
}

// Acquire implements CooldownStore.
func (s *RedisCooldownStore) Acquire(ctx context.Context, key string, now time.Time) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.prefix+key, now.UnixMilli(), s.window).Result()
	if err != nil {
		return false, fmt.Errorf("cooldown acquire %s: %w", key, err)
	}
	return ok, nil
}
