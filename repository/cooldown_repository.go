package repository

import (
	"context"
	"time"
)

// CooldownStore is the check-and-set gate behind notification dedup.
//
// Acquire reports whether key may fire at now: true when the key has no
// entry or its last firing is at least one window old, in which case now is
// recorded as the new firing time. The check and the write are atomic.
type CooldownStore interface {
	Acquire(ctx context.Context, key string, now time.Time) (bool, error)
}
