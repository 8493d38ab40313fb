package services

import (
	"time"

	"github.com/benbjohnson/clock"

	"github.com/akinalp/boardwatch/models"
	"github.com/akinalp/boardwatch/pkg/cache"
)

// Snapshot is the last observed value of a tracked entity.
type Snapshot[V any] struct {
	Value     V
	UpdatedAt time.Time
}

// Tracker remembers the last value seen per key so a pushed update can be
// compared with what came before it.
//
// Memory is bounded: at most capacity keys, and with maxAge > 0 entries
// older than maxAge are forgotten (the next update for that key then counts
// as first sight).
type Tracker[V any] struct {
	entries *cache.LRU[string, Snapshot[V]]
}

// NewTracker creates a tracker.
func NewTracker[V any](capacity int, maxAge time.Duration, clk clock.Clock) *Tracker[V] {
	return &Tracker[V]{entries: cache.New[string, Snapshot[V]](capacity, maxAge, clk)}
}

// Observe returns the snapshot stored for key before this call and commits
// current as the new one. Read and write are one atomic step: of two
// concurrent observers of the same key, exactly one sees the other's value
// as prior.
func (t *Tracker[V]) Observe(key string, current V, now time.Time) (prior Snapshot[V], found bool) {
	return t.entries.Swap(key, Snapshot[V]{Value: current, UpdatedAt: now})
}

// Seed records a baseline without reporting anything.
func (t *Tracker[V]) Seed(key string, value V, now time.Time) {
	t.entries.Set(key, Snapshot[V]{Value: value, UpdatedAt: now})
}

// Get returns the stored snapshot for key.
func (t *Tracker[V]) Get(key string) (Snapshot[V], bool) {
	return t.entries.Get(key)
}

// Len returns the number of tracked keys.
func (t *Tracker[V]) Len() int {
	return t.entries.Len()
}

// Prune drops entries older than maxAge.
func (t *Tracker[V]) Prune() int {
	return t.entries.Prune()
}

// MembershipTracker tracks role sets per (user, board).
type MembershipTracker = Tracker[models.RoleSet]

// AssignmentTracker tracks assignee lists per (card, property).
type AssignmentTracker = Tracker[[]string]

// MembershipKey is "{userId}-{boardId}".
func MembershipKey(userID, boardID string) string {
	return userID + "-" + boardID
}

// AssignmentKey is "{cardId}-{propertyId}".
func AssignmentKey(cardID, propertyID string) string {
	return cardID + "-" + propertyID
}
