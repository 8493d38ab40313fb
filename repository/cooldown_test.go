package repository

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMemoryCooldownStore(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMock()
	store := NewMemoryCooldownStore(5*time.Minute, 100, clk, nil)

	acquire := func(key string) bool {
		t.Helper()
		ok, err := store.Acquire(ctx, key, clk.Now())
		if err != nil {
			t.Fatalf("Acquire(%q) error: %v", key, err)
		}
		return ok
	}

	if !acquire("k") {
		t.Fatal("first Acquire should fire")
	}
	if last, ok := store.LastFired("k"); !ok || !last.Equal(clk.Now()) {
		t.Fatalf("LastFired() = %v, %v", last, ok)
	}

	clk.Add(10 * time.Second)
	if acquire("k") {
		t.Fatal("Acquire inside the window should be suppressed")
	}
	if !acquire("other") {
		t.Fatal("an unrelated key should fire")
	}

	clk.Add(5*time.Minute - 10*time.Second)
	if !acquire("k") {
		t.Fatal("Acquire exactly one window later should fire")
	}

	clk.Add(time.Minute)
	if acquire("k") {
		t.Fatal("window restarts from the last firing")
	}
}

func TestMemoryCooldownStoreCapacityEviction(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMock()
	core, logs := observer.New(zap.WarnLevel)
	store := NewMemoryCooldownStore(time.Minute, 2, clk, zap.New(core))

	for _, key := range []string{"a", "b", "c"} {
		if ok, _ := store.Acquire(ctx, key, clk.Now()); !ok {
			t.Fatalf("Acquire(%q) should fire", key)
		}
	}
	if _, ok := store.LastFired("a"); ok {
		t.Error("oldest key should have been evicted")
	}
	if store.LiveEvictions() != 1 {
		t.Errorf("LiveEvictions() = %d, want 1", store.LiveEvictions())
	}
	warned := logs.FilterField(zap.String("key", "a")).Len()
	if warned != 1 {
		t.Errorf("eviction of a live key logged %d times, want 1", warned)
	}

	// The evicted key fires again inside its window.
	clk.Add(10 * time.Second)
	if ok, _ := store.Acquire(ctx, "a", clk.Now()); !ok {
		t.Error("evicted key should fire again")
	}
	if store.LiveEvictions() != 2 {
		t.Errorf("LiveEvictions() = %d, want 2 (b pushed out)", store.LiveEvictions())
	}

	clk.Add(2 * time.Minute)
	if n := store.Prune(); n != 2 {
		t.Errorf("Prune() = %d, want 2", n)
	}
}
