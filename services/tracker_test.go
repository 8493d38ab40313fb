package services

import (
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/akinalp/boardwatch/models"
)

func TestTrackerObserve(t *testing.T) {
	clk := clock.NewMock()
	tr := NewTracker[models.RoleSet](10, 0, clk)
	key := MembershipKey("u1", "b1")

	if _, found := tr.Observe(key, models.NewRoleSet(models.RoleViewer), clk.Now()); found {
		t.Fatal("first Observe should report no prior")
	}

	clk.Add(time.Second)
	prior, found := tr.Observe(key, models.NewRoleSet(models.RoleAdmin), clk.Now())
	if !found || prior.Value != models.NewRoleSet(models.RoleViewer) {
		t.Fatalf("prior = %v, %v; want viewer", prior.Value, found)
	}
	if prior.UpdatedAt.Equal(clk.Now()) {
		t.Error("prior should carry the earlier timestamp")
	}

	got, _ := tr.Get(key)
	if got.Value != models.NewRoleSet(models.RoleAdmin) {
		t.Errorf("stored = %v, want admin", got.Value)
	}
}

func TestTrackerSeedIsBaseline(t *testing.T) {
	clk := clock.NewMock()
	tr := NewTracker[models.RoleSet](10, 0, clk)
	key := MembershipKey("u1", "b1")

	tr.Seed(key, models.NewRoleSet(models.RoleEditor), clk.Now())
	prior, found := tr.Observe(key, models.NewRoleSet(models.RoleEditor), clk.Now())
	if !found || prior.Value != models.NewRoleSet(models.RoleEditor) {
		t.Fatalf("seeded prior = %v, %v", prior.Value, found)
	}
}

func TestTrackerMaxAge(t *testing.T) {
	clk := clock.NewMock()
	tr := NewTracker[[]string](10, time.Hour, clk)
	key := AssignmentKey("c1", "p1")

	tr.Observe(key, []string{"u1"}, clk.Now())
	clk.Add(2 * time.Hour)
	if _, found := tr.Observe(key, []string{"u1"}, clk.Now()); found {
		t.Error("entry older than max age should be forgotten")
	}
}

// Of N concurrent observers of one key, exactly one sees no prior.
func TestTrackerObserveIsAtomic(t *testing.T) {
	tr := NewTracker[int](0, 0, nil)
	const n = 64

	var wg sync.WaitGroup
	var mu sync.Mutex
	firsts := 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			if _, found := tr.Observe("k", v, time.Now()); !found {
				mu.Lock()
				firsts++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if firsts != 1 {
		t.Errorf("observers without prior = %d, want 1", firsts)
	}
}
