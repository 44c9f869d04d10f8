package cache

import (
	"testing"
	"time"

	candidatedomain "github.com/smallbiznis/canvass/internal/candidate/domain"
)

func TestTTLCacheExpiry(t *testing.T) {
	c := NewTTLCache[string, int]()

	c.Set("a", 1, time.Minute)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("expected hit, got %v %v", v, ok)
	}

	c.Set("b", 2, time.Nanosecond)
	time.Sleep(2 * time.Millisecond)
	if _, ok := c.Get("b"); ok {
		t.Fatal("expected expired entry to miss")
	}

	// Zero TTL never stores.
	c.Set("c", 3, 0)
	if _, ok := c.Get("c"); ok {
		t.Fatal("expected zero-ttl set to be dropped")
	}

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected deleted entry to miss")
	}
}

func TestOwnerResolverCache(t *testing.T) {
	c := NewOwnerResolverCache()

	if _, ok := c.GetCandidate("cand-1"); ok {
		t.Fatal("expected empty cache miss")
	}

	owner := "user-1"
	c.SetCandidate("cand-1", &candidatedomain.Candidate{ID: "cand-1", OwnerUserID: &owner})
	cached, ok := c.GetCandidate("cand-1")
	if !ok || cached.OwnerUserID == nil || *cached.OwnerUserID != "user-1" {
		t.Fatalf("unexpected cached candidate: %+v", cached)
	}

	// Nil candidates are never cached.
	c.SetCandidate("cand-2", nil)
	if _, ok := c.GetCandidate("cand-2"); ok {
		t.Fatal("expected nil candidate not cached")
	}
}
