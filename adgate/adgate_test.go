package adgate

import (
	"testing"
	"time"
)

func TestGateThrottlesPerUserAndSlot(t *testing.T) {
	g := New(time.Hour, 1)

	if !g.Allow("u1", "banner") {
		t.Fatal("first impression should be allowed")
	}
	if g.Allow("u1", "banner") {
		t.Fatal("second impression inside the interval should be denied")
	}
	// Other slots and users have their own buckets.
	if !g.Allow("u1", "sidebar") {
		t.Fatal("different slot should be allowed")
	}
	if !g.Allow("u2", "banner") {
		t.Fatal("different user should be allowed")
	}
}

func TestGateBurst(t *testing.T) {
	g := New(time.Hour, 3)
	for i := 0; i < 3; i++ {
		if !g.Allow("u1", "banner") {
			t.Fatalf("impression %d within burst should be allowed", i+1)
		}
	}
	if g.Allow("u1", "banner") {
		t.Fatal("impression beyond burst should be denied")
	}
}

func TestGateSweepsIdleEntries(t *testing.T) {
	g := New(time.Hour, 1)
	g.Allow("u1", "banner")

	// Pretend the entry has been idle past its TTL.
	g.now = func() time.Time { return time.Now().Add(entryTTL + time.Minute) }
	g.Allow("u2", "banner")

	g.mu.Lock()
	_, ok := g.entries["u1|banner"]
	g.mu.Unlock()
	if ok {
		t.Fatal("idle entry survived the sweep")
	}
}
