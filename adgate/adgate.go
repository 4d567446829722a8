// Package adgate throttles ad impressions per user and slot. The gate is
// constructed by the application root and handed to whoever needs it; it
// keeps no package-level state.
package adgate

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const entryTTL = 30 * time.Minute

type entry struct {
	limiter *rate.Limiter
	expires time.Time
}

// Gate decides whether an ad slot may render for a user right now. Each
// (user, slot) pair gets its own token bucket; idle pairs are evicted.
type Gate struct {
	interval time.Duration
	burst    int

	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

// New creates a Gate allowing one impression per interval with the given
// burst. burst < 1 is treated as 1.
func New(interval time.Duration, burst int) *Gate {
	if burst < 1 {
		burst = 1
	}
	return &Gate{
		interval: interval,
		burst:    burst,
		entries:  map[string]*entry{},
		now:      time.Now,
	}
}

// Allow reports whether userID may be shown an ad in slot now.
func (g *Gate) Allow(userID, slot string) bool {
	key := userID + "|" + slot

	g.mu.Lock()
	g.sweepLocked()
	e, ok := g.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(rate.Every(g.interval), g.burst)}
		g.entries[key] = e
	}
	e.expires = g.now().Add(entryTTL)
	g.mu.Unlock()

	return e.limiter.Allow()
}

// Interval returns the configured minimum spacing between impressions.
func (g *Gate) Interval() time.Duration {
	return g.interval
}

func (g *Gate) sweepLocked() {
	now := g.now()
	for key, e := range g.entries {
		if now.After(e.expires) {
			delete(g.entries, key)
		}
	}
}
