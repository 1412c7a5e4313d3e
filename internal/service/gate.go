package service

import (
	"math"
	"sync"
	"time"
)

// IntervalGate admits at most one event per key per interval, based on the
// last admitted timestamp held in memory. It is process-local and resets
// on restart.
type IntervalGate struct {
	interval time.Duration
	now      func() time.Time

	mu   sync.Mutex
	last map[string]time.Time
}

// NewIntervalGate creates a gate. A nil now uses time.Now.
func NewIntervalGate(interval time.Duration, now func() time.Time) *IntervalGate {
	if now == nil {
		now = time.Now
	}
	return &IntervalGate{
		interval: interval,
		now:      now,
		last:     make(map[string]time.Time),
	}
}

// Allow records the current time for key and returns true when the
// interval has elapsed since the last admitted event. Otherwise it returns
// false and the time left to wait.
func (g *IntervalGate) Allow(key string) (bool, time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if last, ok := g.last[key]; ok {
		if elapsed := now.Sub(last); elapsed < g.interval {
			return false, g.interval - elapsed
		}
	}
	g.last[key] = now
	return true, 0
}

// Reset forgets key so the next Allow succeeds.
func (g *IntervalGate) Reset(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.last, key)
}

// Interval returns the configured minimum interval.
func (g *IntervalGate) Interval() time.Duration {
	return g.interval
}

func ceilSeconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}
