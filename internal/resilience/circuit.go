package resilience

import (
	"sync"
	"time"
)

// Breaker tracks consecutive failures of an upstream and short-circuits
// calls for a cooldown period once a threshold is reached. It guards the
// expensive fetch tiers so a flaky stealth endpoint fails over to the
// browser tier immediately instead of burning a timeout per page.
type Breaker struct {
	mu          sync.Mutex
	failures    int
	lastFailure time.Time
	openUntil   time.Time

	threshold int           // consecutive failures to trip
	window    time.Duration // failures must occur within this window
	cooldown  time.Duration // how long the circuit stays open

	nowFunc func() time.Time
}

// NewBreaker creates a Breaker that opens after threshold consecutive
// failures within window, and stays open for cooldown.
func NewBreaker(threshold int, window, cooldown time.Duration) *Breaker {
	return &Breaker{
		threshold: threshold,
		window:    window,
		cooldown:  cooldown,
		nowFunc:   time.Now,
	}
}

// Open reports whether the circuit is currently open (calls should be skipped).
func (b *Breaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nowFunc().Before(b.openUntil)
}

// RecordFailure counts a failure, tripping the circuit at the threshold.
// It returns true if this failure opened the circuit.
func (b *Breaker) RecordFailure() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.nowFunc()
	if now.Sub(b.lastFailure) > b.window {
		b.failures = 0
	}
	b.failures++
	b.lastFailure = now
	if b.failures >= b.threshold {
		b.openUntil = now.Add(b.cooldown)
		return true
	}
	return false
}

// RecordSuccess resets the consecutive-failure count.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
}
