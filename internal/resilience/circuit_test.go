package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreaker_StaysClosedBelowThreshold(t *testing.T) {
	b := NewBreaker(3, time.Minute, time.Minute)
	assert.False(t, b.RecordFailure())
	assert.False(t, b.RecordFailure())
	assert.False(t, b.Open())
}

func TestBreaker_OpensAtThreshold(t *testing.T) {
	b := NewBreaker(3, time.Minute, time.Minute)
	b.RecordFailure()
	b.RecordFailure()
	assert.True(t, b.RecordFailure())
	assert.True(t, b.Open())
}

func TestBreaker_SuccessResets(t *testing.T) {
	b := NewBreaker(2, time.Minute, time.Minute)
	b.RecordFailure()
	b.RecordSuccess()
	assert.False(t, b.RecordFailure())
	assert.False(t, b.Open())
}

func TestBreaker_ClosesAfterCooldown(t *testing.T) {
	now := time.Now()
	b := NewBreaker(1, time.Minute, time.Minute)
	b.nowFunc = func() time.Time { return now }

	b.RecordFailure()
	assert.True(t, b.Open())

	b.nowFunc = func() time.Time { return now.Add(2 * time.Minute) }
	assert.False(t, b.Open())
}

func TestBreaker_WindowResetsStaleFailures(t *testing.T) {
	now := time.Now()
	b := NewBreaker(2, time.Second, time.Minute)
	b.nowFunc = func() time.Time { return now }
	b.RecordFailure()

	// Second failure lands outside the window, so the count restarts.
	b.nowFunc = func() time.Time { return now.Add(5 * time.Second) }
	assert.False(t, b.RecordFailure())
	assert.False(t, b.Open())
}
