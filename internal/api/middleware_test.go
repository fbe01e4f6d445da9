package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Window(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter()
	rl.now = func() time.Time { return now }
	rl.lastSweep = now

	allowed, visitor := rl.Allow("1.2.3.4", 2, time.Minute)
	assert.True(t, allowed)
	assert.Equal(t, 1, visitor.Remaining)

	allowed, _ = rl.Allow("1.2.3.4", 2, time.Minute)
	assert.True(t, allowed)

	allowed, visitor = rl.Allow("1.2.3.4", 2, time.Minute)
	assert.False(t, allowed)
	assert.Equal(t, 0, visitor.Remaining)

	// other clients have their own window
	allowed, _ = rl.Allow("5.6.7.8", 2, time.Minute)
	assert.True(t, allowed)

	now = now.Add(61 * time.Second)
	allowed, _ = rl.Allow("1.2.3.4", 2, time.Minute)
	assert.True(t, allowed)
}

func TestRateLimiter_SweepsExpiredVisitors(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter()
	rl.now = func() time.Time { return now }
	rl.lastSweep = now

	rl.Allow("a", 5, time.Minute)
	rl.Allow("b", 5, time.Minute)
	assert.Equal(t, 2, rl.Len())

	// expired but not yet due for a sweep
	now = now.Add(2 * time.Minute)
	rl.Allow("c", 5, time.Minute)
	assert.Equal(t, 3, rl.Len())

	now = now.Add(sweepInterval)
	rl.Allow("d", 5, time.Minute)
	assert.Equal(t, 1, rl.Len())
}
