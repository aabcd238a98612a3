package web

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Window(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)
	defer rl.close()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.allow("1.1.1.1"))
	assert.True(t, rl.allow("1.1.1.1"))
	assert.False(t, rl.allow("1.1.1.1"))
	assert.True(t, rl.allow("2.2.2.2"), "limits are per IP")

	now = now.Add(time.Minute + time.Second)
	assert.True(t, rl.allow("1.1.1.1"), "a new window refills")
}

func TestRateLimiter_Sweep(t *testing.T) {
	rl := newRateLimiter(5, time.Minute)
	defer rl.close()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	rl.allow("stale")

	now = now.Add(3 * time.Minute)
	rl.allow("fresh")
	rl.sweep()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.visitors, "stale")
	assert.Contains(t, rl.visitors, "fresh")
}

func TestRateLimiter_CloseIsIdempotent(t *testing.T) {
	rl := newRateLimiter(1, time.Minute)
	rl.close()
	rl.close()
}
