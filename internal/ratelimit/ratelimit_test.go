package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allowed(rl *KeyedRateLimiter, key string, attempts int) int {
	n := 0
	for range attempts {
		if rl.Allow(key) {
			n++
		}
	}
	return n
}

func TestAllow_BurstThenRefuse(t *testing.T) {
	tests := []struct {
		name     string
		burst    int
		attempts int
		want     int
	}{
		{"within burst", 3, 3, 3},
		{"past burst", 2, 5, 2},
		{"single token", 1, 4, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// A near-zero refill rate keeps the result independent of test speed.
			rl := New(0.001, tt.burst)
			t.Cleanup(rl.Stop)

			assert.Equal(t, tt.want, allowed(rl, "mluukkai@example.com", tt.attempts))
		})
	}
}

func TestAllow_KeysAreIndependent(t *testing.T) {
	rl := New(0.001, 1)
	t.Cleanup(rl.Stop)

	require.True(t, rl.Allow("ada@example.com"))
	assert.False(t, rl.Allow("ada@example.com"))

	assert.True(t, rl.Allow("grace@example.com"), "another email has its own bucket")
	assert.Equal(t, 2, rl.Len())
}

func TestPerMinute(t *testing.T) {
	rl := PerMinute(3)
	t.Cleanup(rl.Stop)

	assert.Equal(t, 3, allowed(rl, "ada@example.com", 10))
}

func TestEvictIdle(t *testing.T) {
	rl := New(0.001, 1)
	t.Cleanup(rl.Stop)

	rl.Allow("stale@example.com")
	rl.Allow("fresh@example.com")
	require.Equal(t, 2, rl.Len())

	rl.mu.Lock()
	rl.limiters["stale@example.com"].lastSeen = time.Now().Add(-2 * rl.idleTTL)
	rl.mu.Unlock()

	rl.evictIdle(time.Now())

	assert.Equal(t, 1, rl.Len())
	// An evicted key starts over with a full bucket.
	assert.True(t, rl.Allow("stale@example.com"))
	assert.False(t, rl.Allow("fresh@example.com"))
}

func TestStop_Idempotent(t *testing.T) {
	rl := New(1, 1)
	assert.NotPanics(t, func() {
		rl.Stop()
		rl.Stop()
	})
}
