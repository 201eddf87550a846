package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryLimiter_Allow(t *testing.T) {
	l := NewMemoryLimiter()
	defer l.Close()

	current := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return current }

	for i := 1; i <= 3; i++ {
		d := l.Allow("ip:1.2.3.4", 3, time.Minute)
		assert.True(t, d.Allowed, "request %d should pass", i)
		assert.Equal(t, i, d.Count)
	}

	d := l.Allow("ip:1.2.3.4", 3, time.Minute)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining(3))

	other := l.Allow("ip:5.6.7.8", 3, time.Minute)
	assert.True(t, other.Allowed, "keys are counted independently")

	current = current.Add(61 * time.Second)
	d = l.Allow("ip:1.2.3.4", 3, time.Minute)
	assert.True(t, d.Allowed, "a new window starts after expiry")
	assert.Equal(t, 1, d.Count)
	assert.Equal(t, 2, d.Remaining(3))
}

func TestMemoryLimiter_DisabledLimit(t *testing.T) {
	l := NewMemoryLimiter()
	defer l.Close()

	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow("k", 0, time.Minute).Allowed)
	}
}

func TestMemoryLimiter_Sweep(t *testing.T) {
	l := NewMemoryLimiter()
	defer l.Close()

	start := time.Now()
	l.now = func() time.Time { return start }
	l.Allow("a", 5, time.Second)
	l.Allow("b", 5, time.Hour)

	l.sweep(start.Add(2 * time.Second))

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.entries, "a")
	assert.Contains(t, l.entries, "b")
}

func TestMemoryLimiter_CloseTwice(t *testing.T) {
	l := NewMemoryLimiter()
	assert.NotPanics(t, func() {
		l.Close()
		l.Close()
	})
}
