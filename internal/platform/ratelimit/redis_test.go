package ratelimit

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisLimiter(t *testing.T) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	l, err := NewRedisLimiter(mr.Addr(), "", 0, nil)
	require.NoError(t, err)
	t.Cleanup(l.Close)
	return l, mr
}

func TestRedisLimiter_Allow(t *testing.T) {
	l, mr := newTestRedisLimiter(t)

	assert.True(t, l.Allow("ip:10.0.0.1", 2, time.Minute).Allowed)
	assert.True(t, l.Allow("ip:10.0.0.1", 2, time.Minute).Allowed)

	d := l.Allow("ip:10.0.0.1", 2, time.Minute)
	assert.False(t, d.Allowed)
	assert.Equal(t, 3, d.Count)

	ttl := mr.TTL(defaultKeyPrefix + "ip:10.0.0.1")
	assert.Equal(t, time.Minute, ttl)

	mr.FastForward(time.Minute + time.Second)
	d = l.Allow("ip:10.0.0.1", 2, time.Minute)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Count)
}

func TestRedisLimiter_FailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	l := NewRedisLimiterWithClient(client, nil)
	t.Cleanup(l.Close)

	mr.Close()

	d := l.Allow("ip:10.0.0.2", 1, time.Minute)
	assert.True(t, d.Allowed)
}

func TestNewRedisLimiter_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisLimiter(addr, "", 0, nil)
	assert.Error(t, err)
}
