package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix = "taskflow:ratelimit:"
	redisOpTimeout   = 250 * time.Millisecond
)

// RedisLimiter shares fixed-window counters between replicas through Redis.
// Redis failures fail open: the request is allowed and the error logged.
type RedisLimiter struct {
	client  *redis.Client
	logger  *slog.Logger
	prefix  string
	timeout time.Duration
}

var _ Limiter = (*RedisLimiter)(nil)

// NewRedisLimiter connects to Redis and verifies the connection with PING.
func NewRedisLimiter(addr, password string, db int, logger *slog.Logger) (*RedisLimiter, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	return NewRedisLimiterWithClient(client, logger), nil
}

// NewRedisLimiterWithClient wraps an existing client. The limiter takes
// ownership and closes the client on Close.
func NewRedisLimiterWithClient(client *redis.Client, logger *slog.Logger) *RedisLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLimiter{
		client:  client,
		logger:  logger.With(slog.String("component", "redis_rate_limiter")),
		prefix:  defaultKeyPrefix,
		timeout: redisOpTimeout,
	}
}

// Allow increments the window counter for key, setting its expiry on the
// first hit.
func (l *RedisLimiter) Allow(key string, limit int, win time.Duration) Decision {
	if limit <= 0 {
		return Decision{Allowed: true}
	}
	if win <= 0 {
		win = time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	redisKey := l.prefix + key
	counter, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		l.logError("incr", err)
		return Decision{Allowed: true}
	}
	if counter == 1 {
		if err := l.client.Expire(ctx, redisKey, win).Err(); err != nil {
			l.logError("expire", err)
		}
	}

	ttl, err := l.client.TTL(ctx, redisKey).Result()
	if err != nil || ttl <= 0 {
		ttl = win
	}

	return Decision{
		Allowed:   int(counter) <= limit,
		Count:     int(counter),
		WindowEnd: time.Now().Add(ttl),
	}
}

// Close releases the Redis client.
func (l *RedisLimiter) Close() {
	if l.client != nil {
		_ = l.client.Close()
	}
}

func (l *RedisLimiter) logError(op string, err error) {
	l.logger.Error("redis rate limiter error", slog.String("op", op), slog.Any("error", err))
}
