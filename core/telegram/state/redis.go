package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	backend "github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "kolgidrat:session:"

// RedisOption configures the Redis backend.
type RedisOption func(*redisConfig)

type redisConfig struct {
	prefix string
	ttl    time.Duration
}

// WithPrefix sets the key prefix for sessions.
func WithPrefix(prefix string) RedisOption {
	return func(c *redisConfig) { c.prefix = prefix }
}

// WithTTL expires idle sessions; 0 keeps them forever.
func WithTTL(ttl time.Duration) RedisOption {
	return func(c *redisConfig) { c.ttl = ttl }
}

type redisBackend[S any] struct {
	client *backend.Client
	cfg    redisConfig
}

// NewRedisBackend stores sessions as JSON strings, one key per user.
func NewRedisBackend[S any](client *backend.Client, opts ...RedisOption) Backend[S] {
	cfg := redisConfig{prefix: defaultRedisPrefix}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &redisBackend[S]{client: client, cfg: cfg}
}

func (b *redisBackend[S]) key(userID int64) string {
	return b.cfg.prefix + strconv.FormatInt(userID, 10)
}

func (b *redisBackend[S]) Load(ctx context.Context, userID int64) (S, bool, error) {
	var s S
	raw, err := b.client.Get(ctx, b.key(userID)).Bytes()
	if errors.Is(err, backend.Nil) {
		return s, false, nil
	}
	if err != nil {
		return s, false, fmt.Errorf("redis get: %w", err)
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return s, false, fmt.Errorf("decode session: %w", err)
	}
	return s, true, nil
}

func (b *redisBackend[S]) Save(ctx context.Context, userID int64, s S) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := b.client.Set(ctx, b.key(userID), data, b.cfg.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (b *redisBackend[S]) Delete(ctx context.Context, userID int64) error {
	if err := b.client.Del(ctx, b.key(userID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
