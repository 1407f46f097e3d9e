package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotConnected is returned by every store call made before Connect or after Close.
var ErrNotConnected = errors.New("redis session store is not connected")

// RedisSessionStore is the key-value session store for OTP codes and refresh tokens.
// The client is created by Connect and released by Close so its lifetime follows
// process startup and shutdown.
type RedisSessionStore struct {
	redisURL string

	mu     sync.RWMutex
	client *redis.Client
}

// NewRedisSessionStore returns a disconnected store for redisURL.
func NewRedisSessionStore(redisURL string) *RedisSessionStore {
	return &RedisSessionStore{redisURL: redisURL}
}

// Connect opens the client and verifies connectivity with PING.
func (s *RedisSessionStore) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return nil
	}

	client, err := Connect(ctx, s.redisURL)
	if err != nil {
		return err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("ping redis: %w", err)
	}
	s.client = client
	slog.Default().InfoContext(ctx, "redis session store connected",
		"module", "cache",
		"layer", "adapter",
		"operation", "connect",
		"outcome", "success",
	)
	return nil
}

// Close releases the client. Calling Close on a disconnected store is a no-op.
func (s *RedisSessionStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}

// Ping checks the connection for readiness probes.
func (s *RedisSessionStore) Ping(ctx context.Context) error {
	client, err := s.conn()
	if err != nil {
		return err
	}
	return client.Ping(ctx).Err()
}

func (s *RedisSessionStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	client, err := s.conn()
	if err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0
	}
	return client.Set(ctx, key, value, ttl).Err()
}

func (s *RedisSessionStore) Get(ctx context.Context, key string) (string, bool, error) {
	client, err := s.conn()
	if err != nil {
		return "", false, err
	}
	value, err := client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, key string) error {
	client, err := s.conn()
	if err != nil {
		return err
	}
	return client.Del(ctx, key).Err()
}

func (s *RedisSessionStore) conn() (*redis.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.client == nil {
		return nil, ErrNotConnected
	}
	return s.client, nil
}
