package logic

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrTokenNotFound is returned by TokenStore.Get for missing or expired keys.
var ErrTokenNotFound = errors.New("token not found")

// TokenStore keeps short-lived token state: revoked access tokens and
// pending password resets.
type TokenStore interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	Expire(ctx context.Context, key string) error
}

// RedisTokenStore implements TokenStore using Redis
type RedisTokenStore struct {
	client RedisClient
	prefix string
}

func NewRedisTokenStore(client RedisClient) *RedisTokenStore {
	return &RedisTokenStore{client: client, prefix: "tokens:"}
}

func (s *RedisTokenStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenNotFound
	}
	return val, err
}

func (s *RedisTokenStore) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, value, ttl).Err()
}

func (s *RedisTokenStore) Expire(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}

// MemoryTokenStore is an in-process TokenStore for tests and local runs.
type MemoryTokenStore struct {
	mu    sync.Mutex
	items map[string]memoryToken
	now   func() time.Time
}

type memoryToken struct {
	value     string
	expiresAt time.Time
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{items: make(map[string]memoryToken), now: time.Now}
}

func (s *MemoryTokenStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[key]
	if !ok {
		return "", ErrTokenNotFound
	}
	if !item.expiresAt.IsZero() && !s.now().Before(item.expiresAt) {
		delete(s.items, key)
		return "", ErrTokenNotFound
	}
	return item.value, nil
}

func (s *MemoryTokenStore) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := memoryToken{value: value}
	if ttl > 0 {
		item.expiresAt = s.now().Add(ttl)
	}
	s.items[key] = item
	return nil
}

func (s *MemoryTokenStore) Expire(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}
