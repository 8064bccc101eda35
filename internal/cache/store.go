package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang/snappy"
	redis "github.com/redis/go-redis/v9"
)

// Store is a context-aware cache that may live outside the process.
type Store[V any] interface {
	Get(ctx context.Context, key string) (V, bool, error)
	Set(ctx context.Context, key string, value V, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type memoryStore[V any] struct {
	items Cache[string, V]
}

// NewMemoryStore adapts a TTL cache to the Store interface.
func NewMemoryStore[V any]() Store[V] {
	return &memoryStore[V]{items: NewTTLCache[string, V]()}
}

func (s *memoryStore[V]) Get(_ context.Context, key string) (V, bool, error) {
	value, ok := s.items.Get(key)
	return value, ok, nil
}

func (s *memoryStore[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	s.items.Set(key, value, ttl)
	return nil
}

func (s *memoryStore[V]) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		s.items.Delete(key)
	}
	return nil
}

type redisStore[V any] struct {
	client *redis.Client
	prefix string
}

// NewRedisStore stores values as snappy-compressed JSON under prefix.
func NewRedisStore[V any](client *redis.Client, prefix string) Store[V] {
	return &redisStore[V]{client: client, prefix: prefix}
}

func (s *redisStore[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return zero, false, nil
		}
		return zero, false, err
	}
	value, err := decode[V](raw)
	if err != nil {
		return zero, false, err
	}
	return value, true, nil
}

func (s *redisStore[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	raw, err := encode(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.prefix+key, raw, ttl).Err()
}

func (s *redisStore[V]) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, 0, len(keys))
	for _, key := range keys {
		prefixed = append(prefixed, s.prefix+key)
	}
	return s.client.Del(ctx, prefixed...).Err()
}

func encode[V any](value V) ([]byte, error) {
	body, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("cache encode: %w", err)
	}
	return snappy.Encode(nil, body), nil
}

func decode[V any](raw []byte) (V, error) {
	var value V
	body, err := snappy.Decode(nil, raw)
	if err != nil {
		return value, fmt.Errorf("cache decode: %w", err)
	}
	if err := json.Unmarshal(body, &value); err != nil {
		return value, fmt.Errorf("cache decode: %w", err)
	}
	return value, nil
}
