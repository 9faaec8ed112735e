package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore backs the key-value interface with Redis, for deployments
// where several scanner instances share quota and cache state.
type RedisStore struct {
	mu     sync.Mutex
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(addr, password string, db int, prefix string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if prefix == "" {
		prefix = "breakout:"
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

func (s *RedisStore) Get(key string) ([]byte, bool, error) {
	ctx, cancel := opCtx()
	defer cancel()
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s *RedisStore) Put(key string, value []byte) error {
	ctx, cancel := opCtx()
	defer cancel()
	return s.client.Set(ctx, s.prefix+key, value, 0).Err()
}

func (s *RedisStore) Delete(key string) error {
	ctx, cancel := opCtx()
	defer cancel()
	return s.client.Del(ctx, s.prefix+key).Err()
}

// Update serializes read-modify-write within this process. Cross-process
// writers should partition keys per instance.
func (s *RedisStore) Update(key string, fn func(old []byte) ([]byte, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, _, err := s.Get(key)
	if err != nil {
		return err
	}
	next, err := fn(old)
	if err != nil {
		return err
	}
	if next == nil {
		return s.Delete(key)
	}
	return s.Put(key, next)
}

func (s *RedisStore) Keys() ([]string, error) {
	ctx, cancel := opCtx()
	defer cancel()
	full, err := s.client.Keys(ctx, s.prefix+"*").Result()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(full))
	for _, k := range full {
		keys = append(keys, strings.TrimPrefix(k, s.prefix))
	}
	return keys, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}
