package redis

import (
	"context"
	"errors"
	"fmt"

	"echo-quiz/internal/domain"
	"github.com/redis/go-redis/v9"
)

// KVStore keeps leaderboard values in Redis string keys.
// A value is written with a single SET, so readers never see a partial write.
// Keys are stored as {prefix}{key}; values never expire.
type KVStore struct {
	client *redis.Client
	prefix string
}

func NewKVStore(client *redis.Client, prefix string) *KVStore {
	return &KVStore{client: client, prefix: prefix}
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, nil
}

func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (s *KVStore) key(key string) string {
	return s.prefix + key
}
