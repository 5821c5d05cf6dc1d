package draft

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/waflow/waflow/pkg/models"
)

// DefaultTTL bounds how long an abandoned recovery snapshot survives.
const DefaultTTL = 24 * time.Hour

// RedisStore keeps recovery snapshots in redis with a TTL, so editor
// sessions on different hosts share recovery state for the same operator.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Put(ctx context.Context, key Key, snapshot *models.DraftSnapshot) error {
	raw, err := encodeSnapshot(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if err := s.client.Set(ctx, key.String(), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store snapshot %s: %w", key, err)
	}

	return nil
}

func (s *RedisStore) Get(ctx context.Context, key Key) (*models.DraftSnapshot, error) {
	raw, err := s.client.Get(ctx, key.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to load snapshot %s: %w", key, err)
	}

	return decodeSnapshot(raw)
}

func (s *RedisStore) Delete(ctx context.Context, key Key) error {
	if err := s.client.Del(ctx, key.String()).Err(); err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", key, err)
	}

	return nil
}
