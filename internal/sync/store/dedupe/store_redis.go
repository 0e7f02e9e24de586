package dedupe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"syncgate/internal/sync/models"
)

const keyPrefix = "syncgate:dedupe:"

// RedisStore backs dedupe with Redis so retried uploads hit the stored
// outcome regardless of which instance serves them.
type RedisStore struct {
	client redis.Cmdable
}

func NewRedis(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, clientRequestID string) (*models.ApplyResult, error) {
	raw, err := s.client.Get(ctx, keyPrefix+clientRequestID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dedupe get: %w", err)
	}

	var result models.ApplyResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode dedupe entry: %w", err)
	}
	return &result, nil
}

func (s *RedisStore) Put(ctx context.Context, clientRequestID string, result *models.ApplyResult, ttl time.Duration) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode dedupe entry: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+clientRequestID, raw, ttl).Err(); err != nil {
		return fmt.Errorf("dedupe put: %w", err)
	}
	return nil
}
