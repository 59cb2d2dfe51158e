package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/almahra/cart-engine/internal/cart/domain"
	"github.com/almahra/cart-engine/pkg/logger"
)

const snapshotKeyPrefix = "cart:snapshot:"

// RedisSnapshotter persists cart snapshots as JSON blobs in Redis
type RedisSnapshotter struct {
	client *redis.Client
	ttl    time.Duration // zero means no expiry
}

// NewRedisSnapshotter creates a Redis-backed snapshotter. A zero ttl keeps
// snapshots until overwritten.
func NewRedisSnapshotter(client *redis.Client, ttl time.Duration) *RedisSnapshotter {
	return &RedisSnapshotter{client: client, ttl: ttl}
}

func snapshotKey(key string) string {
	return snapshotKeyPrefix + key
}

// Load returns the last persisted snapshot, or the empty state when the key
// is missing, the blob is malformed, or Redis is unreachable.
func (s *RedisSnapshotter) Load(ctx context.Context, key string) (domain.CartState, error) {
	blob, err := s.client.Get(ctx, snapshotKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.EmptyState(), nil
		}
		return domain.EmptyState(), fmt.Errorf("failed to load cart snapshot: %w", err)
	}

	state, ok := decodeSnapshot(blob)
	if !ok {
		logger.Warn(ctx).
			Str("key", key).
			Int("size", len(blob)).
			Msg("Discarding malformed cart snapshot")
		return domain.EmptyState(), nil
	}

	return state, nil
}

// Save writes a full snapshot, overwriting any prior value
func (s *RedisSnapshotter) Save(ctx context.Context, key string, state domain.CartState) error {
	blob, err := encodeSnapshot(state)
	if err != nil {
		return fmt.Errorf("failed to encode cart snapshot: %w", err)
	}

	if err := s.client.Set(ctx, snapshotKey(key), blob, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save cart snapshot: %w", err)
	}

	return nil
}
