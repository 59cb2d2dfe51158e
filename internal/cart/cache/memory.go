package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/almahra/cart-engine/internal/cart/domain"
	"github.com/almahra/cart-engine/pkg/logger"
)

// MemorySnapshotter keeps snapshots in process memory. It is the fallback
// when no Redis is configured, and the snapshotter used in tests. Blobs go
// through the same JSON codec as the Redis implementation so round-trip
// behavior is identical.
type MemorySnapshotter struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemorySnapshotter creates an in-memory snapshotter
func NewMemorySnapshotter() *MemorySnapshotter {
	return &MemorySnapshotter{blobs: make(map[string][]byte)}
}

// Load returns the last saved snapshot, or the empty state when the key is
// missing or the blob is malformed
func (s *MemorySnapshotter) Load(ctx context.Context, key string) (domain.CartState, error) {
	s.mu.RLock()
	blob, ok := s.blobs[key]
	s.mu.RUnlock()

	if !ok {
		return domain.EmptyState(), nil
	}

	state, ok := decodeSnapshot(blob)
	if !ok {
		logger.Warn(ctx).
			Str("key", key).
			Msg("Discarding malformed cart snapshot")
		return domain.EmptyState(), nil
	}

	return state, nil
}

// Save writes a full snapshot, overwriting any prior value
func (s *MemorySnapshotter) Save(_ context.Context, key string, state domain.CartState) error {
	blob, err := encodeSnapshot(state)
	if err != nil {
		return fmt.Errorf("failed to encode cart snapshot: %w", err)
	}

	s.mu.Lock()
	s.blobs[key] = blob
	s.mu.Unlock()
	return nil
}
