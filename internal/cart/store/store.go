package store

import (
	"context"
	"sync"

	"github.com/almahra/cart-engine/internal/cart/cache"
	"github.com/almahra/cart-engine/internal/cart/domain"
	"github.com/almahra/cart-engine/pkg/logger"
)

// Mirror receives every applied transition, in application order. The remote
// synchronizer implements it; Mirror must not block.
type Mirror interface {
	Mirror(ctx context.Context, t domain.Transition)
}

// Store holds the canonical cart state for one session and applies
// transitions to it. Transitions run to completion one at a time; snapshot
// writes and mirror notifications happen in transition order. The store is
// authoritative for what the caller sees: snapshot or mirror failures never
// roll a transition back.
type Store struct {
	mu    sync.Mutex
	state domain.CartState

	key    string
	snap   cache.Snapshotter // optional
	mirror Mirror            // optional
}

// New creates a store for the given session key. When a snapshotter is
// provided the store rehydrates from the last persisted snapshot; a missing
// or unreadable snapshot starts the cart empty. Either dependency may be nil.
func New(ctx context.Context, key string, snap cache.Snapshotter, mirror Mirror) *Store {
	state := domain.EmptyState()

	if snap != nil {
		loaded, err := snap.Load(ctx, key)
		if err != nil {
			logger.Warn(ctx).
				Err(err).
				Str("session", key).
				Msg("Cart rehydration failed, starting empty")
		}
		state = loaded
	}

	return &Store{
		state:  state,
		key:    key,
		snap:   snap,
		mirror: mirror,
	}
}

// Dispatch applies a transition and returns the resulting state. The
// persisted snapshot always reflects the most recently applied transition,
// and the mirror sees transitions in the same order they were applied.
func (s *Store) Dispatch(ctx context.Context, t domain.Transition) domain.CartState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = domain.Apply(s.state, t)

	if s.snap != nil {
		if err := s.snap.Save(ctx, s.key, s.state); err != nil {
			logger.Warn(ctx).
				Err(err).
				Str("session", s.key).
				Msg("Cart snapshot write failed")
		}
	}

	if s.mirror != nil {
		s.mirror.Mirror(ctx, t)
	}

	return s.state.Clone()
}

// Key returns the session key the store persists under
func (s *Store) Key() string {
	return s.key
}

// State returns a copy of the current cart state
func (s *Store) State() domain.CartState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Items returns a copy of the current items
func (s *Store) Items() []domain.CartItem {
	return s.State().Items
}

// Total returns the current cart total
func (s *Store) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Total
}

// ItemCount returns the current summed quantity
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ItemCount
}

// IsOpen reports the cart's visibility flag
func (s *Store) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.IsOpen
}
