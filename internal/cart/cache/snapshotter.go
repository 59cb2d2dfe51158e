package cache

import (
	"context"
	"encoding/json"

	"github.com/almahra/cart-engine/internal/cart/domain"
)

// Snapshotter persists whole-cart snapshots keyed by session. It has no merge
// logic: saves are last-write-wins full replacements, and loads that find
// nothing usable degrade to the empty state rather than failing the caller.
type Snapshotter interface {
	// Load returns the last persisted snapshot for the key. A missing or
	// malformed snapshot yields the empty state, never an error; errors are
	// reserved for backend failures, and even then a usable (empty) state is
	// returned alongside.
	Load(ctx context.Context, key string) (domain.CartState, error)

	// Save writes a full snapshot, replacing any prior value
	Save(ctx context.Context, key string, state domain.CartState) error
}

func encodeSnapshot(state domain.CartState) ([]byte, error) {
	return json.Marshal(state)
}

// decodeSnapshot parses a persisted blob. Malformed input degrades to the
// empty state with ok=false so callers can log the corruption.
func decodeSnapshot(blob []byte) (domain.CartState, bool) {
	var state domain.CartState
	if err := json.Unmarshal(blob, &state); err != nil {
		return domain.EmptyState(), false
	}
	if state.Items == nil {
		state.Items = []domain.CartItem{}
	}
	return state, true
}
