package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/almahra/cart-engine/internal/cart/domain"
)

func sampleState() domain.CartState {
	state := domain.Apply(domain.EmptyState(), domain.AddItem{
		Product:  domain.Product{ID: 1, Name: "Aviator", Price: 10, Brand: "Almahra"},
		Variant:  &domain.Variant{ID: 5, Color: "Black", ColorCode: "#000000"},
		Quantity: 2,
	})
	state = domain.Apply(state, domain.AddItem{
		Product:  domain.Product{ID: 2, Name: "Wayfarer", Price: 24.5},
		Quantity: 1,
	})
	return domain.Apply(state, domain.ToggleVisibility{})
}

func TestMemorySnapshotterRoundTrip(t *testing.T) {
	snap := NewMemorySnapshotter()
	ctx := context.Background()
	state := sampleState()

	require.NoError(t, snap.Save(ctx, "session-1", state))

	loaded, err := snap.Load(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, state, loaded)
}

func TestMemorySnapshotterMissingKeyYieldsEmpty(t *testing.T) {
	snap := NewMemorySnapshotter()

	loaded, err := snap.Load(context.Background(), "nope")
	require.NoError(t, err)
	assert.Equal(t, domain.EmptyState(), loaded)
}

func TestMemorySnapshotterCorruptedBlobYieldsEmpty(t *testing.T) {
	snap := NewMemorySnapshotter()
	snap.blobs["session-1"] = []byte("{not json")

	loaded, err := snap.Load(context.Background(), "session-1")
	require.NoError(t, err)
	assert.Equal(t, domain.EmptyState(), loaded)
}

func TestMemorySnapshotterLastWriteWins(t *testing.T) {
	snap := NewMemorySnapshotter()
	ctx := context.Background()

	first := sampleState()
	require.NoError(t, snap.Save(ctx, "session-1", first))

	second := domain.Apply(first, domain.ClearCart{})
	require.NoError(t, snap.Save(ctx, "session-1", second))

	loaded, err := snap.Load(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, second, loaded)
}

func TestMemorySnapshotterKeyIsolation(t *testing.T) {
	snap := NewMemorySnapshotter()
	ctx := context.Background()

	require.NoError(t, snap.Save(ctx, "a", sampleState()))

	loaded, err := snap.Load(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, domain.EmptyState(), loaded)
}

func TestDecodeSnapshotToleratesUnknownFields(t *testing.T) {
	blob := []byte(`{"items":[],"total":0,"item_count":0,"is_open":false,"version":9}`)

	state, ok := decodeSnapshot(blob)
	require.True(t, ok)
	assert.Equal(t, domain.EmptyState(), state)
}

func TestDecodeSnapshotNilItemsNormalized(t *testing.T) {
	state, ok := decodeSnapshot([]byte(`{"total":0,"item_count":0,"is_open":true}`))
	require.True(t, ok)
	require.NotNil(t, state.Items)
	assert.True(t, state.IsOpen)
}
