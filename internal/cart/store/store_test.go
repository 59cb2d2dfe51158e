package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/almahra/cart-engine/internal/cart/cache"
	"github.com/almahra/cart-engine/internal/cart/domain"
)

type recordingMirror struct {
	transitions []domain.Transition
}

func (m *recordingMirror) Mirror(_ context.Context, t domain.Transition) {
	m.transitions = append(m.transitions, t)
}

func product(id uint, price float64) domain.Product {
	return domain.Product{ID: id, Name: "Frame", Price: price}
}

func TestDispatchAppliesAndReturnsState(t *testing.T) {
	st := New(context.Background(), "s1", nil, nil)

	state := st.Dispatch(context.Background(), domain.AddItem{Product: product(1, 10), Quantity: 3})

	assert.Equal(t, 30.0, state.Total)
	assert.Equal(t, 3, state.ItemCount)
	assert.Equal(t, 30.0, st.Total())
	assert.Equal(t, 3, st.ItemCount())
	assert.False(t, st.IsOpen())
}

func TestDispatchPersistsSnapshotPerTransition(t *testing.T) {
	snap := cache.NewMemorySnapshotter()
	ctx := context.Background()

	st := New(ctx, "s1", snap, nil)
	st.Dispatch(ctx, domain.AddItem{Product: product(1, 10), Quantity: 1})
	st.Dispatch(ctx, domain.AddItem{Product: product(2, 5), Quantity: 2})

	persisted, err := snap.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, st.State(), persisted)

	// snapshot reflects the latest transition, not a stale one
	st.Dispatch(ctx, domain.ClearCart{})
	persisted, err = snap.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, persisted.Items)
}

func TestStoreRehydratesFromSnapshot(t *testing.T) {
	snap := cache.NewMemorySnapshotter()
	ctx := context.Background()

	first := New(ctx, "s1", snap, nil)
	first.Dispatch(ctx, domain.AddItem{Product: product(1, 10), Quantity: 2})

	second := New(ctx, "s1", snap, nil)
	assert.Equal(t, first.State(), second.State())
}

func TestStoreStartsEmptyWithoutSnapshot(t *testing.T) {
	st := New(context.Background(), "fresh", cache.NewMemorySnapshotter(), nil)
	assert.Equal(t, domain.EmptyState(), st.State())
}

func TestMirrorSeesTransitionsInOrder(t *testing.T) {
	mirror := &recordingMirror{}
	ctx := context.Background()

	st := New(ctx, "s1", nil, mirror)
	st.Dispatch(ctx, domain.AddItem{Product: product(1, 10), Quantity: 1})
	st.Dispatch(ctx, domain.RemoveItem{Identity: "1-default"})
	st.Dispatch(ctx, domain.AddItem{Product: product(2, 5), Quantity: 1})
	st.Dispatch(ctx, domain.ClearCart{})

	require.Len(t, mirror.transitions, 4)
	assert.IsType(t, domain.AddItem{}, mirror.transitions[0])
	assert.IsType(t, domain.RemoveItem{}, mirror.transitions[1])
	assert.IsType(t, domain.AddItem{}, mirror.transitions[2])
	assert.IsType(t, domain.ClearCart{}, mirror.transitions[3])
}

func TestAccessorsReturnCopies(t *testing.T) {
	ctx := context.Background()
	st := New(ctx, "s1", nil, nil)
	st.Dispatch(ctx, domain.AddItem{Product: product(1, 10), Quantity: 1})

	items := st.Items()
	items[0].Quantity = 999

	assert.Equal(t, 1, st.Items()[0].Quantity)
}
