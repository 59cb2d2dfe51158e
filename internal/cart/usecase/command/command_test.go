package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/almahra/cart-engine/internal/cart/domain"
	"github.com/almahra/cart-engine/internal/cart/store"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(context.Background(), "test-session", nil, nil)
}

func TestAddItemDefaultsQuantityToOne(t *testing.T) {
	st := newStore(t)
	h := NewAddItemHandler(nil)

	state, err := h.Handle(context.Background(), st, AddItemCommand{
		Product: domain.Product{ID: 1, Price: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, state.ItemCount)
	assert.Equal(t, 10.0, state.Total)
}

func TestAddItemRejectsNegativeQuantity(t *testing.T) {
	st := newStore(t)
	h := NewAddItemHandler(nil)

	_, err := h.Handle(context.Background(), st, AddItemCommand{
		Product:  domain.Product{ID: 1, Price: 10},
		Quantity: -2,
	})
	require.Error(t, err)
	assert.Equal(t, 0, st.ItemCount())
}

func TestAddItemRequiresProduct(t *testing.T) {
	st := newStore(t)
	h := NewAddItemHandler(nil)

	_, err := h.Handle(context.Background(), st, AddItemCommand{Quantity: 1})
	assert.Error(t, err)
}

func TestRemoveItemRequiresIdentity(t *testing.T) {
	st := newStore(t)
	h := NewRemoveItemHandler(nil)

	_, err := h.Handle(context.Background(), st, RemoveItemCommand{})
	assert.Error(t, err)
}

func TestRemoveItemUnknownIdentityIsNoOp(t *testing.T) {
	st := newStore(t)
	add := NewAddItemHandler(nil)
	remove := NewRemoveItemHandler(nil)

	_, err := add.Handle(context.Background(), st, AddItemCommand{Product: domain.Product{ID: 1, Price: 10}, Quantity: 1})
	require.NoError(t, err)

	state, err := remove.Handle(context.Background(), st, RemoveItemCommand{Identity: "99-default"})
	require.NoError(t, err)
	assert.Equal(t, 1, state.ItemCount)
}

func TestUpdateQuantityZeroRemoves(t *testing.T) {
	st := newStore(t)
	add := NewAddItemHandler(nil)
	update := NewUpdateQuantityHandler(nil)

	_, err := add.Handle(context.Background(), st, AddItemCommand{Product: domain.Product{ID: 1, Price: 10}, Quantity: 2})
	require.NoError(t, err)

	state, err := update.Handle(context.Background(), st, UpdateQuantityCommand{Identity: "1-default", Quantity: 0})
	require.NoError(t, err)
	assert.Empty(t, state.Items)
}

func TestClearCartResetsEverything(t *testing.T) {
	st := newStore(t)
	add := NewAddItemHandler(nil)
	toggle := NewToggleCartHandler()
	clear := NewClearCartHandler(nil)
	ctx := context.Background()

	_, err := add.Handle(ctx, st, AddItemCommand{Product: domain.Product{ID: 1, Price: 10}, Quantity: 3})
	require.NoError(t, err)
	_, err = toggle.Handle(ctx, st, ToggleCartCommand{})
	require.NoError(t, err)

	state, err := clear.Handle(ctx, st, ClearCartCommand{})
	require.NoError(t, err)
	assert.Empty(t, state.Items)
	assert.Equal(t, 0.0, state.Total)
	assert.Equal(t, 0, state.ItemCount)
	assert.False(t, state.IsOpen)
}

func TestToggleCartFlipsVisibilityOnly(t *testing.T) {
	st := newStore(t)
	add := NewAddItemHandler(nil)
	toggle := NewToggleCartHandler()
	ctx := context.Background()

	_, err := add.Handle(ctx, st, AddItemCommand{Product: domain.Product{ID: 1, Price: 10}, Quantity: 2})
	require.NoError(t, err)

	state, err := toggle.Handle(ctx, st, ToggleCartCommand{})
	require.NoError(t, err)
	assert.True(t, state.IsOpen)
	assert.Equal(t, 2, state.ItemCount)
}
