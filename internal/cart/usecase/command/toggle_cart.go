package command

import (
	"context"

	"github.com/almahra/cart-engine/internal/cart/domain"
	"github.com/almahra/cart-engine/internal/cart/store"
)

// ToggleCartCommand represents the command to flip the cart's visibility
type ToggleCartCommand struct{}

// ToggleCartHandler handles toggle cart commands
type ToggleCartHandler struct{}

// NewToggleCartHandler creates a new toggle cart handler
func NewToggleCartHandler() *ToggleCartHandler {
	return &ToggleCartHandler{}
}

// Handle executes the toggle command. Visibility is a UI concern: no event
// is published and nothing is mirrored remotely.
func (h *ToggleCartHandler) Handle(ctx context.Context, st *store.Store, _ ToggleCartCommand) (domain.CartState, error) {
	return st.Dispatch(ctx, domain.ToggleVisibility{}), nil
}
