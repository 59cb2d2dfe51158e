package query

import (
	"context"

	"github.com/almahra/cart-engine/internal/cart/domain"
	"github.com/almahra/cart-engine/internal/cart/store"
)

// GetCartQuery represents the query for the current cart state
type GetCartQuery struct{}

// GetCartHandler handles get cart queries
type GetCartHandler struct{}

// NewGetCartHandler creates a new get cart handler
func NewGetCartHandler() *GetCartHandler {
	return &GetCartHandler{}
}

// Handle returns a snapshot of the session's cart state
func (h *GetCartHandler) Handle(_ context.Context, st *store.Store, _ GetCartQuery) (domain.CartState, error) {
	return st.State(), nil
}
