package command

import (
	"context"

	"github.com/almahra/cart-engine/internal/cart/domain"
	"github.com/almahra/cart-engine/internal/cart/store"
	"github.com/almahra/cart-engine/kafka"
)

// ClearCartCommand represents the command to empty the cart
type ClearCartCommand struct{}

// ClearCartHandler handles clear cart commands
type ClearCartHandler struct {
	publisher *kafka.Publisher
}

// NewClearCartHandler creates a new clear cart handler
func NewClearCartHandler(publisher *kafka.Publisher) *ClearCartHandler {
	return &ClearCartHandler{publisher: publisher}
}

// Handle executes the clear cart command
func (h *ClearCartHandler) Handle(ctx context.Context, st *store.Store, _ ClearCartCommand) (domain.CartState, error) {
	state := st.Dispatch(ctx, domain.ClearCart{})

	publishEvent(ctx, h.publisher, kafka.CartEvent{
		EventType: kafka.EventTypeCartCleared,
		SessionID: st.Key(),
		Total:     state.Total,
		ItemCount: state.ItemCount,
	})

	return state, nil
}
