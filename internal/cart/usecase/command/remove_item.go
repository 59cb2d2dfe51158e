package command

import (
	"context"
	"fmt"

	"github.com/almahra/cart-engine/internal/cart/domain"
	"github.com/almahra/cart-engine/internal/cart/store"
	"github.com/almahra/cart-engine/kafka"
)

// RemoveItemCommand represents the command to remove a cart line
type RemoveItemCommand struct {
	Identity string
}

// RemoveItemHandler handles remove item commands
type RemoveItemHandler struct {
	publisher *kafka.Publisher
}

// NewRemoveItemHandler creates a new remove item handler
func NewRemoveItemHandler(publisher *kafka.Publisher) *RemoveItemHandler {
	return &RemoveItemHandler{publisher: publisher}
}

// Handle executes the remove item command. Removing an identity that is not
// in the cart is a no-op, not an error.
func (h *RemoveItemHandler) Handle(ctx context.Context, st *store.Store, cmd RemoveItemCommand) (domain.CartState, error) {
	if cmd.Identity == "" {
		return st.State(), fmt.Errorf("identity is required")
	}

	state := st.Dispatch(ctx, domain.RemoveItem{Identity: cmd.Identity})

	publishEvent(ctx, h.publisher, kafka.CartEvent{
		EventType: kafka.EventTypeItemRemoved,
		SessionID: st.Key(),
		Identity:  cmd.Identity,
		Total:     state.Total,
		ItemCount: state.ItemCount,
	})

	return state, nil
}
