package command

import (
	"context"
	"fmt"

	"github.com/almahra/cart-engine/internal/cart/domain"
	"github.com/almahra/cart-engine/internal/cart/store"
	"github.com/almahra/cart-engine/kafka"
)

// UpdateQuantityCommand represents the command to set a line's quantity to
// an absolute value. A quantity of zero or less removes the line.
type UpdateQuantityCommand struct {
	Identity string
	Quantity int
}

// UpdateQuantityHandler handles update quantity commands
type UpdateQuantityHandler struct {
	publisher *kafka.Publisher
}

// NewUpdateQuantityHandler creates a new update quantity handler
func NewUpdateQuantityHandler(publisher *kafka.Publisher) *UpdateQuantityHandler {
	return &UpdateQuantityHandler{publisher: publisher}
}

// Handle executes the update quantity command
func (h *UpdateQuantityHandler) Handle(ctx context.Context, st *store.Store, cmd UpdateQuantityCommand) (domain.CartState, error) {
	if cmd.Identity == "" {
		return st.State(), fmt.Errorf("identity is required")
	}

	state := st.Dispatch(ctx, domain.UpdateQuantity{
		Identity: cmd.Identity,
		Quantity: cmd.Quantity,
	})

	eventType := kafka.EventTypeQuantityUpdated
	if cmd.Quantity <= 0 {
		eventType = kafka.EventTypeItemRemoved
	}
	publishEvent(ctx, h.publisher, kafka.CartEvent{
		EventType: eventType,
		SessionID: st.Key(),
		Identity:  cmd.Identity,
		Quantity:  cmd.Quantity,
		Total:     state.Total,
		ItemCount: state.ItemCount,
	})

	return state, nil
}
