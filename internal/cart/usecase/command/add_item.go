package command

import (
	"context"
	"fmt"

	"github.com/almahra/cart-engine/internal/cart/domain"
	"github.com/almahra/cart-engine/internal/cart/store"
	"github.com/almahra/cart-engine/kafka"
)

// AddItemCommand represents the command to add a product to the cart
type AddItemCommand struct {
	Product  domain.Product
	Variant  *domain.Variant
	Quantity int // zero means the default of one
}

// AddItemHandler handles add item commands
type AddItemHandler struct {
	publisher *kafka.Publisher
}

// NewAddItemHandler creates a new add item handler
func NewAddItemHandler(publisher *kafka.Publisher) *AddItemHandler {
	return &AddItemHandler{publisher: publisher}
}

// Handle executes the add item command against the session's store
func (h *AddItemHandler) Handle(ctx context.Context, st *store.Store, cmd AddItemCommand) (domain.CartState, error) {
	if cmd.Product.ID == 0 {
		return st.State(), fmt.Errorf("product id is required")
	}
	if cmd.Quantity < 0 {
		return st.State(), fmt.Errorf("quantity cannot be negative")
	}
	if cmd.Quantity == 0 {
		cmd.Quantity = 1
	}

	state := st.Dispatch(ctx, domain.AddItem{
		Product:  cmd.Product,
		Variant:  cmd.Variant,
		Quantity: cmd.Quantity,
	})

	identity := domain.NewIdentity(cmd.Product.ID, cmd.Variant)
	event := kafka.CartEvent{
		EventType: kafka.EventTypeItemAdded,
		SessionID: st.Key(),
		Identity:  identity,
		ProductID: cmd.Product.ID,
		Quantity:  cmd.Quantity,
		Total:     state.Total,
		ItemCount: state.ItemCount,
	}
	if cmd.Variant != nil {
		event.VariantID = cmd.Variant.ID
	}
	publishEvent(ctx, h.publisher, event)

	return state, nil
}
