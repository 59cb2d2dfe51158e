package domain

// Transition is a cart state transition request. Each transition is applied
// by the pure Apply function; transitions carry well-formed payloads by
// construction (the use case layer validates them).
type Transition interface {
	transition()
}

// AddItem appends a new item or increments the quantity of an existing one
// with the same identity. The unit price of an existing item is never
// overwritten.
type AddItem struct {
	Product  Product
	Variant  *Variant
	Quantity int
}

// RemoveItem removes the item with the given identity. Unknown identities
// are a no-op.
type RemoveItem struct {
	Identity string
}

// UpdateQuantity sets an item's quantity to an absolute value. A quantity of
// zero or less behaves exactly like RemoveItem. Unknown identities are a
// no-op.
type UpdateQuantity struct {
	Identity string
	Quantity int
}

// ClearCart resets the cart to the empty state, closing it
type ClearCart struct{}

// ToggleVisibility flips the cart's visibility flag without touching items
type ToggleVisibility struct{}

func (AddItem) transition()          {}
func (RemoveItem) transition()       {}
func (UpdateQuantity) transition()   {}
func (ClearCart) transition()        {}
func (ToggleVisibility) transition() {}

// Apply applies a transition to a state and returns the resulting state.
// It is a pure function: the input state is never mutated, and Total and
// ItemCount are always consistent with Items in the returned state.
func Apply(state CartState, t Transition) CartState {
	switch tr := t.(type) {
	case AddItem:
		return applyAdd(state, tr)
	case RemoveItem:
		return applyRemove(state, tr.Identity)
	case UpdateQuantity:
		if tr.Quantity <= 0 {
			return applyRemove(state, tr.Identity)
		}
		return applyUpdate(state, tr)
	case ClearCart:
		return EmptyState()
	case ToggleVisibility:
		out := state.Clone()
		out.IsOpen = !out.IsOpen
		return out
	default:
		return state
	}
}

func applyAdd(state CartState, tr AddItem) CartState {
	out := state.Clone()
	identity := NewIdentity(tr.Product.ID, tr.Variant)

	if idx := out.FindItem(identity); idx >= 0 {
		out.Items[idx].Quantity += tr.Quantity
	} else {
		var variant *Variant
		if tr.Variant != nil {
			v := *tr.Variant
			variant = &v
		}
		out.Items = append(out.Items, CartItem{
			ID:        identity,
			Product:   tr.Product,
			Variant:   variant,
			Quantity:  tr.Quantity,
			UnitPrice: tr.Product.Price,
		})
	}

	out.Total, out.ItemCount = recompute(out.Items)
	return out
}

func applyRemove(state CartState, identity string) CartState {
	out := state.Clone()

	idx := out.FindItem(identity)
	if idx < 0 {
		return out
	}

	out.Items = append(out.Items[:idx], out.Items[idx+1:]...)
	out.Total, out.ItemCount = recompute(out.Items)
	return out
}

func applyUpdate(state CartState, tr UpdateQuantity) CartState {
	out := state.Clone()

	idx := out.FindItem(tr.Identity)
	if idx < 0 {
		return out
	}

	out.Items[idx].Quantity = tr.Quantity
	out.Total, out.ItemCount = recompute(out.Items)
	return out
}
