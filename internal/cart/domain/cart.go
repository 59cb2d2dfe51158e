package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultVariant is the variant sentinel used when a product has no variant
const DefaultVariant = "default"

// Product is a snapshot of catalog data captured when an item is added.
// It is not refreshed when the catalog changes.
type Product struct {
	ID    uint    `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Image string  `json:"image"`
	Brand string  `json:"brand"`
}

// Variant is an optional product variant snapshot
type Variant struct {
	ID        uint   `json:"id"`
	Color     string `json:"color"`
	ColorCode string `json:"color_code"`
}

// CartItem is a single cart line, keyed by its composite identity
type CartItem struct {
	ID        string   `json:"id"`
	Product   Product  `json:"product"`
	Variant   *Variant `json:"variant,omitempty"`
	Quantity  int      `json:"quantity"`
	UnitPrice float64  `json:"price"`
}

// CartState is the canonical cart representation. Total and ItemCount are
// derived from Items and recomputed on every transition.
type CartState struct {
	Items     []CartItem `json:"items"`
	Total     float64    `json:"total"`
	ItemCount int        `json:"item_count"`
	IsOpen    bool       `json:"is_open"`
}

// EmptyState returns a fresh empty cart
func EmptyState() CartState {
	return CartState{Items: []CartItem{}}
}

// NewIdentity builds the composite merge key for a product/variant pair
func NewIdentity(productID uint, variant *Variant) string {
	if variant == nil {
		return fmt.Sprintf("%d-%s", productID, DefaultVariant)
	}
	return fmt.Sprintf("%d-%d", productID, variant.ID)
}

// DecomposeIdentity splits a composite identity back into product and variant
// ids. hasVariant is false when the identity carries the default sentinel.
func DecomposeIdentity(identity string) (productID uint, variantID uint, hasVariant bool, err error) {
	parts := strings.SplitN(identity, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false, fmt.Errorf("malformed identity %q", identity)
	}

	pid, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return 0, 0, false, fmt.Errorf("malformed identity %q: %w", identity, err)
	}

	if parts[1] == DefaultVariant {
		return uint(pid), 0, false, nil
	}

	vid, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return 0, 0, false, fmt.Errorf("malformed identity %q: %w", identity, err)
	}

	return uint(pid), uint(vid), true, nil
}

// Clone returns a deep copy of the state. Transitions operate on copies so
// callers never observe a partially applied state.
func (s CartState) Clone() CartState {
	out := s
	out.Items = make([]CartItem, len(s.Items))
	copy(out.Items, s.Items)
	for i, item := range out.Items {
		if item.Variant != nil {
			v := *item.Variant
			out.Items[i].Variant = &v
		}
	}
	return out
}

// FindItem returns the index of the item with the given identity, or -1
func (s CartState) FindItem(identity string) int {
	for i, item := range s.Items {
		if item.ID == identity {
			return i
		}
	}
	return -1
}

func recompute(items []CartItem) (total float64, itemCount int) {
	for _, item := range items {
		total += item.UnitPrice * float64(item.Quantity)
		itemCount += item.Quantity
	}
	return total, itemCount
}
