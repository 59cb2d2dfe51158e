package sync

import "github.com/almahra/cart-engine/internal/cart/domain"

// The remote cart service speaks snake_case JSON. All translation between
// the engine's field naming and the wire format lives here, keeping the wire
// shapes out of the domain.

type productPayload struct {
	ID    uint    `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Image string  `json:"image,omitempty"`
	Brand string  `json:"brand,omitempty"`
}

type variantPayload struct {
	ID        uint   `json:"id"`
	Color     string `json:"color,omitempty"`
	ColorCode string `json:"color_code,omitempty"`
}

type remoteItemPayload struct {
	Product  productPayload  `json:"product"`
	Variant  *variantPayload `json:"variant,omitempty"`
	Quantity int             `json:"quantity"`
	Price    float64         `json:"price"`
}

type remoteCartResponse struct {
	Items       []remoteItemPayload `json:"items"`
	TotalItems  int                 `json:"total_items"`
	TotalAmount float64             `json:"total_amount"`
}

type addItemRequest struct {
	ProductID uint  `json:"product_id"`
	VariantID *uint `json:"variant_id,omitempty"`
	Quantity  int   `json:"quantity"`
}

type updateItemRequest struct {
	VariantID *uint `json:"variant_id,omitempty"`
	Quantity  int   `json:"quantity"`
}

type removeItemRequest struct {
	VariantID *uint `json:"variant_id,omitempty"`
}

// RemoteItem is a remote cart line translated back into domain terms
type RemoteItem struct {
	Product  domain.Product
	Variant  *domain.Variant
	Quantity int
	Price    float64
}

func (p remoteItemPayload) toDomain() RemoteItem {
	item := RemoteItem{
		Product: domain.Product{
			ID:    p.Product.ID,
			Name:  p.Product.Name,
			Price: p.Product.Price,
			Image: p.Product.Image,
			Brand: p.Product.Brand,
		},
		Quantity: p.Quantity,
		Price:    p.Price,
	}
	if p.Variant != nil {
		item.Variant = &domain.Variant{
			ID:        p.Variant.ID,
			Color:     p.Variant.Color,
			ColorCode: p.Variant.ColorCode,
		}
	}
	return item
}
