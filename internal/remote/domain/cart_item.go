package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// CartItem represents one server-side cart line. A user has at most one line
// per (product, variant) pair; adds against an existing pair are additive.
type CartItem struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	UserID      uint           `json:"user_id" gorm:"not null;uniqueIndex:idx_cart_line"`
	ProductID   uint           `json:"product_id" gorm:"not null;uniqueIndex:idx_cart_line"`
	VariantID   *uint          `json:"variant_id" gorm:"uniqueIndex:idx_cart_line"`
	ProductName string         `json:"product_name"`
	Brand       string         `json:"brand"`
	Image       string         `json:"image"`
	Color       string         `json:"color"`
	ColorCode   string         `json:"color_code"`
	UnitPrice   float64        `json:"unit_price" gorm:"not null"`
	Quantity    int            `json:"quantity" gorm:"not null"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName specifies the table name
func (CartItem) TableName() string {
	return "cart_items"
}

// TotalPrice returns the line total
func (i *CartItem) TotalPrice() float64 {
	return i.UnitPrice * float64(i.Quantity)
}

// CartRepository defines the contract for cart line data access
type CartRepository interface {
	FindByUser(userID uint) ([]CartItem, error)
	FindLine(userID, productID uint, variantID *uint) (*CartItem, error)
	Save(item *CartItem) error
	Delete(id uint) error
	ClearUser(userID uint) error
	CountByUser(userID uint) (int64, error)
}

// Product is a catalog snapshot consumed when a line is created
type Product struct {
	ID       uint    `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Image    string  `json:"image"`
	Brand    string  `json:"brand"`
	IsActive bool    `json:"is_active"`
}

// Variant is a catalog variant snapshot
type Variant struct {
	ID        uint   `json:"id"`
	Color     string `json:"color"`
	ColorCode string `json:"color_code"`
}

// ProductCatalog is the narrow read-only interface onto the external
// catalog service
type ProductCatalog interface {
	Product(ctx context.Context, productID uint) (*Product, error)
	Variant(ctx context.Context, productID, variantID uint) (*Variant, error)
}
