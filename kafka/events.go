package kafka

import "time"

// CartEvent represents a cart mutation event
type CartEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	SessionID string    `json:"session_id"`
	UserID    uint      `json:"user_id,omitempty"`
	Identity  string    `json:"identity,omitempty"`
	ProductID uint      `json:"product_id,omitempty"`
	VariantID uint      `json:"variant_id,omitempty"`
	Quantity  int       `json:"quantity,omitempty"`
	Total     float64   `json:"total"`
	ItemCount int       `json:"item_count"`
	Timestamp time.Time `json:"timestamp"`
}

// Event types
const (
	EventTypeItemAdded       = "cart.item_added"
	EventTypeItemRemoved     = "cart.item_removed"
	EventTypeQuantityUpdated = "cart.quantity_updated"
	EventTypeCartCleared     = "cart.cleared"
)

// Kafka topics
const (
	TopicCartActivity = "cart-activity"
)
