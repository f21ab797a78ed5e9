package models

import (
	"time"

	"gorm.io/datatypes"
)

// OrderLine is one product/quantity pair inside an Order's Items JSONB
// column, mirroring the {product_name, quantity} shape the LLM emits.
type OrderLine struct {
	ProductID  string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"price_cents"`
}

// Order is the append-only record produced by PlaceOrder (§6.2). It is
// written once per confirmed "add" intent turn and never mutated by the
// voice pipeline afterwards.
type Order struct {
	ID           string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	RestaurantID string         `gorm:"column:restaurant_id;type:uuid;index" json:"restaurant_id"`
	TableID      string         `gorm:"column:table_id;type:uuid;index" json:"table_id"`
	Items        datatypes.JSON `gorm:"column:items;type:jsonb" json:"items"`
	Status       string         `gorm:"column:status;type:text" json:"status"` // "open", "check_requested", "closed"
	CreatedAt    time.Time      `gorm:"column:created_at;type:timestamptz" json:"created_at"`
}

func (Order) TableName() string { return "orders" }
