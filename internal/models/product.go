package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Product is a purchasable catalog entry. Products are deactivated rather than
// deleted so existing orders keep a valid reference.
type Product struct {
	bun.BaseModel `bun:"table:products"`

	ProductID       string    `json:"product_id" bun:"product_id,pk"`
	Category        string    `json:"category" bun:"category,notnull"`
	Subcategory     string    `json:"subcategory,omitempty" bun:"subcategory,nullzero"`
	Name            string    `json:"name" bun:"name,notnull"`
	PriceCents      int64     `json:"price_cents" bun:"price_cents,notnull"`
	IsActive        bool      `json:"is_active" bun:"is_active,notnull,default:true"`
	DeliveryType    string    `json:"delivery_type,omitempty" bun:"delivery_type,nullzero"`
	FulfillmentNote string    `json:"fulfillment_note,omitempty" bun:"fulfillment_note,nullzero"`
	CreatedAt       time.Time `json:"created_at" bun:"created_at,notnull"`
	UpdatedAt       time.Time `json:"updated_at" bun:"updated_at,notnull"`
}
