package models

import (
	"time"

	"github.com/uptrace/bun"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusFulfilled OrderStatus = "fulfilled"
	OrderStatusRefill    OrderStatus = "refill"
	OrderStatusRefunded  OrderStatus = "refunded"
)

// Order records one purchase. It is always created in the same transaction as
// the wallet debit that pays for it.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	OrderID                string      `json:"order_id" bun:"order_id,pk"`
	UserID                 int64       `json:"user_id" bun:"user_id,notnull"`
	ProductID              string      `json:"product_id" bun:"product_id,notnull"`
	PricePaidCents         int64       `json:"price_paid_cents" bun:"price_paid_cents,notnull"`
	DiscountAppliedPercent float64     `json:"discount_applied_percent" bun:"discount_applied_percent,notnull,default:0"`
	Status                 OrderStatus `json:"status" bun:"status,notnull,default:'pending'"`
	WarrantyExpiresAt      *time.Time  `json:"warranty_expires_at,omitempty" bun:"warranty_expires_at,nullzero"`
	RenewalCount           int         `json:"renewal_count" bun:"renewal_count,notnull,default:0"`
	CreatedAt              time.Time   `json:"created_at" bun:"created_at,notnull"`
}

type PurchaseRequest struct {
	UserID          int64   `json:"user_id"`
	ProductID       string  `json:"product_id"`
	PricePaidCents  int64   `json:"price_paid_cents"`
	DiscountPercent float64 `json:"discount_percent"`
}

type PurchaseResponse struct {
	OrderID         string `json:"order_id"`
	NewBalanceCents int64  `json:"new_balance_cents"`
}
