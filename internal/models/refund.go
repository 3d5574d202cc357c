package models

import (
	"time"

	"github.com/uptrace/bun"
)

type RefundStatus string

const (
	RefundStatusPending  RefundStatus = "pending"
	RefundStatusApproved RefundStatus = "approved"
	RefundStatusRejected RefundStatus = "rejected"
)

// Refund tracks one refund request from creation through staff resolution.
// A pending row transitions exactly once to approved or rejected.
type Refund struct {
	bun.BaseModel `bun:"table:refunds"`

	RefundID             string       `json:"refund_id" bun:"refund_id,pk"`
	OrderID              string       `json:"order_id" bun:"order_id,notnull"`
	UserID               int64        `json:"user_id" bun:"user_id,notnull"`
	RequestedAmountCents int64        `json:"requested_amount_cents" bun:"requested_amount_cents,notnull"`
	ApprovedAmountCents  int64        `json:"approved_amount_cents,omitempty" bun:"approved_amount_cents,nullzero"`
	HandlingFeeCents     int64        `json:"handling_fee_cents" bun:"handling_fee_cents,notnull"`
	FinalRefundCents     int64        `json:"final_refund_cents" bun:"final_refund_cents,notnull"`
	Status               RefundStatus `json:"status" bun:"status,notnull,default:'pending'"`
	Reason               string       `json:"reason,omitempty" bun:"reason,nullzero"`
	ResolvedBy           int64        `json:"resolved_by,omitempty" bun:"resolved_by,nullzero"`
	ResolutionNote       string       `json:"resolution_note,omitempty" bun:"resolution_note,nullzero"`
	ResolvedAt           *time.Time   `json:"resolved_at,omitempty" bun:"resolved_at,nullzero"`
	CreatedAt            time.Time    `json:"created_at" bun:"created_at,notnull"`
}

type RefundRequestDTO struct {
	OrderID     string `json:"order_id"`
	UserID      int64  `json:"user_id"`
	AmountCents int64  `json:"amount_cents"`
	Reason      string `json:"reason"`
}

type RefundResolutionDTO struct {
	StaffID             int64    `json:"staff_id"`
	ApprovedAmountCents *int64   `json:"approved_amount_cents,omitempty"`
	HandlingFeePercent  *float64 `json:"handling_fee_percent,omitempty"`
	Reason              string   `json:"reason,omitempty"`
}
