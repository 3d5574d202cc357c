package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Referral is the referrer -> referred edge. Each referred user has at most
// one referrer, and a user cannot refer themselves.
type Referral struct {
	bun.BaseModel `bun:"table:referrals"`

	ID             int64     `json:"id" bun:"id,pk,autoincrement"`
	ReferrerID     int64     `json:"referrer_id" bun:"referrer_id,notnull"`
	ReferredID     int64     `json:"referred_id" bun:"referred_id,notnull,unique"`
	Blacklisted    bool      `json:"blacklisted" bun:"blacklisted,notnull,default:false"`
	TotalPaidCents int64     `json:"total_paid_cents" bun:"total_paid_cents,notnull,default:0"`
	CreatedAt      time.Time `json:"created_at" bun:"created_at,notnull"`
}

// ReferralAccrual is one per-purchase cashback accrual on a referral edge.
// PaidCents tracks how much of the accrual has been settled, so a payout can
// consume part of a row and later payouts pick up the remainder.
type ReferralAccrual struct {
	bun.BaseModel `bun:"table:referral_accruals"`

	ID          int64     `json:"id" bun:"id,pk,autoincrement"`
	ReferralID  int64     `json:"referral_id" bun:"referral_id,notnull"`
	OrderID     string    `json:"order_id" bun:"order_id,notnull"`
	AmountCents int64     `json:"amount_cents" bun:"amount_cents,notnull"`
	PaidCents   int64     `json:"paid_cents" bun:"paid_cents,notnull,default:0"`
	CreatedAt   time.Time `json:"created_at" bun:"created_at,notnull"`
}

type CashbackDetail struct {
	ReferredID   int64 `json:"referred_id"`
	PendingCents int64 `json:"pending_cents"`
}

type CashbackSummary struct {
	PendingCents  int64            `json:"pending_cents"`
	ReferralCount int              `json:"referral_count"`
	Details       []CashbackDetail `json:"details"`
}
