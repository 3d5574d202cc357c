package models

import (
	"time"

	"github.com/uptrace/bun"
)

// User holds the wallet state for one external user id. Rows are created on
// first reference and never deleted.
type User struct {
	bun.BaseModel `bun:"table:users"`

	UserID                  int64     `json:"user_id" bun:"user_id,pk"`
	WalletBalanceCents      int64     `json:"wallet_balance_cents" bun:"wallet_balance_cents,notnull,default:0"`
	TotalLifetimeSpentCents int64     `json:"total_lifetime_spent_cents" bun:"total_lifetime_spent_cents,notnull,default:0"`
	HasClientRole           bool      `json:"has_client_role" bun:"has_client_role,notnull,default:false"`
	ManuallyAssignedRoles   string    `json:"manually_assigned_roles,omitempty" bun:"manually_assigned_roles,nullzero"` // JSON array of role names
	CreatedAt               time.Time `json:"created_at" bun:"created_at,notnull"`
	UpdatedAt               time.Time `json:"updated_at" bun:"updated_at,notnull"`
}
