package models

import (
	"time"

	"github.com/uptrace/bun"
)

type TransactionType string

const (
	TxTypePurchase         TransactionType = "purchase"
	TxTypeRefund           TransactionType = "refund"
	TxTypeTopup            TransactionType = "topup"
	TxTypeAdminCredit      TransactionType = "admin_credit"
	TxTypeAdminDebit       TransactionType = "admin_debit"
	TxTypeReferralCashback TransactionType = "referral_cashback"
)

// WalletTransaction is one append-only ledger row. Rows are never updated or
// deleted; they are the audit source of truth for every balance change.
type WalletTransaction struct {
	bun.BaseModel `bun:"table:wallet_transactions"`

	TxID              string          `json:"tx_id" bun:"tx_id,pk"`
	UserID            int64           `json:"user_id" bun:"user_id,notnull"`
	AmountCents       int64           `json:"amount_cents" bun:"amount_cents,notnull"`
	BalanceAfterCents int64           `json:"balance_after_cents" bun:"balance_after_cents,notnull"`
	Type              TransactionType `json:"transaction_type" bun:"transaction_type,notnull"`
	OrderID           string          `json:"order_id,omitempty" bun:"order_id,nullzero"`
	TicketID          string          `json:"ticket_id,omitempty" bun:"ticket_id,nullzero"`
	StaffID           int64           `json:"staff_id,omitempty" bun:"staff_id,nullzero"`
	Metadata          string          `json:"metadata,omitempty" bun:"metadata,nullzero"`
	CreatedAt         time.Time       `json:"created_at" bun:"created_at,notnull"`
}
