package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

// All returns the ordered migration registry. New migrations are appended
// with the next version number; existing entries are never edited or
// reordered once a release has shipped them.
func All() []Migration {
	return []Migration{
		{Version: 1, Name: "create_users", Up: createUsers},
		{Version: 2, Name: "create_products", Up: createProducts},
		{Version: 3, Name: "create_orders", Up: createOrders},
		{Version: 4, Name: "create_wallet_transactions", Up: createWalletTransactions},
		{Version: 5, Name: "create_refunds", Up: createRefunds},
		{Version: 6, Name: "create_referrals", Up: createReferrals},
		{Version: 7, Name: "create_ticket_counters", Up: createTicketCounters},
		{Version: 8, Name: "add_order_warranty_columns", Up: addOrderWarrantyColumns},
		{Version: 9, Name: "add_referral_blacklist_column", Up: addReferralBlacklistColumn},
		{Version: 10, Name: "add_refund_approved_amount_column", Up: addRefundApprovedAmountColumn},
	}
}

func createUsers(ctx context.Context, tx bun.Tx) error {
	_, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			user_id                    INTEGER PRIMARY KEY,
			wallet_balance_cents       INTEGER NOT NULL DEFAULT 0,
			total_lifetime_spent_cents INTEGER NOT NULL DEFAULT 0,
			has_client_role            INTEGER NOT NULL DEFAULT 0,
			manually_assigned_roles    TEXT,
			created_at                 TIMESTAMP NOT NULL,
			updated_at                 TIMESTAMP NOT NULL
		)
	`)
	return err
}

func createProducts(ctx context.Context, tx bun.Tx) error {
	_, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS products (
			product_id       TEXT PRIMARY KEY,
			category         TEXT NOT NULL,
			subcategory      TEXT,
			name             TEXT NOT NULL,
			price_cents      INTEGER NOT NULL,
			is_active        INTEGER NOT NULL DEFAULT 1,
			delivery_type    TEXT,
			fulfillment_note TEXT,
			created_at       TIMESTAMP NOT NULL,
			updated_at       TIMESTAMP NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_products_category
			ON products(category, subcategory);
	`)
	return err
}

func createOrders(ctx context.Context, tx bun.Tx) error {
	_, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS orders (
			order_id                 TEXT PRIMARY KEY,
			user_id                  INTEGER NOT NULL REFERENCES users(user_id),
			product_id               TEXT NOT NULL REFERENCES products(product_id),
			price_paid_cents         INTEGER NOT NULL,
			discount_applied_percent REAL NOT NULL DEFAULT 0,
			status                   TEXT NOT NULL DEFAULT 'pending',
			created_at               TIMESTAMP NOT NULL,

			CHECK (status IN ('pending', 'fulfilled', 'refill', 'refunded'))
		);

		CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id, created_at);
	`)
	return err
}

func createWalletTransactions(ctx context.Context, tx bun.Tx) error {
	_, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS wallet_transactions (
			tx_id               TEXT PRIMARY KEY,
			user_id             INTEGER NOT NULL REFERENCES users(user_id),
			amount_cents        INTEGER NOT NULL,
			balance_after_cents INTEGER NOT NULL,
			transaction_type    TEXT NOT NULL,
			order_id            TEXT,
			ticket_id           TEXT,
			staff_id            INTEGER,
			metadata            TEXT,
			created_at          TIMESTAMP NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_wallet_tx_user
			ON wallet_transactions(user_id, created_at);
		CREATE INDEX IF NOT EXISTS idx_wallet_tx_order
			ON wallet_transactions(order_id);
	`)
	return err
}

func createRefunds(ctx context.Context, tx bun.Tx) error {
	_, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS refunds (
			refund_id              TEXT PRIMARY KEY,
			order_id               TEXT NOT NULL REFERENCES orders(order_id),
			user_id                INTEGER NOT NULL REFERENCES users(user_id),
			requested_amount_cents INTEGER NOT NULL,
			handling_fee_cents     INTEGER NOT NULL,
			final_refund_cents     INTEGER NOT NULL,
			status                 TEXT NOT NULL DEFAULT 'pending',
			reason                 TEXT,
			resolved_by            INTEGER,
			resolution_note        TEXT,
			resolved_at            TIMESTAMP,
			created_at             TIMESTAMP NOT NULL,

			CHECK (status IN ('pending', 'approved', 'rejected'))
		);

		CREATE INDEX IF NOT EXISTS idx_refunds_status ON refunds(status);
	`)
	return err
}

func createReferrals(ctx context.Context, tx bun.Tx) error {
	_, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS referrals (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			referrer_id      INTEGER NOT NULL,
			referred_id      INTEGER NOT NULL UNIQUE,
			total_paid_cents INTEGER NOT NULL DEFAULT 0,
			created_at       TIMESTAMP NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_referrals_referrer ON referrals(referrer_id);

		CREATE TABLE IF NOT EXISTS referral_accruals (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			referral_id  INTEGER NOT NULL REFERENCES referrals(id),
			order_id     TEXT NOT NULL,
			amount_cents INTEGER NOT NULL,
			paid_cents   INTEGER NOT NULL DEFAULT 0,
			created_at   TIMESTAMP NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_accruals_referral
			ON referral_accruals(referral_id, created_at);
	`)
	return err
}

func createTicketCounters(ctx context.Context, tx bun.Tx) error {
	_, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS ticket_counters (
			user_id     INTEGER NOT NULL,
			ticket_type TEXT NOT NULL,
			next_count  INTEGER NOT NULL DEFAULT 1,
			PRIMARY KEY (user_id, ticket_type)
		)
	`)
	return err
}

func addOrderWarrantyColumns(ctx context.Context, tx bun.Tx) error {
	if err := addColumnIfMissing(ctx, tx, "orders", "warranty_expires_at", "TIMESTAMP"); err != nil {
		return err
	}
	return addColumnIfMissing(ctx, tx, "orders", "renewal_count", "INTEGER NOT NULL DEFAULT 0")
}

func addReferralBlacklistColumn(ctx context.Context, tx bun.Tx) error {
	return addColumnIfMissing(ctx, tx, "referrals", "blacklisted", "INTEGER NOT NULL DEFAULT 0")
}

func addRefundApprovedAmountColumn(ctx context.Context, tx bun.Tx) error {
	return addColumnIfMissing(ctx, tx, "refunds", "approved_amount_cents", "INTEGER")
}
