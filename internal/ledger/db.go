package ledger

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"ms-wallet/internal/database"
	"ms-wallet/internal/models"
)

type DB struct {
	Store *database.Store
}

// UpsertUser creates the user row on first reference. Mutating helpers take a
// bun.IDB so they run inside whatever transaction the caller already holds;
// they never commit or roll back themselves.
func (d *DB) UpsertUser(ctx context.Context, idb bun.IDB, userID int64) error {
	now := time.Now().UTC()
	user := models.User{
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := idb.NewInsert().
		Model(&user).
		On("CONFLICT (user_id) DO NOTHING").
		Exec(ctx)
	return err
}

// ApplyDelta adjusts the wallet balance and, for positive deltas only, the
// lifetime spend. Returns the balance after the change.
func (d *DB) ApplyDelta(ctx context.Context, idb bun.IDB, userID, deltaCents int64) (int64, error) {
	if err := d.UpsertUser(ctx, idb, userID); err != nil {
		return 0, err
	}

	q := idb.NewUpdate().
		Model((*models.User)(nil)).
		Set("wallet_balance_cents = wallet_balance_cents + ?", deltaCents).
		Set("updated_at = ?", time.Now().UTC()).
		Where("user_id = ?", userID)
	if deltaCents > 0 {
		q = q.Set("total_lifetime_spent_cents = total_lifetime_spent_cents + ?", deltaCents)
	}
	if _, err := q.Exec(ctx); err != nil {
		return 0, err
	}

	return d.Balance(ctx, idb, userID)
}

// ApplyPurchaseDebit debits the price from the balance and credits the full
// price to lifetime spend in one statement. Purchases are the only deltas
// that count toward lifetime spend while reducing the balance.
func (d *DB) ApplyPurchaseDebit(ctx context.Context, idb bun.IDB, userID, priceCents int64) (int64, error) {
	_, err := idb.NewUpdate().
		Model((*models.User)(nil)).
		Set("wallet_balance_cents = wallet_balance_cents - ?", priceCents).
		Set("total_lifetime_spent_cents = total_lifetime_spent_cents + ?", priceCents).
		Set("updated_at = ?", time.Now().UTC()).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return d.Balance(ctx, idb, userID)
}

// Balance reads the current balance inside the caller's transaction.
func (d *DB) Balance(ctx context.Context, idb bun.IDB, userID int64) (int64, error) {
	var balance int64
	err := idb.NewSelect().
		Model((*models.User)(nil)).
		Column("wallet_balance_cents").
		Where("user_id = ?", userID).
		Scan(ctx, &balance)
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// InsertTransaction appends one immutable ledger row.
func (d *DB) InsertTransaction(ctx context.Context, idb bun.IDB, row *models.WalletTransaction) error {
	_, err := idb.NewInsert().Model(row).Exec(ctx)
	return err
}

// GetUser fetches one user row. Returns nil when the user has never been
// referenced.
func (d *DB) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	var user models.User
	err := d.Store.Bun.NewSelect().
		Model(&user).
		Where("user_id = ?", userID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetTransactionsForUser returns the newest ledger rows for a user.
func (d *DB) GetTransactionsForUser(ctx context.Context, userID int64, limit int) ([]models.WalletTransaction, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []models.WalletTransaction
	err := d.Store.Bun.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
