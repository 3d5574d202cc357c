package order

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

// InsertOrder writes the order row inside the caller's purchase transaction.
func (d *DB) InsertOrder(ctx context.Context, idb bun.IDB, o *models.Order) error {
	_, err := idb.NewInsert().Model(o).Exec(ctx)
	return err
}

// GetOrderByID fetches one order. Returns nil when unknown.
func (d *DB) GetOrderByID(ctx context.Context, orderID string) (*models.Order, error) {
	var o models.Order
	err := d.Store.Bun.NewSelect().
		Model(&o).
		Where("order_id = ?", orderID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// UpdateOrderStatus transitions an order's status inside the caller's
// transaction. Reports whether a row matched.
func (d *DB) UpdateOrderStatus(ctx context.Context, idb bun.IDB, orderID string, status models.OrderStatus) (bool, error) {
	res, err := idb.NewUpdate().
		Model((*models.Order)(nil)).
		Set("status = ?", status).
		Where("order_id = ?", orderID).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// SetWarranty stamps a warranty expiry and bumps the renewal counter.
func (d *DB) SetWarranty(ctx context.Context, idb bun.IDB, orderID string, expiresAt time.Time, bumpRenewal bool) (bool, error) {
	q := idb.NewUpdate().
		Model((*models.Order)(nil)).
		Set("warranty_expires_at = ?", expiresAt).
		Where("order_id = ?", orderID)
	if bumpRenewal {
		q = q.Set("renewal_count = renewal_count + 1")
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// GetOrdersForUser returns a user's orders, newest first.
func (d *DB) GetOrdersForUser(ctx context.Context, userID int64) ([]models.Order, error) {
	var orders []models.Order
	err := d.Store.Bun.NewSelect().
		Model(&orders).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return orders, nil
}
