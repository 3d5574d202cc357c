package refund

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"ms-wallet/internal/database"
	"ms-wallet/internal/models"
)

type DB struct {
	Store *database.Store
}

// InsertRefund writes a new pending refund row.
func (d *DB) InsertRefund(ctx context.Context, idb bun.IDB, r *models.Refund) error {
	_, err := idb.NewInsert().Model(r).Exec(ctx)
	return err
}

// GetPendingRefund loads a refund only while it is still pending, inside the
// caller's transaction. Returns nil when no pending row matches.
func (d *DB) GetPendingRefund(ctx context.Context, idb bun.IDB, refundID string) (*models.Refund, error) {
	var r models.Refund
	err := idb.NewSelect().
		Model(&r).
		Where("refund_id = ?", refundID).
		Where("status = ?", models.RefundStatusPending).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ResolveRefund writes the resolution fields guarded on pending status, so a
// racing double-resolution matches zero rows.
func (d *DB) ResolveRefund(ctx context.Context, idb bun.IDB, r *models.Refund) (bool, error) {
	res, err := idb.NewUpdate().
		Model(r).
		Column("approved_amount_cents", "handling_fee_cents", "final_refund_cents",
			"status", "resolved_by", "resolution_note", "resolved_at").
		Where("refund_id = ?", r.RefundID).
		Where("status = ?", models.RefundStatusPending).
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

// MarkOrderRefunded flips the order's status inside the approval transaction.
func (d *DB) MarkOrderRefunded(ctx context.Context, idb bun.IDB, orderID string) error {
	_, err := idb.NewUpdate().
		Model((*models.Order)(nil)).
		Set("status = ?", models.OrderStatusRefunded).
		Where("order_id = ?", orderID).
		Exec(ctx)
	return err
}

// GetRefundByID fetches one refund in any state. Returns nil when unknown.
func (d *DB) GetRefundByID(ctx context.Context, refundID string) (*models.Refund, error) {
	var r models.Refund
	err := d.Store.Bun.NewSelect().
		Model(&r).
		Where("refund_id = ?", refundID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetOrderByID reads the order a refund points at. Returns nil when unknown.
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

// ListPendingRefunds returns open requests, oldest first, for the staff queue.
func (d *DB) ListPendingRefunds(ctx context.Context) ([]models.Refund, error) {
	var refunds []models.Refund
	err := d.Store.Bun.NewSelect().
		Model(&refunds).
		Where("status = ?", models.RefundStatusPending).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return refunds, nil
}
