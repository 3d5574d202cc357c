package referral

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

// GetReferralByReferred loads the edge pointing at a referred user, nil when
// the user has no referrer.
func (d *DB) GetReferralByReferred(ctx context.Context, idb bun.IDB, referredID int64) (*models.Referral, error) {
	var r models.Referral
	err := idb.NewSelect().
		Model(&r).
		Where("referred_id = ?", referredID).
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

// InsertReferral writes a new referrer -> referred edge.
func (d *DB) InsertReferral(ctx context.Context, idb bun.IDB, r *models.Referral) error {
	_, err := idb.NewInsert().Model(r).Exec(ctx)
	return err
}

// InsertAccrual writes one cashback accrual against an edge.
func (d *DB) InsertAccrual(ctx context.Context, idb bun.IDB, a *models.ReferralAccrual) error {
	_, err := idb.NewInsert().Model(a).Exec(ctx)
	return err
}

// GetReferralsForReferrer returns every edge owned by a referrer, oldest
// first.
func (d *DB) GetReferralsForReferrer(ctx context.Context, idb bun.IDB, referrerID int64) ([]models.Referral, error) {
	var refs []models.Referral
	err := idb.NewSelect().
		Model(&refs).
		Where("referrer_id = ?", referrerID).
		Order("created_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return refs, nil
}

// GetUnpaidAccruals returns accrual rows on an edge that still carry an
// unsettled remainder, oldest first.
func (d *DB) GetUnpaidAccruals(ctx context.Context, idb bun.IDB, referralID int64) ([]models.ReferralAccrual, error) {
	var accruals []models.ReferralAccrual
	err := idb.NewSelect().
		Model(&accruals).
		Where("referral_id = ?", referralID).
		Where("paid_cents < amount_cents").
		Order("created_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return accruals, nil
}

// PendingForReferral sums the unsettled remainder on one edge.
func (d *DB) PendingForReferral(ctx context.Context, idb bun.IDB, referralID int64) (int64, error) {
	var pending int64
	err := idb.NewSelect().
		Model((*models.ReferralAccrual)(nil)).
		ColumnExpr("COALESCE(SUM(amount_cents - paid_cents), 0)").
		Where("referral_id = ?", referralID).
		Scan(ctx, &pending)
	if err != nil {
		return 0, err
	}
	return pending, nil
}

// UpdateAccrualPaid stores a new settled amount on one accrual row.
func (d *DB) UpdateAccrualPaid(ctx context.Context, idb bun.IDB, accrualID, paidCents int64) error {
	_, err := idb.NewUpdate().
		Model((*models.ReferralAccrual)(nil)).
		Set("paid_cents = ?", paidCents).
		Where("id = ?", accrualID).
		Exec(ctx)
	return err
}

// AddToTotalPaid bumps the lifetime settled counter on an edge.
func (d *DB) AddToTotalPaid(ctx context.Context, idb bun.IDB, referralID, deltaCents int64) error {
	_, err := idb.NewUpdate().
		Model((*models.Referral)(nil)).
		Set("total_paid_cents = total_paid_cents + ?", deltaCents).
		Where("id = ?", referralID).
		Exec(ctx)
	return err
}

// SetBlacklistedForReferrer flips the blacklist flag on every edge a referrer
// owns, returning how many edges changed.
func (d *DB) SetBlacklistedForReferrer(ctx context.Context, idb bun.IDB, referrerID int64, blacklisted bool) (int64, error) {
	res, err := idb.NewUpdate().
		Model((*models.Referral)(nil)).
		Set("blacklisted = ?", blacklisted).
		Where("referrer_id = ?", referrerID).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
