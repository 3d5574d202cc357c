package catalog

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

// UpsertProduct inserts or refreshes one catalog row inside the caller's
// transaction. Price, naming and lifecycle flags follow the import; the
// original created_at is preserved.
func (d *DB) UpsertProduct(ctx context.Context, idb bun.IDB, p *models.Product) error {
	_, err := idb.NewInsert().
		Model(p).
		On("CONFLICT (product_id) DO UPDATE").
		Set("category = EXCLUDED.category").
		Set("subcategory = EXCLUDED.subcategory").
		Set("name = EXCLUDED.name").
		Set("price_cents = EXCLUDED.price_cents").
		Set("is_active = EXCLUDED.is_active").
		Set("delivery_type = EXCLUDED.delivery_type").
		Set("fulfillment_note = EXCLUDED.fulfillment_note").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

// DeactivateProduct flips is_active off. Products are never deleted so order
// history keeps a valid reference.
func (d *DB) DeactivateProduct(ctx context.Context, idb bun.IDB, productID string) (bool, error) {
	res, err := idb.NewUpdate().
		Model((*models.Product)(nil)).
		Set("is_active = ?", false).
		Set("updated_at = ?", time.Now().UTC()).
		Where("product_id = ?", productID).
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

// GetProduct fetches one product. Returns nil when unknown.
func (d *DB) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	var p models.Product
	err := d.Store.Bun.NewSelect().
		Model(&p).
		Where("product_id = ?", productID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListActiveByCategory returns active products, optionally narrowed to one
// category.
func (d *DB) ListActiveByCategory(ctx context.Context, category string) ([]models.Product, error) {
	var products []models.Product
	q := d.Store.Bun.NewSelect().
		Model(&products).
		Where("is_active = ?", true).
		Order("category", "subcategory", "name")
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return products, nil
}
