package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"ms-wallet/internal/database"
	"ms-wallet/internal/logger"
	"ms-wallet/internal/models"
)

type DBLayer interface {
	UpsertProduct(ctx context.Context, idb bun.IDB, p *models.Product) error
	DeactivateProduct(ctx context.Context, idb bun.IDB, productID string) (bool, error)
	GetProduct(ctx context.Context, productID string) (*models.Product, error)
	ListActiveByCategory(ctx context.Context, category string) ([]models.Product, error)
}

// Service maintains the product catalog. Imports upsert; nothing deletes.
type Service struct {
	Store  *database.Store
	DB     DBLayer
	Logger *logger.Logger
}

func NewService(store *database.Store, log *logger.Logger) *Service {
	return &Service{
		Store:  store,
		DB:     &DB{Store: store},
		Logger: log,
	}
}

// ImportProducts upserts a batch of catalog entries in one transaction.
func (s *Service) ImportProducts(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}
	now := time.Now().UTC()
	err := s.Store.RunInWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		for i := range products {
			p := &products[i]
			if p.CreatedAt.IsZero() {
				p.CreatedAt = now
			}
			p.UpdatedAt = now
			if err := s.DB.UpsertProduct(ctx, tx, p); err != nil {
				return fmt.Errorf("product %s: %w", p.ProductID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("import products: %w", err)
	}
	s.Logger.LogDatabase("IMPORT", "products", fmt.Sprintf("upserted %d products", len(products)))
	return nil
}

// DeactivateProduct retires a product without touching order history.
func (s *Service) DeactivateProduct(ctx context.Context, productID string) error {
	var found bool
	err := s.Store.RunInWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		ok, err := s.DB.DeactivateProduct(ctx, tx, productID)
		found = ok
		return err
	})
	if err != nil {
		return fmt.Errorf("deactivate product %s: %w", productID, err)
	}
	if !found {
		return fmt.Errorf("product %s not found", productID)
	}
	return nil
}

func (s *Service) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	return s.DB.GetProduct(ctx, productID)
}

func (s *Service) ListActive(ctx context.Context, category string) ([]models.Product, error) {
	return s.DB.ListActiveByCategory(ctx, category)
}
