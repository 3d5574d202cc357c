package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"ms-wallet/internal/database"
	"ms-wallet/internal/ledger"
	"ms-wallet/internal/logger"
	"ms-wallet/internal/models"
)

// ErrInsufficientBalance is returned when a purchase would overdraw the
// wallet. The purchase leaves no trace beyond this error.
var ErrInsufficientBalance = errors.New("insufficient wallet balance")

// ErrProductUnavailable is returned for an unknown or deactivated product.
var ErrProductUnavailable = errors.New("product unavailable")

type DBLayer interface {
	InsertOrder(ctx context.Context, idb bun.IDB, o *models.Order) error
	GetOrderByID(ctx context.Context, orderID string) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, idb bun.IDB, orderID string, status models.OrderStatus) (bool, error)
	SetWarranty(ctx context.Context, idb bun.IDB, orderID string, expiresAt time.Time, bumpRenewal bool) (bool, error)
	GetOrdersForUser(ctx context.Context, userID int64) ([]models.Order, error)
}

type LedgerLayer interface {
	BalanceForUpdateTx(ctx context.Context, idb bun.IDB, userID int64) (int64, error)
	ApplyPurchaseDebitTx(ctx context.Context, idb bun.IDB, userID, priceCents int64) (int64, error)
	AppendTransactionTx(ctx context.Context, idb bun.IDB, p ledger.TxParams) (*models.WalletTransaction, error)
}

type CatalogLayer interface {
	GetProduct(ctx context.Context, productID string) (*models.Product, error)
}

type KafkaPublisher interface {
	PublishOrderCreated(o models.Order) error
}

// Service runs the purchase workflow: balance check, debit, order row and
// ledger entry as one atomic unit.
type Service struct {
	Store   *database.Store
	DB      DBLayer
	Ledger  LedgerLayer
	Catalog CatalogLayer
	Kafka   KafkaPublisher
	Logger  *logger.Logger
}

func NewService(store *database.Store, led LedgerLayer, cat CatalogLayer, kafka KafkaPublisher, log *logger.Logger) *Service {
	return &Service{
		Store:   store,
		DB:      &DB{Store: store},
		Ledger:  led,
		Catalog: cat,
		Kafka:   kafka,
		Logger:  log,
	}
}

// PurchaseProduct debits the wallet and creates the order in one write
// transaction. Either the debit, the order row and the ledger row all commit,
// or none of them exist.
func (s *Service) PurchaseProduct(ctx context.Context, userID int64, productID string, pricePaidCents int64, discountPercent float64) (string, int64, error) {
	if pricePaidCents < 0 {
		return "", 0, fmt.Errorf("purchase price must not be negative, got %d", pricePaidCents)
	}

	product, err := s.Catalog.GetProduct(ctx, productID)
	if err != nil {
		return "", 0, fmt.Errorf("looking up product %s: %w", productID, err)
	}
	if product == nil || !product.IsActive {
		return "", 0, ErrProductUnavailable
	}

	var (
		orderID    string
		newBalance int64
		placed     models.Order
	)
	err = s.Store.RunInWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		balance, err := s.Ledger.BalanceForUpdateTx(ctx, tx, userID)
		if err != nil {
			return err
		}
		if balance < pricePaidCents {
			return ErrInsufficientBalance
		}

		newBalance, err = s.Ledger.ApplyPurchaseDebitTx(ctx, tx, userID, pricePaidCents)
		if err != nil {
			return err
		}

		placed = models.Order{
			OrderID:                uuid.NewString(),
			UserID:                 userID,
			ProductID:              productID,
			PricePaidCents:         pricePaidCents,
			DiscountAppliedPercent: discountPercent,
			Status:                 models.OrderStatusPending,
			CreatedAt:              time.Now().UTC(),
		}
		if err := s.DB.InsertOrder(ctx, tx, &placed); err != nil {
			return err
		}

		_, err = s.Ledger.AppendTransactionTx(ctx, tx, ledger.TxParams{
			UserID:            userID,
			AmountCents:       -pricePaidCents,
			BalanceAfterCents: newBalance,
			Type:              models.TxTypePurchase,
			OrderID:           placed.OrderID,
			Metadata: map[string]any{
				"product_id":       productID,
				"discount_percent": discountPercent,
			},
		})
		if err != nil {
			return err
		}

		orderID = placed.OrderID
		return nil
	})
	if errors.Is(err, ErrInsufficientBalance) {
		s.Logger.LogOrder("REJECTED", productID, fmt.Sprintf("user=%d insufficient balance for %d", userID, pricePaidCents))
		return "", 0, ErrInsufficientBalance
	}
	if err != nil {
		return "", 0, fmt.Errorf("purchase product %s for user %d: %w", productID, userID, err)
	}

	s.Logger.LogOrder("CREATED", orderID, fmt.Sprintf("user=%d paid=%d new_balance=%d", userID, pricePaidCents, newBalance))

	if s.Kafka != nil {
		if err := s.Kafka.PublishOrderCreated(placed); err != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("publish order created: %v", err))
		}
	}

	return orderID, newBalance, nil
}

// GetOrder fetches one order, nil when unknown.
func (s *Service) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	return s.DB.GetOrderByID(ctx, orderID)
}

// GetOrdersForUser returns a user's order history.
func (s *Service) GetOrdersForUser(ctx context.Context, userID int64) ([]models.Order, error) {
	return s.DB.GetOrdersForUser(ctx, userID)
}

// MarkFulfilled transitions a pending order to fulfilled.
func (s *Service) MarkFulfilled(ctx context.Context, orderID string) error {
	return s.setStatus(ctx, orderID, models.OrderStatusFulfilled)
}

// MarkRefill transitions an order to refill after a replacement delivery.
func (s *Service) MarkRefill(ctx context.Context, orderID string) error {
	return s.setStatus(ctx, orderID, models.OrderStatusRefill)
}

func (s *Service) setStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	var found bool
	err := s.Store.RunInWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		ok, err := s.DB.UpdateOrderStatus(ctx, tx, orderID, status)
		found = ok
		return err
	})
	if err != nil {
		return fmt.Errorf("set order %s status %s: %w", orderID, status, err)
	}
	if !found {
		return fmt.Errorf("order %s not found", orderID)
	}
	s.Logger.LogOrder("STATUS", orderID, string(status))
	return nil
}

// RenewWarranty extends an order's warranty window and counts the renewal.
func (s *Service) RenewWarranty(ctx context.Context, orderID string, days int) (time.Time, error) {
	if days <= 0 {
		return time.Time{}, fmt.Errorf("warranty renewal days must be positive, got %d", days)
	}
	expiresAt := time.Now().UTC().AddDate(0, 0, days)
	var found bool
	err := s.Store.RunInWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		ok, err := s.DB.SetWarranty(ctx, tx, orderID, expiresAt, true)
		found = ok
		return err
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("renew warranty for order %s: %w", orderID, err)
	}
	if !found {
		return time.Time{}, fmt.Errorf("order %s not found", orderID)
	}
	s.Logger.LogOrder("WARRANTY", orderID, fmt.Sprintf("extended to %s", expiresAt.Format(time.RFC3339)))
	return expiresAt, nil
}
