package order

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ms-wallet/internal/catalog"
	"ms-wallet/internal/config"
	"ms-wallet/internal/database"
	"ms-wallet/internal/ledger"
	"ms-wallet/internal/logger"
	"ms-wallet/internal/models"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishOrderCreated(o models.Order) error {
	args := m.Called(o)
	return args.Error(0)
}

type testEnv struct {
	store    *database.Store
	ledger   *ledger.Service
	catalog  *catalog.Service
	orders   *Service
	producer *MockPublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logger.NewLogger()
	store, err := database.Open(context.Background(), config.DatabaseConfig{
		Path:           filepath.Join(t.TempDir(), "wallet.db"),
		ConnectTimeout: 5 * time.Second,
	}, log)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ledgerSvc := ledger.NewService(store, log)
	catalogSvc := catalog.NewService(store, log)
	producer := &MockPublisher{}
	return &testEnv{
		store:    store,
		ledger:   ledgerSvc,
		catalog:  catalogSvc,
		orders:   NewService(store, ledgerSvc, catalogSvc, producer, log),
		producer: producer,
	}
}

func (e *testEnv) seedProduct(t *testing.T, id string, priceCents int64, active bool) {
	t.Helper()
	err := e.catalog.ImportProducts(context.Background(), []models.Product{{
		ProductID:  id,
		Category:   "accounts",
		Name:       "Test Product",
		PriceCents: priceCents,
		IsActive:   active,
	}})
	require.NoError(t, err)
}

func TestPurchaseProductExactBalance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedProduct(t, "prod-1", 5000, true)
	env.producer.On("PublishOrderCreated", mock.Anything).Return(nil)

	_, err := env.ledger.UpdateWalletBalance(ctx, 1, 5000)
	require.NoError(t, err)

	orderID, newBalance, err := env.orders.PurchaseProduct(ctx, 1, "prod-1", 5000, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, orderID)
	assert.Equal(t, int64(0), newBalance)

	o, err := env.orders.GetOrder(ctx, orderID)
	require.NoError(t, err)
	require.NotNil(t, o)
	assert.Equal(t, models.OrderStatusPending, o.Status)
	assert.Equal(t, int64(5000), o.PricePaidCents)

	txs, err := env.ledger.GetTransactions(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, int64(-5000), txs[0].AmountCents)
	assert.Equal(t, int64(0), txs[0].BalanceAfterCents)
	assert.Equal(t, models.TxTypePurchase, txs[0].Type)
	assert.Equal(t, orderID, txs[0].OrderID)

	user, err := env.ledger.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), user.TotalLifetimeSpentCents)

	env.producer.AssertCalled(t, "PublishOrderCreated", mock.Anything)
}

func TestPurchaseProductInsufficientBalanceLeavesNoTrace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedProduct(t, "prod-1", 5000, true)

	_, err := env.ledger.UpdateWalletBalance(ctx, 2, 4999)
	require.NoError(t, err)

	orderID, _, err := env.orders.PurchaseProduct(ctx, 2, "prod-1", 5000, 0)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Empty(t, orderID)

	balance, err := env.ledger.GetBalance(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(4999), balance)

	txs, err := env.ledger.GetTransactions(ctx, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, txs)

	orders, err := env.orders.GetOrdersForUser(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, orders)

	env.producer.AssertNotCalled(t, "PublishOrderCreated", mock.Anything)
}

func TestPurchaseProductUnknownOrInactive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, _, err := env.orders.PurchaseProduct(ctx, 3, "missing", 100, 0)
	assert.ErrorIs(t, err, ErrProductUnavailable)

	env.seedProduct(t, "prod-off", 100, false)
	_, _, err = env.orders.PurchaseProduct(ctx, 3, "prod-off", 100, 0)
	assert.ErrorIs(t, err, ErrProductUnavailable)
}

func TestPurchaseSurvivesPublishFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedProduct(t, "prod-1", 1000, true)
	env.producer.On("PublishOrderCreated", mock.Anything).Return(assert.AnError)

	_, err := env.ledger.UpdateWalletBalance(ctx, 4, 2000)
	require.NoError(t, err)

	orderID, newBalance, err := env.orders.PurchaseProduct(ctx, 4, "prod-1", 1000, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, orderID)
	assert.Equal(t, int64(1000), newBalance)
}

func TestOrderStatusTransitions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedProduct(t, "prod-1", 500, true)
	env.producer.On("PublishOrderCreated", mock.Anything).Return(nil)

	_, err := env.ledger.UpdateWalletBalance(ctx, 5, 1000)
	require.NoError(t, err)

	orderID, _, err := env.orders.PurchaseProduct(ctx, 5, "prod-1", 500, 0)
	require.NoError(t, err)

	require.NoError(t, env.orders.MarkFulfilled(ctx, orderID))
	o, err := env.orders.GetOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusFulfilled, o.Status)

	require.NoError(t, env.orders.MarkRefill(ctx, orderID))
	o, err = env.orders.GetOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusRefill, o.Status)
}

func TestRenewWarranty(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedProduct(t, "prod-1", 500, true)
	env.producer.On("PublishOrderCreated", mock.Anything).Return(nil)

	_, err := env.ledger.UpdateWalletBalance(ctx, 6, 1000)
	require.NoError(t, err)

	orderID, _, err := env.orders.PurchaseProduct(ctx, 6, "prod-1", 500, 0)
	require.NoError(t, err)

	expiresAt, err := env.orders.RenewWarranty(ctx, orderID, 30)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC().Add(30*24*time.Hour), expiresAt, time.Minute)

	o, err := env.orders.GetOrder(ctx, orderID)
	require.NoError(t, err)
	require.NotNil(t, o.WarrantyExpiresAt)
	assert.Equal(t, 1, o.RenewalCount)
}
