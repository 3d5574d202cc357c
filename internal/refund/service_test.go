package refund

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-wallet/internal/catalog"
	"ms-wallet/internal/config"
	"ms-wallet/internal/database"
	"ms-wallet/internal/ledger"
	"ms-wallet/internal/logger"
	"ms-wallet/internal/models"
	"ms-wallet/internal/order"
)

type testEnv struct {
	store   *database.Store
	ledger  *ledger.Service
	orders  *order.Service
	refunds *Service
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
	return &testEnv{
		store:   store,
		ledger:  ledgerSvc,
		orders:  order.NewService(store, ledgerSvc, catalogSvc, nil, log),
		refunds: NewService(store, ledgerSvc, nil, 10.0, log),
	}
}

// placeOrder tops up the wallet, buys prod-1 and returns the order id.
func (e *testEnv) placeOrder(t *testing.T, userID, priceCents int64) string {
	t.Helper()
	ctx := context.Background()
	catalogSvc := catalog.NewService(e.store, logger.NewLogger())
	err := catalogSvc.ImportProducts(ctx, []models.Product{{
		ProductID:  "prod-1",
		Category:   "accounts",
		Name:       "Test Product",
		PriceCents: priceCents,
		IsActive:   true,
	}})
	require.NoError(t, err)

	_, err = e.ledger.UpdateWalletBalance(ctx, userID, priceCents)
	require.NoError(t, err)

	orderID, _, err := e.orders.PurchaseProduct(ctx, userID, "prod-1", priceCents, 0)
	require.NoError(t, err)
	return orderID
}

func TestComputeFee(t *testing.T) {
	fee, final := ComputeFee(2000, 10.0)
	assert.Equal(t, int64(200), fee)
	assert.Equal(t, int64(1800), final)

	// The fee rounds down
	fee, final = ComputeFee(999, 10.0)
	assert.Equal(t, int64(99), fee)
	assert.Equal(t, int64(900), final)

	fee, final = ComputeFee(2000, 0)
	assert.Equal(t, int64(0), fee)
	assert.Equal(t, int64(2000), final)
}

func TestApproveRefundCreditsNetAmount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	orderID := env.placeOrder(t, 1, 2000)

	refundID, err := env.refunds.CreateRefundRequest(ctx, orderID, 1, 2000, "not as described")
	require.NoError(t, err)

	resolved, err := env.refunds.ApproveRefund(ctx, refundID, 900, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, models.RefundStatusApproved, resolved.Status)
	assert.Equal(t, int64(2000), resolved.RequestedAmountCents)
	assert.Equal(t, int64(2000), resolved.ApprovedAmountCents)
	assert.Equal(t, int64(200), resolved.HandlingFeeCents)
	assert.Equal(t, int64(1800), resolved.FinalRefundCents)
	assert.Equal(t, int64(900), resolved.ResolvedBy)
	require.NotNil(t, resolved.ResolvedAt)

	balance, err := env.ledger.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1800), balance)

	o, err := env.orders.GetOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusRefunded, o.Status)

	txs, err := env.ledger.GetTransactions(ctx, 1, 10)
	require.NoError(t, err)
	require.NotEmpty(t, txs)
	assert.Equal(t, models.TxTypeRefund, txs[0].Type)
	assert.Equal(t, int64(1800), txs[0].AmountCents)
	assert.Equal(t, int64(900), txs[0].StaffID)
}

func TestApproveRefundWithOverrides(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	orderID := env.placeOrder(t, 2, 2000)

	refundID, err := env.refunds.CreateRefundRequest(ctx, orderID, 2, 2000, "partial")
	require.NoError(t, err)

	amount := int64(1000)
	pct := 0.0
	resolved, err := env.refunds.ApproveRefund(ctx, refundID, 900, &amount, &pct)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), resolved.ApprovedAmountCents)
	assert.Equal(t, int64(0), resolved.HandlingFeeCents)
	assert.Equal(t, int64(1000), resolved.FinalRefundCents)
	// The user's original request stays on the row
	assert.Equal(t, int64(2000), resolved.RequestedAmountCents)

	balance, err := env.ledger.GetBalance(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), balance)

	rf, err := env.refunds.GetRefund(ctx, refundID)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), rf.RequestedAmountCents)
	assert.Equal(t, int64(1000), rf.ApprovedAmountCents)
}

func TestApproveRefundOnlyOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	orderID := env.placeOrder(t, 3, 2000)

	refundID, err := env.refunds.CreateRefundRequest(ctx, orderID, 3, 2000, "dup")
	require.NoError(t, err)

	_, err = env.refunds.ApproveRefund(ctx, refundID, 900, nil, nil)
	require.NoError(t, err)

	_, err = env.refunds.ApproveRefund(ctx, refundID, 900, nil, nil)
	assert.ErrorIs(t, err, ErrRefundNotFound)

	// Still only one credit
	balance, err := env.ledger.GetBalance(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1800), balance)
}

func TestApproveUnknownRefund(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.refunds.ApproveRefund(context.Background(), "ref_missing", 900, nil, nil)
	assert.ErrorIs(t, err, ErrRefundNotFound)
}

func TestRejectRefundHasNoWalletEffect(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	orderID := env.placeOrder(t, 4, 2000)

	refundID, err := env.refunds.CreateRefundRequest(ctx, orderID, 4, 2000, "buyer remorse")
	require.NoError(t, err)

	require.NoError(t, env.refunds.RejectRefund(ctx, refundID, 900, "outside policy"))

	rf, err := env.refunds.GetRefund(ctx, refundID)
	require.NoError(t, err)
	assert.Equal(t, models.RefundStatusRejected, rf.Status)
	assert.Equal(t, "outside policy", rf.ResolutionNote)

	balance, err := env.ledger.GetBalance(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)

	o, err := env.orders.GetOrder(ctx, orderID)
	require.NoError(t, err)
	assert.NotEqual(t, models.OrderStatusRefunded, o.Status)
}

func TestValidateOrderForRefund(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	orderID := env.placeOrder(t, 5, 2000)

	// Pending orders are not eligible yet
	o, err := env.refunds.ValidateOrderForRefund(ctx, orderID, 5, 14)
	require.NoError(t, err)
	assert.Nil(t, o)

	require.NoError(t, env.orders.MarkFulfilled(ctx, orderID))

	o, err = env.refunds.ValidateOrderForRefund(ctx, orderID, 5, 14)
	require.NoError(t, err)
	require.NotNil(t, o)
	assert.Equal(t, orderID, o.OrderID)

	// Wrong owner
	o, err = env.refunds.ValidateOrderForRefund(ctx, orderID, 6, 14)
	require.NoError(t, err)
	assert.Nil(t, o)

	// Unknown order
	o, err = env.refunds.ValidateOrderForRefund(ctx, "missing", 5, 14)
	require.NoError(t, err)
	assert.Nil(t, o)
}

func TestListPendingRefunds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	orderID := env.placeOrder(t, 7, 2000)

	refundID, err := env.refunds.CreateRefundRequest(ctx, orderID, 7, 2000, "first")
	require.NoError(t, err)

	pending, err := env.refunds.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, refundID, pending[0].RefundID)

	require.NoError(t, env.refunds.RejectRefund(ctx, refundID, 900, "no"))

	pending, err = env.refunds.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
