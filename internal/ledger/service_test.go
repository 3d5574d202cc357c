package ledger

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"ms-wallet/internal/config"
	"ms-wallet/internal/database"
	"ms-wallet/internal/logger"
	"ms-wallet/internal/models"
)

func newTestStore(t *testing.T) *database.Store {
	t.Helper()
	store, err := database.Open(context.Background(), config.DatabaseConfig{
		Path:           filepath.Join(t.TempDir(), "wallet.db"),
		ConnectTimeout: 5 * time.Second,
	}, logger.NewLogger())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestUpdateWalletBalanceCreatesUser(t *testing.T) {
	store := newTestStore(t)
	svc := NewService(store, logger.NewLogger())
	ctx := context.Background()

	balance, err := svc.UpdateWalletBalance(ctx, 42, 1500)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), balance)

	user, err := svc.GetUser(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, int64(1500), user.WalletBalanceCents)
	assert.Equal(t, int64(1500), user.TotalLifetimeSpentCents)
}

func TestUpdateWalletBalanceLifetimeOnlyGrowsOnCredits(t *testing.T) {
	store := newTestStore(t)
	svc := NewService(store, logger.NewLogger())
	ctx := context.Background()

	_, err := svc.UpdateWalletBalance(ctx, 7, 1000)
	require.NoError(t, err)

	balance, err := svc.UpdateWalletBalance(ctx, 7, -400)
	require.NoError(t, err)
	assert.Equal(t, int64(600), balance)

	user, err := svc.GetUser(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(600), user.WalletBalanceCents)
	// The debit must not shrink lifetime spend
	assert.Equal(t, int64(1000), user.TotalLifetimeSpentCents)
}

func TestConcurrentDeltasSerialize(t *testing.T) {
	store := newTestStore(t)
	svc := NewService(store, logger.NewLogger())
	ctx := context.Background()

	deltas := []int64{500, -200, 300, 1000, -100, 250, -50, 700}
	var wantBalance, wantLifetime int64
	for _, d := range deltas {
		wantBalance += d
		if d > 0 {
			wantLifetime += d
		}
	}

	var wg sync.WaitGroup
	for _, d := range deltas {
		wg.Add(1)
		go func(delta int64) {
			defer wg.Done()
			_, err := svc.UpdateWalletBalance(ctx, 99, delta)
			assert.NoError(t, err)
		}(d)
	}
	wg.Wait()

	user, err := svc.GetUser(ctx, 99)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, wantBalance, user.WalletBalanceCents)
	assert.Equal(t, wantLifetime, user.TotalLifetimeSpentCents)
}

func TestAdjustBalanceWritesBalanceAndRow(t *testing.T) {
	store := newTestStore(t)
	svc := NewService(store, logger.NewLogger())
	ctx := context.Background()

	txID, balance, err := svc.AdjustBalance(ctx, TxParams{
		UserID:      11,
		AmountCents: 2500,
		Type:        models.TxTypeAdminCredit,
		StaffID:     3,
		Metadata:    map[string]any{"reason": "goodwill"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, txID)
	assert.Equal(t, int64(2500), balance)

	txs, err := svc.GetTransactions(ctx, 11, 10)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, txID, txs[0].TxID)
	assert.Equal(t, int64(2500), txs[0].BalanceAfterCents)
	assert.Equal(t, models.TxTypeAdminCredit, txs[0].Type)
	assert.Equal(t, int64(3), txs[0].StaffID)
}

// rowInsertFails applies balance changes normally but refuses the audit row,
// so AdjustBalance must abort the whole transaction.
type rowInsertFails struct {
	DBLayer
}

func (d *rowInsertFails) InsertTransaction(ctx context.Context, idb bun.IDB, row *models.WalletTransaction) error {
	return assert.AnError
}

func TestAdjustBalanceRollsBackWhenRowInsertFails(t *testing.T) {
	store := newTestStore(t)
	svc := NewService(store, logger.NewLogger())
	ctx := context.Background()

	_, err := svc.UpdateWalletBalance(ctx, 12, 1000)
	require.NoError(t, err)

	svc.DB = &rowInsertFails{DBLayer: svc.DB}

	_, _, err = svc.AdjustBalance(ctx, TxParams{
		UserID:      12,
		AmountCents: 500,
		Type:        models.TxTypeAdminCredit,
	})
	require.Error(t, err)

	// The balance change rolled back with the failed row
	svc.DB = &DB{Store: store}
	balance, err := svc.GetBalance(ctx, 12)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), balance)

	txs, err := svc.GetTransactions(ctx, 12, 10)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestGetBalanceUnknownUserIsZero(t *testing.T) {
	store := newTestStore(t)
	svc := NewService(store, logger.NewLogger())

	balance, err := svc.GetBalance(context.Background(), 123456)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)
}

func TestLogWalletTransaction(t *testing.T) {
	store := newTestStore(t)
	svc := NewService(store, logger.NewLogger())
	ctx := context.Background()

	txID, err := svc.LogWalletTransaction(ctx, TxParams{
		UserID:            5,
		AmountCents:       -2500,
		BalanceAfterCents: 7500,
		Type:              models.TxTypePurchase,
		OrderID:           "ord-1",
		Metadata:          map[string]any{"product_id": "prod-1"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, txID)

	txs, err := svc.GetTransactions(ctx, 5, 10)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, txID, txs[0].TxID)
	assert.Equal(t, int64(-2500), txs[0].AmountCents)
	assert.Equal(t, models.TxTypePurchase, txs[0].Type)
	assert.JSONEq(t, `{"product_id":"prod-1"}`, txs[0].Metadata)
}

func TestGetTransactionsNewestFirst(t *testing.T) {
	store := newTestStore(t)
	svc := NewService(store, logger.NewLogger())
	ctx := context.Background()

	for i, amount := range []int64{100, 200, 300} {
		_, err := svc.LogWalletTransaction(ctx, TxParams{
			UserID:            8,
			AmountCents:       amount,
			BalanceAfterCents: amount,
			Type:              models.TxTypeTopup,
			Metadata:          map[string]any{"seq": i},
		})
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}

	txs, err := svc.GetTransactions(ctx, 8, 2)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, int64(300), txs[0].AmountCents)
	assert.Equal(t, int64(200), txs[1].AmountCents)
}

func TestEncodeMetadata(t *testing.T) {
	svc := &Service{Logger: logger.NewLogger()}

	assert.Equal(t, "", svc.encodeMetadata(nil))
	assert.Equal(t, `{"a":1}`, svc.encodeMetadata(`{"a":1}`))
	// Invalid JSON strings are dropped rather than stored broken
	assert.Equal(t, "", svc.encodeMetadata("not json"))
	assert.JSONEq(t, `{"k":"v"}`, svc.encodeMetadata(map[string]any{"k": "v"}))
}
