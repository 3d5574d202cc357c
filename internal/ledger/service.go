package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"ms-wallet/internal/database"
	"ms-wallet/internal/logger"
	"ms-wallet/internal/models"
	"ms-wallet/internal/utils"
)

type DBLayer interface {
	UpsertUser(ctx context.Context, idb bun.IDB, userID int64) error
	ApplyDelta(ctx context.Context, idb bun.IDB, userID, deltaCents int64) (int64, error)
	ApplyPurchaseDebit(ctx context.Context, idb bun.IDB, userID, priceCents int64) (int64, error)
	Balance(ctx context.Context, idb bun.IDB, userID int64) (int64, error)
	InsertTransaction(ctx context.Context, idb bun.IDB, row *models.WalletTransaction) error
	GetUser(ctx context.Context, userID int64) (*models.User, error)
	GetTransactionsForUser(ctx context.Context, userID int64, limit int) ([]models.WalletTransaction, error)
}

// Service is the ledger core: atomic balance mutation, lifetime-spend
// accounting and the append-only wallet transaction log.
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

// TxParams describes one ledger entry to append. Metadata accepts a map
// (encoded to JSON) or a pre-encoded JSON string.
type TxParams struct {
	UserID            int64
	AmountCents       int64
	BalanceAfterCents int64
	Type              models.TransactionType
	OrderID           string
	TicketID          string
	StaffID           int64
	Metadata          any
}

// UpdateWalletBalance applies deltaCents to the user's wallet under the
// store-wide write mutex and returns the new balance. Lifetime spend grows
// only on positive deltas; clawbacks and admin debits never reduce it.
func (s *Service) UpdateWalletBalance(ctx context.Context, userID, deltaCents int64) (int64, error) {
	var newBalance int64
	err := s.Store.RunInWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		balance, err := s.DB.ApplyDelta(ctx, tx, userID, deltaCents)
		if err != nil {
			return err
		}
		newBalance = balance
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("update wallet balance for user %d: %w", userID, err)
	}
	s.Logger.LogLedger("BALANCE", userID, fmt.Sprintf("delta=%d new_balance=%d", deltaCents, newBalance))
	return newBalance, nil
}

// LogWalletTransaction appends one audit row as its own write transaction.
func (s *Service) LogWalletTransaction(ctx context.Context, p TxParams) (string, error) {
	var txID string
	err := s.Store.RunInWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		row, err := s.AppendTransactionTx(ctx, tx, p)
		if err != nil {
			return err
		}
		txID = row.TxID
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("log wallet transaction for user %d: %w", p.UserID, err)
	}
	return txID, nil
}

// AdjustBalance applies deltaCents and appends the matching audit row in one
// write transaction. A failed insert rolls the balance change back, so the
// ledger never shows a mutation without its row.
func (s *Service) AdjustBalance(ctx context.Context, p TxParams) (string, int64, error) {
	var (
		txID       string
		newBalance int64
	)
	err := s.Store.RunInWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		balance, err := s.DB.ApplyDelta(ctx, tx, p.UserID, p.AmountCents)
		if err != nil {
			return err
		}
		newBalance = balance
		p.BalanceAfterCents = balance

		row, err := s.AppendTransactionTx(ctx, tx, p)
		if err != nil {
			return err
		}
		txID = row.TxID
		return nil
	})
	if err != nil {
		return "", 0, fmt.Errorf("adjust balance for user %d: %w", p.UserID, err)
	}
	s.Logger.LogLedger("ADJUST", p.UserID, fmt.Sprintf("delta=%d new_balance=%d tx=%s", p.AmountCents, newBalance, txID))
	return txID, newBalance, nil
}

// BalanceForUpdateTx ensures the user row exists and reads the balance inside
// the caller's transaction. Used by workflows that must check funds before
// writing anything.
func (s *Service) BalanceForUpdateTx(ctx context.Context, idb bun.IDB, userID int64) (int64, error) {
	if err := s.DB.UpsertUser(ctx, idb, userID); err != nil {
		return 0, err
	}
	return s.DB.Balance(ctx, idb, userID)
}

// ApplyDeltaTx is the transaction-scoped form of UpdateWalletBalance for
// composition inside a caller's transaction. Rollback authority stays with
// whichever call started the transaction.
func (s *Service) ApplyDeltaTx(ctx context.Context, idb bun.IDB, userID, deltaCents int64) (int64, error) {
	return s.DB.ApplyDelta(ctx, idb, userID, deltaCents)
}

// ApplyPurchaseDebitTx debits a purchase price and credits lifetime spend in
// the caller's transaction.
func (s *Service) ApplyPurchaseDebitTx(ctx context.Context, idb bun.IDB, userID, priceCents int64) (int64, error) {
	return s.DB.ApplyPurchaseDebit(ctx, idb, userID, priceCents)
}

// AppendTransactionTx appends a ledger row inside the caller's transaction.
func (s *Service) AppendTransactionTx(ctx context.Context, idb bun.IDB, p TxParams) (*models.WalletTransaction, error) {
	row := &models.WalletTransaction{
		TxID:              utils.GenerateTransactionID(),
		UserID:            p.UserID,
		AmountCents:       p.AmountCents,
		BalanceAfterCents: p.BalanceAfterCents,
		Type:              p.Type,
		OrderID:           p.OrderID,
		TicketID:          p.TicketID,
		StaffID:           p.StaffID,
		Metadata:          s.encodeMetadata(p.Metadata),
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.DB.InsertTransaction(ctx, idb, row); err != nil {
		return nil, err
	}
	return row, nil
}

// GetBalance reads the current balance without taking the write mutex. An
// unreferenced user has balance 0.
func (s *Service) GetBalance(ctx context.Context, userID int64) (int64, error) {
	user, err := s.DB.GetUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("get balance for user %d: %w", userID, err)
	}
	if user == nil {
		return 0, nil
	}
	return user.WalletBalanceCents, nil
}

// GetUser reads one user row (nil when never referenced).
func (s *Service) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	return s.DB.GetUser(ctx, userID)
}

// GetTransactions returns the newest ledger rows for a user.
func (s *Service) GetTransactions(ctx context.Context, userID int64, limit int) ([]models.WalletTransaction, error) {
	return s.DB.GetTransactionsForUser(ctx, userID, limit)
}

// encodeMetadata normalizes the metadata attached to a ledger row. Maps are
// marshalled; strings must already be valid JSON. A malformed string is
// dropped with a warning because the audit row itself must still be written.
func (s *Service) encodeMetadata(meta any) string {
	switch v := meta.(type) {
	case nil:
		return ""
	case string:
		if v == "" {
			return ""
		}
		if !json.Valid([]byte(v)) {
			s.Logger.Warn("LEDGER", fmt.Sprintf("dropping malformed metadata string: %q", v))
			return ""
		}
		return v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			s.Logger.Warn("LEDGER", fmt.Sprintf("dropping unencodable metadata: %v", err))
			return ""
		}
		return string(b)
	}
}
