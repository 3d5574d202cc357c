package referral

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/uptrace/bun"

	"ms-wallet/internal/database"
	"ms-wallet/internal/ledger"
	"ms-wallet/internal/logger"
	"ms-wallet/internal/models"
)

var (
	// ErrSelfReferral rejects a user referring themselves.
	ErrSelfReferral = errors.New("user cannot refer themselves")
	// ErrAlreadyReferred rejects a second referrer for the same user.
	ErrAlreadyReferred = errors.New("user already has a referrer")
	// ErrInsufficientCashback rejects a payout larger than the pending
	// balance.
	ErrInsufficientCashback = errors.New("pending cashback is less than requested payout")
)

type DBLayer interface {
	GetReferralByReferred(ctx context.Context, idb bun.IDB, referredID int64) (*models.Referral, error)
	InsertReferral(ctx context.Context, idb bun.IDB, r *models.Referral) error
	InsertAccrual(ctx context.Context, idb bun.IDB, a *models.ReferralAccrual) error
	GetReferralsForReferrer(ctx context.Context, idb bun.IDB, referrerID int64) ([]models.Referral, error)
	GetUnpaidAccruals(ctx context.Context, idb bun.IDB, referralID int64) ([]models.ReferralAccrual, error)
	PendingForReferral(ctx context.Context, idb bun.IDB, referralID int64) (int64, error)
	UpdateAccrualPaid(ctx context.Context, idb bun.IDB, accrualID, paidCents int64) error
	AddToTotalPaid(ctx context.Context, idb bun.IDB, referralID, deltaCents int64) error
	SetBlacklistedForReferrer(ctx context.Context, idb bun.IDB, referrerID int64, blacklisted bool) (int64, error)
}

// LedgerLayer is the slice of the ledger service payouts need: a wallet
// credit and its transaction row, both scoped to the caller's transaction.
type LedgerLayer interface {
	ApplyDeltaTx(ctx context.Context, idb bun.IDB, userID, deltaCents int64) (int64, error)
	AppendTransactionTx(ctx context.Context, idb bun.IDB, p ledger.TxParams) (*models.WalletTransaction, error)
}

// Service tracks referral edges and the cashback they accrue on purchases.
type Service struct {
	Store  *database.Store
	DB     DBLayer
	Ledger LedgerLayer
	Logger *logger.Logger

	// CashbackPercent of each referred purchase accrues to the referrer.
	CashbackPercent float64
}

func NewService(store *database.Store, led LedgerLayer, cashbackPercent float64, log *logger.Logger) *Service {
	return &Service{
		Store:           store,
		DB:              &DB{Store: store},
		Ledger:          led,
		Logger:          log,
		CashbackPercent: cashbackPercent,
	}
}

// CreateReferral records that referrerID referred referredID. A user has at
// most one referrer and cannot refer themselves.
func (s *Service) CreateReferral(ctx context.Context, referrerID, referredID int64) error {
	if referrerID == referredID {
		return ErrSelfReferral
	}

	err := s.Store.RunInWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		existing, err := s.DB.GetReferralByReferred(ctx, tx, referredID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAlreadyReferred
		}
		return s.DB.InsertReferral(ctx, tx, &models.Referral{
			ReferrerID: referrerID,
			ReferredID: referredID,
			CreatedAt:  time.Now().UTC(),
		})
	})
	if errors.Is(err, ErrAlreadyReferred) {
		return ErrAlreadyReferred
	}
	if err != nil {
		return fmt.Errorf("create referral %d -> %d: %w", referrerID, referredID, err)
	}

	s.Logger.Info("REFERRAL", fmt.Sprintf("[CREATED] referrer=%d referred=%d", referrerID, referredID))
	return nil
}

// LogReferralPurchase accrues cashback for the buyer's referrer after a
// purchase. Buyers without a referrer are a no-op returning 0. The accrual is
// rounded to the nearest cent.
func (s *Service) LogReferralPurchase(ctx context.Context, buyerID int64, orderID string, amountCents int64) (int64, error) {
	cashback := int64(math.Round(float64(amountCents) * s.CashbackPercent / 100.0))
	if cashback <= 0 {
		return 0, nil
	}

	var accrued int64
	err := s.Store.RunInWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		edge, err := s.DB.GetReferralByReferred(ctx, tx, buyerID)
		if err != nil {
			return err
		}
		if edge == nil {
			return nil
		}
		if err := s.DB.InsertAccrual(ctx, tx, &models.ReferralAccrual{
			ReferralID:  edge.ID,
			OrderID:     orderID,
			AmountCents: cashback,
			CreatedAt:   time.Now().UTC(),
		}); err != nil {
			return err
		}
		accrued = cashback
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("log referral purchase by %d: %w", buyerID, err)
	}

	if accrued > 0 {
		s.Logger.Info("REFERRAL", fmt.Sprintf("[ACCRUED] buyer=%d order=%s cashback=%d", buyerID, orderID, accrued))
	}
	return accrued, nil
}

// GetPendingCashback sums the unsettled cashback across a referrer's edges.
// Blacklisted referrers get an all-zero summary regardless of accruals.
func (s *Service) GetPendingCashback(ctx context.Context, referrerID int64) (*models.CashbackSummary, error) {
	summary := &models.CashbackSummary{Details: []models.CashbackDetail{}}

	edges, err := s.DB.GetReferralsForReferrer(ctx, s.Store.Bun, referrerID)
	if err != nil {
		return nil, fmt.Errorf("pending cashback for %d: %w", referrerID, err)
	}
	for _, edge := range edges {
		if edge.Blacklisted {
			return &models.CashbackSummary{Details: []models.CashbackDetail{}}, nil
		}
	}

	for _, edge := range edges {
		pending, err := s.DB.PendingForReferral(ctx, s.Store.Bun, edge.ID)
		if err != nil {
			return nil, fmt.Errorf("pending cashback for %d: %w", referrerID, err)
		}
		summary.Details = append(summary.Details, models.CashbackDetail{
			ReferredID:   edge.ReferredID,
			PendingCents: pending,
		})
		summary.PendingCents += pending
	}
	summary.ReferralCount = len(edges)
	return summary, nil
}

// MarkCashbackPaid settles amountCents of pending cashback, consuming accrual
// rows oldest first across all of the referrer's edges. Partial rows keep
// their remainder for later payouts. Fails without touching anything when the
// pending balance is too small.
func (s *Service) MarkCashbackPaid(ctx context.Context, referrerID, amountCents int64) error {
	if amountCents <= 0 {
		return fmt.Errorf("payout amount must be positive, got %d", amountCents)
	}

	err := s.Store.RunInWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return s.settleTx(ctx, tx, referrerID, amountCents)
	})
	if errors.Is(err, ErrInsufficientCashback) {
		return ErrInsufficientCashback
	}
	if err != nil {
		return fmt.Errorf("mark cashback paid for %d: %w", referrerID, err)
	}

	s.Logger.Info("REFERRAL", fmt.Sprintf("[PAID] referrer=%d amount=%d", referrerID, amountCents))
	return nil
}

// PayoutCashback settles amountCents of pending cashback AND credits the
// referrer's wallet with the matching ledger row, all in one transaction. A
// failure anywhere rolls everything back; settled cashback is never lost
// between the settlement and the credit.
func (s *Service) PayoutCashback(ctx context.Context, referrerID, amountCents, staffID int64) (int64, error) {
	if amountCents <= 0 {
		return 0, fmt.Errorf("payout amount must be positive, got %d", amountCents)
	}

	var newBalance int64
	err := s.Store.RunInWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := s.settleTx(ctx, tx, referrerID, amountCents); err != nil {
			return err
		}

		balance, err := s.Ledger.ApplyDeltaTx(ctx, tx, referrerID, amountCents)
		if err != nil {
			return err
		}
		newBalance = balance

		_, err = s.Ledger.AppendTransactionTx(ctx, tx, ledger.TxParams{
			UserID:            referrerID,
			AmountCents:       amountCents,
			BalanceAfterCents: newBalance,
			Type:              models.TxTypeReferralCashback,
			StaffID:           staffID,
		})
		return err
	})
	if errors.Is(err, ErrInsufficientCashback) {
		return 0, ErrInsufficientCashback
	}
	if err != nil {
		return 0, fmt.Errorf("pay out cashback for %d: %w", referrerID, err)
	}

	s.Logger.Info("REFERRAL", fmt.Sprintf("[PAID] referrer=%d amount=%d new_balance=%d", referrerID, amountCents, newBalance))
	return newBalance, nil
}

// settleTx consumes amountCents of unpaid accrual inside the caller's
// transaction, oldest first across all of the referrer's edges.
func (s *Service) settleTx(ctx context.Context, tx bun.Tx, referrerID, amountCents int64) error {
	edges, err := s.DB.GetReferralsForReferrer(ctx, tx, referrerID)
	if err != nil {
		return err
	}

	type unpaid struct {
		referralID int64
		accrual    models.ReferralAccrual
	}
	var rows []unpaid
	var pending int64
	for _, edge := range edges {
		if edge.Blacklisted {
			continue
		}
		accruals, err := s.DB.GetUnpaidAccruals(ctx, tx, edge.ID)
		if err != nil {
			return err
		}
		for _, a := range accruals {
			rows = append(rows, unpaid{referralID: edge.ID, accrual: a})
			pending += a.AmountCents - a.PaidCents
		}
	}
	if pending < amountCents {
		return ErrInsufficientCashback
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i].accrual, rows[j].accrual
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	remaining := amountCents
	perEdge := make(map[int64]int64)
	for _, row := range rows {
		if remaining == 0 {
			break
		}
		available := row.accrual.AmountCents - row.accrual.PaidCents
		take := available
		if take > remaining {
			take = remaining
		}
		if err := s.DB.UpdateAccrualPaid(ctx, tx, row.accrual.ID, row.accrual.PaidCents+take); err != nil {
			return err
		}
		perEdge[row.referralID] += take
		remaining -= take
	}
	for referralID, paid := range perEdge {
		if err := s.DB.AddToTotalPaid(ctx, tx, referralID, paid); err != nil {
			return err
		}
	}
	return nil
}

// SetBlacklisted flips the blacklist flag on every edge a referrer owns.
func (s *Service) SetBlacklisted(ctx context.Context, referrerID int64, blacklisted bool) error {
	var changed int64
	err := s.Store.RunInWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var err error
		changed, err = s.DB.SetBlacklistedForReferrer(ctx, tx, referrerID, blacklisted)
		return err
	})
	if err != nil {
		return fmt.Errorf("set blacklist for %d: %w", referrerID, err)
	}

	s.Logger.Info("REFERRAL", fmt.Sprintf("[BLACKLIST] referrer=%d blacklisted=%t edges=%d", referrerID, blacklisted, changed))
	return nil
}
