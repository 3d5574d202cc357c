package refund

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/uptrace/bun"

	"ms-wallet/internal/database"
	"ms-wallet/internal/ledger"
	"ms-wallet/internal/logger"
	"ms-wallet/internal/models"
	"ms-wallet/internal/utils"
)

// ErrRefundNotFound is returned when no pending refund matches the id — the
// refund is unknown or already resolved.
var ErrRefundNotFound = errors.New("refund not found or already resolved")

type DBLayer interface {
	InsertRefund(ctx context.Context, idb bun.IDB, r *models.Refund) error
	GetPendingRefund(ctx context.Context, idb bun.IDB, refundID string) (*models.Refund, error)
	ResolveRefund(ctx context.Context, idb bun.IDB, r *models.Refund) (bool, error)
	MarkOrderRefunded(ctx context.Context, idb bun.IDB, orderID string) error
	GetRefundByID(ctx context.Context, refundID string) (*models.Refund, error)
	GetOrderByID(ctx context.Context, orderID string) (*models.Order, error)
	ListPendingRefunds(ctx context.Context) ([]models.Refund, error)
}

type LedgerLayer interface {
	ApplyDeltaTx(ctx context.Context, idb bun.IDB, userID, deltaCents int64) (int64, error)
	AppendTransactionTx(ctx context.Context, idb bun.IDB, p ledger.TxParams) (*models.WalletTransaction, error)
}

type KafkaPublisher interface {
	PublishRefundApproved(r models.Refund) error
}

// Service runs the refund workflow: request, staff resolution and the
// fee-adjusted wallet credit.
type Service struct {
	Store  *database.Store
	DB     DBLayer
	Ledger LedgerLayer
	Kafka  KafkaPublisher
	Logger *logger.Logger

	// FeePercent is the default handling fee; approvals may override it.
	FeePercent float64
}

func NewService(store *database.Store, led LedgerLayer, kafka KafkaPublisher, feePercent float64, log *logger.Logger) *Service {
	return &Service{
		Store:      store,
		DB:         &DB{Store: store},
		Ledger:     led,
		Kafka:      kafka,
		Logger:     log,
		FeePercent: feePercent,
	}
}

// ComputeFee splits a requested amount into handling fee (floored) and the
// final credit.
func ComputeFee(amountCents int64, feePercent float64) (feeCents, finalCents int64) {
	feeCents = int64(math.Floor(float64(amountCents) * feePercent / 100.0))
	finalCents = amountCents - feeCents
	return feeCents, finalCents
}

// CreateRefundRequest opens a pending refund for staff review.
func (s *Service) CreateRefundRequest(ctx context.Context, orderID string, userID, amountCents int64, reason string) (string, error) {
	if amountCents <= 0 {
		return "", fmt.Errorf("refund amount must be positive, got %d", amountCents)
	}

	fee, final := ComputeFee(amountCents, s.FeePercent)
	r := &models.Refund{
		RefundID:             utils.GenerateRefundID(),
		OrderID:              orderID,
		UserID:               userID,
		RequestedAmountCents: amountCents,
		HandlingFeeCents:     fee,
		FinalRefundCents:     final,
		Status:               models.RefundStatusPending,
		Reason:               reason,
		CreatedAt:            time.Now().UTC(),
	}

	err := s.Store.RunInWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return s.DB.InsertRefund(ctx, tx, r)
	})
	if err != nil {
		return "", fmt.Errorf("create refund request for order %s: %w", orderID, err)
	}

	s.Logger.Info("REFUND", fmt.Sprintf("[REQUESTED] %s order=%s amount=%d fee=%d final=%d",
		r.RefundID, orderID, amountCents, fee, final))
	return r.RefundID, nil
}

// ApproveRefund resolves a pending refund and credits the wallet in one
// transaction. The approved amount and fee may be overridden; fee and final
// credit are recomputed from whatever applies, while the originally requested
// amount stays on the row for audit. A refund is never marked approved
// without the matching credit, or vice versa.
func (s *Service) ApproveRefund(ctx context.Context, refundID string, staffID int64, approvedAmountCents *int64, feePercent *float64) (*models.Refund, error) {
	var approved *models.Refund
	err := s.Store.RunInWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		r, err := s.DB.GetPendingRefund(ctx, tx, refundID)
		if err != nil {
			return err
		}
		if r == nil {
			return ErrRefundNotFound
		}

		amount := r.RequestedAmountCents
		if approvedAmountCents != nil {
			amount = *approvedAmountCents
		}
		pct := s.FeePercent
		if feePercent != nil {
			pct = *feePercent
		}
		fee, final := ComputeFee(amount, pct)

		now := time.Now().UTC()
		r.ApprovedAmountCents = amount
		r.HandlingFeeCents = fee
		r.FinalRefundCents = final
		r.Status = models.RefundStatusApproved
		r.ResolvedBy = staffID
		r.ResolvedAt = &now

		ok, err := s.DB.ResolveRefund(ctx, tx, r)
		if err != nil {
			return err
		}
		if !ok {
			return ErrRefundNotFound
		}

		if err := s.DB.MarkOrderRefunded(ctx, tx, r.OrderID); err != nil {
			return err
		}

		newBalance, err := s.Ledger.ApplyDeltaTx(ctx, tx, r.UserID, final)
		if err != nil {
			return err
		}

		_, err = s.Ledger.AppendTransactionTx(ctx, tx, ledger.TxParams{
			UserID:            r.UserID,
			AmountCents:       final,
			BalanceAfterCents: newBalance,
			Type:              models.TxTypeRefund,
			OrderID:           r.OrderID,
			StaffID:           staffID,
			Metadata: map[string]any{
				"refund_id":          r.RefundID,
				"handling_fee_cents": fee,
			},
		})
		if err != nil {
			return err
		}

		approved = r
		return nil
	})
	if errors.Is(err, ErrRefundNotFound) {
		return nil, ErrRefundNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("approve refund %s: %w", refundID, err)
	}

	s.Logger.Info("REFUND", fmt.Sprintf("[APPROVED] %s by staff=%d credited=%d",
		refundID, staffID, approved.FinalRefundCents))

	if s.Kafka != nil {
		if err := s.Kafka.PublishRefundApproved(*approved); err != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("publish refund approved: %v", err))
		}
	}

	return approved, nil
}

// RejectRefund resolves a pending refund without any wallet effect.
func (s *Service) RejectRefund(ctx context.Context, refundID string, staffID int64, reason string) error {
	err := s.Store.RunInWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		r, err := s.DB.GetPendingRefund(ctx, tx, refundID)
		if err != nil {
			return err
		}
		if r == nil {
			return ErrRefundNotFound
		}

		now := time.Now().UTC()
		r.Status = models.RefundStatusRejected
		r.ResolvedBy = staffID
		r.ResolutionNote = reason
		r.ResolvedAt = &now

		ok, err := s.DB.ResolveRefund(ctx, tx, r)
		if err != nil {
			return err
		}
		if !ok {
			return ErrRefundNotFound
		}
		return nil
	})
	if errors.Is(err, ErrRefundNotFound) {
		return ErrRefundNotFound
	}
	if err != nil {
		return fmt.Errorf("reject refund %s: %w", refundID, err)
	}

	s.Logger.Info("REFUND", fmt.Sprintf("[REJECTED] %s by staff=%d", refundID, staffID))
	return nil
}

// ValidateOrderForRefund returns the order only when it belongs to the user,
// sits in a terminal fulfilled/refill state and is younger than maxDays.
// Ineligibility is not an error; callers treat nil as "not eligible".
func (s *Service) ValidateOrderForRefund(ctx context.Context, orderID string, userID int64, maxDays int) (*models.Order, error) {
	o, err := s.DB.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("validate order %s for refund: %w", orderID, err)
	}
	if o == nil {
		return nil, nil
	}
	if o.UserID != userID {
		return nil, nil
	}
	if o.Status != models.OrderStatusFulfilled && o.Status != models.OrderStatusRefill {
		return nil, nil
	}
	if time.Since(o.CreatedAt) > time.Duration(maxDays)*24*time.Hour {
		return nil, nil
	}
	return o, nil
}

// GetRefund fetches one refund in any state, nil when unknown.
func (s *Service) GetRefund(ctx context.Context, refundID string) (*models.Refund, error) {
	return s.DB.GetRefundByID(ctx, refundID)
}

// ListPending returns the open staff queue.
func (s *Service) ListPending(ctx context.Context) ([]models.Refund, error) {
	return s.DB.ListPendingRefunds(ctx)
}
