package tickets

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"ms-wallet/internal/database"
	"ms-wallet/internal/logger"
	"ms-wallet/internal/models"
)

type DBLayer interface {
	GetCounter(ctx context.Context, idb bun.IDB, userID int64, ticketType string) (*models.TicketCounter, error)
	InsertCounter(ctx context.Context, idb bun.IDB, c *models.TicketCounter) error
	SetNextCount(ctx context.Context, idb bun.IDB, userID int64, ticketType string, nextCount int64) error
}

// Service hands out per-user, per-type ticket sequence numbers.
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

// GetNextTicketCount returns the next sequence number for a user and ticket
// type and advances the counter. The first call for a pair returns 1;
// concurrent calls never hand out the same number twice.
func (s *Service) GetNextTicketCount(ctx context.Context, userID int64, ticketType string) (int64, error) {
	var count int64
	err := s.Store.RunInWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		c, err := s.DB.GetCounter(ctx, tx, userID, ticketType)
		if err != nil {
			return err
		}
		if c == nil {
			count = 1
			return s.DB.InsertCounter(ctx, tx, &models.TicketCounter{
				UserID:     userID,
				TicketType: ticketType,
				NextCount:  2,
			})
		}
		count = c.NextCount
		return s.DB.SetNextCount(ctx, tx, userID, ticketType, c.NextCount+1)
	})
	if err != nil {
		return 0, fmt.Errorf("next ticket count for user %d type %s: %w", userID, ticketType, err)
	}
	return count, nil
}
