package tickets

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"ms-wallet/internal/database"
	"ms-wallet/internal/models"
)

type DB struct {
	Store *database.Store
}

// GetCounter loads the counter row for a user and ticket type, nil when the
// user has never opened a ticket of that type.
func (d *DB) GetCounter(ctx context.Context, idb bun.IDB, userID int64, ticketType string) (*models.TicketCounter, error) {
	var c models.TicketCounter
	err := idb.NewSelect().
		Model(&c).
		Where("user_id = ?", userID).
		Where("ticket_type = ?", ticketType).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// InsertCounter creates a fresh counter row.
func (d *DB) InsertCounter(ctx context.Context, idb bun.IDB, c *models.TicketCounter) error {
	_, err := idb.NewInsert().Model(c).Exec(ctx)
	return err
}

// SetNextCount stores the next value to hand out for a counter.
func (d *DB) SetNextCount(ctx context.Context, idb bun.IDB, userID int64, ticketType string, nextCount int64) error {
	_, err := idb.NewUpdate().
		Model((*models.TicketCounter)(nil)).
		Set("next_count = ?", nextCount).
		Where("user_id = ?", userID).
		Where("ticket_type = ?", ticketType).
		Exec(ctx)
	return err
}
