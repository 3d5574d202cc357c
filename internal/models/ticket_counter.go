package models

import (
	"github.com/uptrace/bun"
)

// TicketCounter holds the next human-readable sequence number for one
// (user, ticket type) key. NextCount only ever moves forward.
type TicketCounter struct {
	bun.BaseModel `bun:"table:ticket_counters"`

	UserID     int64  `json:"user_id" bun:"user_id,pk"`
	TicketType string `json:"ticket_type" bun:"ticket_type,pk"`
	NextCount  int64  `json:"next_count" bun:"next_count,notnull,default:1"`
}
