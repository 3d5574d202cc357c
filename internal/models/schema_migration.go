package models

import (
	"time"

	"github.com/uptrace/bun"
)

// SchemaMigration is one applied-migration tracking row. The highest version
// present always matches the highest version the running binary registers.
type SchemaMigration struct {
	bun.BaseModel `bun:"table:schema_migrations"`

	Version   int64     `json:"version" bun:"version,pk"`
	Name      string    `json:"name" bun:"name,notnull"`
	AppliedAt time.Time `json:"applied_at" bun:"applied_at,notnull"`
}
