package migrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"ms-wallet/internal/logger"
	"ms-wallet/internal/models"
)

// Migration is one forward-only schema change. Versions start at 1 and are
// gapless; bodies must tolerate their own partial application (a previous run
// may have crashed between the body and its tracking row).
type Migration struct {
	Version int64
	Name    string
	Up      func(ctx context.Context, tx bun.Tx) error
}

// Runner applies pending migrations in ascending version order. Each
// migration body and its tracking row are written in one transaction, so a
// crash leaves either the old schema with no tracking row or the new schema
// with one — never a schema change marked unapplied.
type Runner struct {
	db     *bun.DB
	logger *logger.Logger
}

func NewRunner(db *bun.DB, log *logger.Logger) *Runner {
	return &Runner{db: db, logger: log}
}

// Run brings the schema up to the highest registered version. It must finish
// before any ledger operation is reachable.
func (r *Runner) Run(ctx context.Context) error {
	registry := All()
	if err := validate(registry); err != nil {
		return err
	}

	if err := r.ensureTrackingTable(ctx); err != nil {
		return err
	}

	applied, err := r.Version(ctx)
	if err != nil {
		return err
	}

	for _, m := range registry {
		if m.Version <= applied {
			continue
		}
		m := m
		err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if err := m.Up(ctx, tx); err != nil {
				return err
			}
			_, err := tx.NewInsert().Model(&models.SchemaMigration{
				Version:   m.Version,
				Name:      m.Name,
				AppliedAt: time.Now().UTC(),
			}).Exec(ctx)
			return err
		})
		if err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Name, err)
		}
		r.logger.LogDatabase("MIGRATE", "schema_migrations",
			fmt.Sprintf("applied %d_%s", m.Version, m.Name))
	}

	return nil
}

// Version returns the highest applied migration version, 0 for a fresh store.
func (r *Runner) Version(ctx context.Context) (int64, error) {
	var version int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}

func (r *Runner) ensureTrackingTable(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}
	return nil
}

// validate rejects a registry with gaps, duplicates or bad ordering before
// anything touches the store.
func validate(registry []Migration) error {
	for i, m := range registry {
		want := int64(i + 1)
		if m.Version != want {
			return fmt.Errorf("migration registry is not gapless: index %d has version %d, want %d", i, m.Version, want)
		}
		if m.Name == "" {
			return fmt.Errorf("migration %d has no name", m.Version)
		}
		if m.Up == nil {
			return fmt.Errorf("migration %d (%s) has no body", m.Version, m.Name)
		}
	}
	return nil
}

// addColumnIfMissing applies an ALTER TABLE ADD COLUMN only when the column
// is absent. SQLite has no ADD COLUMN IF NOT EXISTS, so pragma_table_info is
// checked first; this keeps column-add migrations safe to re-run.
func addColumnIfMissing(ctx context.Context, tx bun.Tx, table, column, ddl string) error {
	var exists int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM pragma_table_info(?) WHERE name = ?`, table, column).Scan(&exists)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("inspecting %s for column %s: %w", table, column, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, table, column, ddl)); err != nil {
		return fmt.Errorf("adding %s column to %s: %w", column, table, err)
	}
	return nil
}
