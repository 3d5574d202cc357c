package migrations

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ms-wallet/internal/logger"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)
	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })
	return bunDB
}

func TestRunAppliesAllMigrations(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	runner := NewRunner(db, logger.NewLogger())

	require.NoError(t, runner.Run(ctx))

	version, err := runner.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(len(All())), version)

	// Every table the registry creates must exist
	for _, table := range []string{
		"users", "products", "orders", "wallet_transactions",
		"refunds", "referrals", "referral_accruals", "ticket_counters",
	} {
		var name string
		err := db.NewSelect().
			Table("sqlite_master").
			Column("name").
			Where("type = 'table'").
			Where("name = ?", table).
			Scan(ctx, &name)
		assert.NoError(t, err, "table %s missing", table)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	runner := NewRunner(db, logger.NewLogger())

	require.NoError(t, runner.Run(ctx))
	require.NoError(t, runner.Run(ctx))

	var count int
	err := db.NewSelect().
		Table("schema_migrations").
		ColumnExpr("COUNT(*)").
		Scan(ctx, &count)
	require.NoError(t, err)
	assert.Equal(t, len(All()), count)
}

func TestRegistryIsGapless(t *testing.T) {
	registry := All()
	require.NotEmpty(t, registry)
	for i, m := range registry {
		assert.Equal(t, int64(i+1), m.Version)
		assert.NotEmpty(t, m.Name)
		assert.NotNil(t, m.Up)
	}
}

func TestValidateRejectsGaps(t *testing.T) {
	bad := []Migration{
		{Version: 1, Name: "one", Up: func(ctx context.Context, tx bun.Tx) error { return nil }},
		{Version: 3, Name: "three", Up: func(ctx context.Context, tx bun.Tx) error { return nil }},
	}
	assert.Error(t, validate(bad))
}

func TestAddColumnIfMissing(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	_, err := db.ExecContext(ctx, "CREATE TABLE sample (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)

	err = db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return addColumnIfMissing(ctx, tx, "sample", "extra", "TEXT")
	})
	require.NoError(t, err)

	// A second add is a no-op rather than a duplicate-column error
	err = db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return addColumnIfMissing(ctx, tx, "sample", "extra", "TEXT")
	})
	require.NoError(t, err)
}
