package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openRawDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open(DriverCGO, filepath.Join(t.TempDir(), "raw.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n))
	return n == 1
}

func columnExists(t *testing.T, db *sql.DB, table, column string) bool {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, table, column).Scan(&n))
	return n == 1
}

func TestMigrate_FreshDatabase(t *testing.T) {
	ctx := context.Background()
	db := openRawDB(t)

	v, err := SchemaVersion(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 0, v)

	res, err := Migrate(ctx, db, Migrations)
	require.NoError(t, err)
	assert.Equal(t, 0, res.FromVersion)
	assert.Equal(t, currentSchemaVersion, res.ToVersion)
	assert.Equal(t, []int{1, 2, 3}, res.Applied)

	for _, table := range DataTables {
		assert.True(t, tableExists(t, db, table), "table %s", table)
	}
	assert.True(t, columnExists(t, db, "shopping_list_item", "unit"))
}

func TestMigrate_Idempotent(t *testing.T) {
	ctx := context.Background()
	db := openRawDB(t)

	_, err := Migrate(ctx, db, Migrations)
	require.NoError(t, err)

	res, err := Migrate(ctx, db, Migrations)
	require.NoError(t, err)
	assert.Empty(t, res.Applied)
	assert.Equal(t, currentSchemaVersion, res.FromVersion)
	assert.Equal(t, currentSchemaVersion, res.ToVersion)

	var rows int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM schema_version`).Scan(&rows))
	assert.Equal(t, len(Migrations), rows)
}

func TestMigrate_Incremental(t *testing.T) {
	ctx := context.Background()
	db := openRawDB(t)

	_, err := Migrate(ctx, db, Migrations[:1])
	require.NoError(t, err)
	assert.False(t, columnExists(t, db, "shopping_list_item", "unit"))

	res, err := Migrate(ctx, db, Migrations)
	require.NoError(t, err)
	assert.Equal(t, 1, res.FromVersion)
	assert.Equal(t, []int{2, 3}, res.Applied)
	assert.True(t, columnExists(t, db, "shopping_list_item", "unit"))
}

func TestMigrate_FailureRollsBackEverything(t *testing.T) {
	ctx := context.Background()
	db := openRawDB(t)

	_, err := Migrate(ctx, db, Migrations[:1])
	require.NoError(t, err)

	broken := append(append([]Migration{}, Migrations[:1]...),
		Migration{
			Version: 2,
			Name:    "add pantry",
			Statements: []string{
				`CREATE TABLE pantry (id TEXT PRIMARY KEY)`,
			},
		},
		Migration{
			Version: 3,
			Name:    "broken",
			Statements: []string{
				`ALTER TABLE store ADD COLUMN region TEXT`,
				`THIS IS NOT SQL`,
			},
		},
	)

	res, err := Migrate(ctx, db, broken)
	require.Error(t, err)
	assert.True(t, IsSchemaError(err))

	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 3, se.Version)
	assert.Equal(t, 1, res.ToVersion)

	// Neither the earlier pending migration nor the first statement of the
	// failing one survived.
	v, err := SchemaVersion(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.False(t, tableExists(t, db, "pantry"))
	assert.False(t, columnExists(t, db, "store", "region"))
}

func TestMigrate_FailureOnFreshDatabase(t *testing.T) {
	ctx := context.Background()
	db := openRawDB(t)

	_, err := Migrate(ctx, db, []Migration{
		{Version: 1, Name: "ok", Statements: []string{`CREATE TABLE a (id TEXT)`}},
		{Version: 2, Name: "bad", Statements: []string{`CREATE TABLE a (id TEXT)`}},
	})
	require.Error(t, err)
	assert.True(t, IsSchemaError(err))
	assert.False(t, tableExists(t, db, "a"))
	assert.False(t, tableExists(t, db, "schema_version"))
}

func TestMigrate_InvalidList(t *testing.T) {
	tests := []struct {
		name       string
		migrations []Migration
	}{
		{"zero version", []Migration{{Version: 0, Statements: []string{"SELECT 1"}}}},
		{"descending", []Migration{
			{Version: 2, Statements: []string{"SELECT 1"}},
			{Version: 1, Statements: []string{"SELECT 1"}},
		}},
		{"duplicate", []Migration{
			{Version: 1, Statements: []string{"SELECT 1"}},
			{Version: 1, Statements: []string{"SELECT 1"}},
		}},
		{"empty", []Migration{{Version: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Migrate(context.Background(), openRawDB(t), tt.migrations)
			assert.True(t, IsSchemaError(err), "got %v", err)
		})
	}
}

func TestOpen_FailsOnNewerBrokenSchema(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	// A store table without the expected columns makes migration 2 fail
	// once the base migration is recorded as applied.
	db, err := sql.Open(DriverCGO, path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE schema_version (version INTEGER PRIMARY KEY, name TEXT NOT NULL, applied_at TEXT NOT NULL)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO schema_version VALUES (1, 'base schema', '2025-01-01T00:00:00.000000000Z')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = Open(ctx, Config{DSN: path})
	require.Error(t, err)
	assert.True(t, IsSchemaError(err))
}
