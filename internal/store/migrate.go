package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Migration is one versioned schema step.
type Migration struct {
	Version    int
	Name       string
	Statements []string
}

// MigrationResult reports what Migrate did.
type MigrationResult struct {
	FromVersion int
	ToVersion   int
	Applied     []int
}

// Migrate applies every migration with a version above the recorded one, in
// ascending order, as a single transaction. On failure nothing is applied and
// the recorded version is unchanged. Re-running with the same list is a no-op.
//
// The applied version is tracked in the schema_version table.
func Migrate(ctx context.Context, db *sql.DB, migrations []Migration) (MigrationResult, error) {
	if err := validateMigrations(migrations); err != nil {
		return MigrationResult{}, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return MigrationResult{}, SchemaError(0, "begin migration", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TEXT NOT NULL
		)
	`); err != nil {
		return MigrationResult{}, SchemaError(0, "create schema_version", err)
	}

	var current int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&current); err != nil {
		return MigrationResult{}, SchemaError(0, "read schema version", err)
	}

	result := MigrationResult{FromVersion: current, ToVersion: current}
	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		for i, stmt := range m.Statements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return MigrationResult{FromVersion: current, ToVersion: current},
					SchemaError(m.Version, fmt.Sprintf("migration %d (%s) statement %d", m.Version, m.Name, i+1), err)
			}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO schema_version (version, name, applied_at) VALUES (?, ?, ?)`,
			m.Version, m.Name, formatTime(time.Now()),
		); err != nil {
			return MigrationResult{FromVersion: current, ToVersion: current},
				SchemaError(m.Version, "record schema version", err)
		}
		result.Applied = append(result.Applied, m.Version)
		result.ToVersion = m.Version
	}

	if err := tx.Commit(); err != nil {
		return MigrationResult{FromVersion: current, ToVersion: current}, SchemaError(result.ToVersion, "commit migration", err)
	}
	return result, nil
}

// SchemaVersion returns the highest applied migration version, or 0 for a
// database that has never been migrated.
func SchemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var exists int
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'schema_version'`,
	).Scan(&exists); err != nil {
		return 0, fmt.Errorf("check schema_version: %w", err)
	}
	if exists == 0 {
		return 0, nil
	}

	var version int
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}

// validateMigrations requires positive, strictly ascending versions.
func validateMigrations(migrations []Migration) error {
	prev := 0
	for _, m := range migrations {
		if m.Version <= prev {
			return SchemaError(m.Version, fmt.Sprintf("migration versions must be positive and strictly ascending (got %d after %d)", m.Version, prev), nil)
		}
		if len(m.Statements) == 0 {
			return SchemaError(m.Version, fmt.Sprintf("migration %d has no statements", m.Version), nil)
		}
		prev = m.Version
	}
	return nil
}
