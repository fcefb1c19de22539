package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	pgdb "github.com/ArkLabsHQ/escrowd/internal/infrastructure/db/postgres"
	"github.com/ArkLabsHQ/escrowd/internal/infrastructure/db/sqldb"
	sqlitedb "github.com/ArkLabsHQ/escrowd/internal/infrastructure/db/sqlite"
)

// GoMigration is a named data migration that runs after the schema migration
// identified by Version has been applied. Run must be idempotent: if the
// process crashes after Run returns nil but before the completion row is
// written, Run will be called again on the next startup and must produce the
// same result.
//
// Version must match the golang-migrate version number of the corresponding
// SQL migration file (e.g., "20250315090000").
type GoMigration struct {
	Version string
	Run     func(ctx context.Context, db *sql.DB) error
}

func goMigrations(dialect sqldb.Dialect) []GoMigration {
	backfillTrackedBalances := sqlitedb.BackfillTrackedBalances
	if dialect == sqldb.DialectPostgres {
		backfillTrackedBalances = pgdb.BackfillTrackedBalances
	}

	return []GoMigration{
		{
			Version: "20250315090000",
			Run:     backfillTrackedBalances,
		},
	}
}

// ApplyGoMigrations runs any GoMigration whose Version has not yet been
// recorded in the go_migrations table, in slice order. A failing migration
// is not recorded and is retried on the next startup.
//
// The go_migrations table is created by this function if it does not exist.
func ApplyGoMigrations(
	ctx context.Context, db *sql.DB, dialect sqldb.Dialect, migrations []GoMigration,
) error {
	seenVersions := make(map[string]struct{}, len(migrations))
	for _, m := range migrations {
		if m.Version == "" {
			return fmt.Errorf("go migration has empty version")
		}
		if _, err := strconv.ParseInt(m.Version, 10, 64); err != nil {
			return fmt.Errorf("go migration %q has invalid version format: %w", m.Version, err)
		}
		if _, exists := seenVersions[m.Version]; exists {
			return fmt.Errorf("duplicate go migration version %s", m.Version)
		}
		seenVersions[m.Version] = struct{}{}
	}

	if _, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS go_migrations (
				version    TEXT PRIMARY KEY,
				applied_at BIGINT NOT NULL
			);
		`); err != nil {
		return fmt.Errorf("ensure go_migrations table: %w", err)
	}

	var schemaVersion int64
	if err := db.QueryRowContext(ctx, `SELECT version FROM schema_migrations LIMIT 1`).Scan(&schemaVersion); err != nil {
		return fmt.Errorf("read schema migration version: %w", err)
	}

	for _, m := range migrations {
		migrationVersion, _ := strconv.ParseInt(m.Version, 10, 64)
		if schemaVersion < migrationVersion {
			return fmt.Errorf(
				"go migration %s requires SQL migration %s, but schema version is %d",
				m.Version, m.Version, schemaVersion,
			)
		}

		var count int
		if err := db.QueryRowContext(ctx,
			dialect.Rebind(`SELECT COUNT(*) FROM go_migrations WHERE version = ?`), m.Version,
		).Scan(&count); err != nil {
			return fmt.Errorf("check go migration %s: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		if err := m.Run(ctx, db); err != nil {
			return fmt.Errorf("go migration %s: %w", m.Version, err)
		}

		if _, err := db.ExecContext(ctx,
			dialect.Rebind(`INSERT INTO go_migrations (version, applied_at) VALUES (?, ?)`),
			m.Version, time.Now().Unix(),
		); err != nil {
			return fmt.Errorf("record go migration %s: %w", m.Version, err)
		}
	}

	return nil
}
