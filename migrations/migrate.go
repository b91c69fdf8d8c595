package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5/pgconn"
	pkgerrors "github.com/pkg/errors"

	"service-schedule/internal/logger"
)

//go:embed *.sql
var files embed.FS

const migrationsTable = "public.schema_migrations_schedule"

// Up applies every embedded migration not yet recorded, in file name order.
// Each file runs in its own transaction.
func Up(ctx context.Context, db *sql.DB, log *logger.Logger) error {
	if db == nil {
		return errors.New("db is required")
	}

	if err := ensureMigrationsTable(ctx, db); err != nil {
		return err
	}

	names, err := migrationNames()
	if err != nil {
		return err
	}

	for _, name := range names {
		applied, err := isApplied(ctx, db, name)
		if err != nil {
			return err
		}
		if applied {
			continue
		}
		if err := apply(ctx, db, name); err != nil {
			return err
		}
		log.Info("migration applied", "file", name)
	}

	return nil
}

func migrationNames() ([]string, error) {
	names, err := fs.Glob(files, "*.sql")
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list embedded migrations")
	}
	sort.Strings(names)
	return names, nil
}

func apply(ctx context.Context, db *sql.DB, name string) error {
	sqlBytes, err := files.ReadFile(name)
	if err != nil {
		return pkgerrors.Wrapf(err, "read migration %s", name)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return pkgerrors.Wrapf(err, "begin tx for %s", name)
	}

	if _, err := tx.ExecContext(ctx, string(sqlBytes)); err != nil {
		_ = tx.Rollback()
		if !isIgnorableMigrationError(err) {
			return pkgerrors.Wrapf(err, "apply migration %s", name)
		}
		return pkgerrors.Wrapf(markApplied(ctx, db, name), "record migration %s after ignored error", name)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO `+migrationsTable+` (filename) VALUES ($1)`, name); err != nil {
		_ = tx.Rollback()
		return pkgerrors.Wrapf(err, "record migration %s", name)
	}
	return pkgerrors.Wrapf(tx.Commit(), "commit migration %s", name)
}

func ensureMigrationsTable(ctx context.Context, db *sql.DB) error {
	query := `
CREATE TABLE IF NOT EXISTS ` + migrationsTable + ` (
	filename text PRIMARY KEY,
	applied_at timestamptz NOT NULL DEFAULT now()
)
`
	_, err := db.ExecContext(ctx, query)
	return pkgerrors.Wrapf(err, "ensure migration table %s", migrationsTable)
}

func isApplied(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+migrationsTable+` WHERE filename = $1)`,
		name,
	).Scan(&exists)
	if err != nil {
		return false, pkgerrors.Wrapf(err, "check migration %s", name)
	}
	return exists, nil
}

func markApplied(ctx context.Context, db *sql.DB, name string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO `+migrationsTable+` (filename) VALUES ($1) ON CONFLICT (filename) DO NOTHING`,
		name,
	)
	return err
}

func isIgnorableMigrationError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	switch pgErr.Code {
	case "42P07", // duplicate_table
		"42710", // duplicate_object
		"42P06", // duplicate_schema
		"42701": // duplicate_column
		return true
	default:
		return false
	}
}
