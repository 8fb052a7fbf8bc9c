package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// advisory lock key shared by every instance running migrations
const migrationLockKey = 727_100_001

// Migrate applies embedded migrations that have not run yet, in filename order.
// Returns the names of the migrations applied.
func Migrate(ctx context.Context, db *pgxpool.Pool) ([]string, error) {
	names, err := migrationNames()
	if err != nil {
		return nil, err
	}

	conn, err := db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock($1)`, migrationLockKey); err != nil {
		return nil, fmt.Errorf("failed to take migration lock: %w", err)
	}
	defer func() {
		if _, err := conn.Exec(context.Background(), `SELECT pg_advisory_unlock($1)`, migrationLockKey); err != nil {
			log.Warn().Err(err).Msg("Failed to release migration lock")
		}
	}()

	if _, err := conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name       TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	applied := []string{}
	for _, name := range names {
		var exists bool
		if err := conn.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE name = $1)`, name,
		).Scan(&exists); err != nil {
			return applied, fmt.Errorf("failed to check migration %s: %w", name, err)
		}
		if exists {
			continue
		}

		sql, err := migrationFiles.ReadFile("migrations/" + name)
		if err != nil {
			return applied, fmt.Errorf("failed to read migration %s: %w", name, err)
		}

		err = pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(sql)); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, name)
			return err
		})
		if err != nil {
			return applied, fmt.Errorf("migration %s failed: %w", name, err)
		}

		log.Info().Str("migration", name).Msg("Applied migration")
		applied = append(applied, name)
	}

	return applied, nil
}

// SchemaStatus reports the newest applied migration and the embedded ones not applied yet
type SchemaStatus struct {
	Current string   `json:"current"`
	Pending []string `json:"pending"`
}

// CheckSchema compares the migrations recorded in the database with the embedded set.
// A database that was never migrated reports every migration pending.
func CheckSchema(ctx context.Context, db *pgxpool.Pool) (*SchemaStatus, error) {
	names, err := migrationNames()
	if err != nil {
		return nil, err
	}

	var appliedNames []string
	rows, err := db.Query(ctx, `SELECT name FROM schema_migrations`)
	if err == nil {
		appliedNames, err = pgx.CollectRows(rows, pgx.RowTo[string])
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if !errors.As(err, &pgErr) || pgErr.Code != undefinedTable {
			return nil, fmt.Errorf("failed to read schema_migrations: %w", err)
		}
	}

	applied := make(map[string]bool, len(appliedNames))
	for _, n := range appliedNames {
		applied[n] = true
	}

	status := &SchemaStatus{Pending: []string{}}
	for _, n := range names {
		if applied[n] {
			status.Current = n
		} else {
			status.Pending = append(status.Pending, n)
		}
	}
	return status, nil
}

const undefinedTable = "42P01"

func migrationNames() ([]string, error) {
	entries, err := fs.ReadDir(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
