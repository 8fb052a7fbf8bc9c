package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/motorefacciones/import-service/internal/types"
)

// Repository persists import batches, their items and image mappings,
// and the catalog rows the commit phase writes.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a repository over pool
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// NewDefaultRepository creates a repository over the shared pool
func NewDefaultRepository() *Repository {
	return NewRepository(Pool())
}

// Ping checks the connection
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// CheckSchema reports applied and pending migrations
func (r *Repository) CheckSchema(ctx context.Context) (*SchemaStatus, error) {
	return CheckSchema(ctx, r.pool)
}

func notFound(err error, what, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", what, id, types.ErrNotFound)
	}
	return fmt.Errorf("failed to load %s %s: %w", what, id, err)
}
