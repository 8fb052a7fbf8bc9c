package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/motorefacciones/import-service/internal/types"
)

const batchColumns = `
	id, provider_code, status, created_by, source_url, source_filename,
	file_hash, file_type, total_rows, valid_rows, failed_rows, error_text,
	commit_started_at, committed_at, created_at, updated_at
`

// CreateBatch inserts a new batch
func (r *Repository) CreateBatch(ctx context.Context, batch *types.ImportBatch) error {
	now := time.Now()
	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = now
	}
	batch.UpdatedAt = now

	_, err := r.pool.Exec(ctx, `
		INSERT INTO import_batch (
			id, provider_code, status, created_by, source_url, source_filename,
			file_hash, file_type, total_rows, valid_rows, failed_rows, error_text,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`,
		batch.ID, batch.ProviderCode, batch.Status, batch.CreatedBy, batch.SourceURL,
		batch.SourceFilename, batch.FileHash, batch.FileType, batch.TotalRows,
		batch.ValidRows, batch.FailedRows, batch.ErrorText, batch.CreatedAt, batch.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert batch: %w", err)
	}
	return nil
}

// GetBatch loads a batch by id
func (r *Repository) GetBatch(ctx context.Context, id string) (*types.ImportBatch, error) {
	var b types.ImportBatch
	err := r.pool.QueryRow(ctx, `SELECT `+batchColumns+` FROM import_batch WHERE id = $1`, id).Scan(
		&b.ID, &b.ProviderCode, &b.Status, &b.CreatedBy, &b.SourceURL, &b.SourceFilename,
		&b.FileHash, &b.FileType, &b.TotalRows, &b.ValidRows, &b.FailedRows, &b.ErrorText,
		&b.CommitStartedAt, &b.CommittedAt, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err, "batch", id)
	}
	return &b, nil
}

// ListBatches returns the most recent batches, newest first
func (r *Repository) ListBatches(ctx context.Context, limit, offset int) ([]types.ImportBatch, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+batchColumns+`
		FROM import_batch
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	defer rows.Close()

	batches := []types.ImportBatch{}
	for rows.Next() {
		var b types.ImportBatch
		if err := rows.Scan(
			&b.ID, &b.ProviderCode, &b.Status, &b.CreatedBy, &b.SourceURL, &b.SourceFilename,
			&b.FileHash, &b.FileType, &b.TotalRows, &b.ValidRows, &b.FailedRows, &b.ErrorText,
			&b.CommitStartedAt, &b.CommittedAt, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// UpdateBatch applies a staging update; nil fields keep their stored value
func (r *Repository) UpdateBatch(ctx context.Context, id string, u types.BatchUpdate) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE import_batch SET
			status          = $2,
			source_filename = COALESCE($3, source_filename),
			file_hash       = COALESCE($4, file_hash),
			file_type       = COALESCE($5, file_type),
			total_rows      = COALESCE($6, total_rows),
			valid_rows      = COALESCE($7, valid_rows),
			failed_rows     = COALESCE($8, failed_rows),
			error_text      = COALESCE($9, error_text),
			updated_at      = NOW()
		WHERE id = $1
	`, id, u.Status, u.SourceFilename, u.FileHash, u.FileType,
		u.TotalRows, u.ValidRows, u.FailedRows, u.ErrorText)
	if err != nil {
		return fmt.Errorf("failed to update batch %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("batch %s: %w", id, types.ErrNotFound)
	}
	return nil
}

// ClaimCommit atomically marks a batch as being committed.
// It returns false when the batch is already committed or another commit holds the claim.
func (r *Repository) ClaimCommit(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE import_batch
		SET commit_started_at = NOW(), updated_at = NOW()
		WHERE id = $1
		  AND status <> 'committed'
		  AND commit_started_at IS NULL
	`, id)
	if err != nil {
		return false, fmt.Errorf("failed to claim batch %s: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

// ReleaseCommit drops a commit claim without committing
func (r *Repository) ReleaseCommit(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE import_batch
		SET commit_started_at = NULL, updated_at = NOW()
		WHERE id = $1 AND status <> 'committed'
	`, id)
	if err != nil {
		return fmt.Errorf("failed to release batch %s: %w", id, err)
	}
	return nil
}

// MarkCommitted sets the terminal committed status
func (r *Repository) MarkCommitted(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE import_batch
		SET status = 'committed', committed_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to mark batch %s committed: %w", id, err)
	}
	return nil
}

// ReleaseInterruptedCommits clears every commit claim. Only safe while no
// other process can be committing, e.g. on single-instance startup.
func (r *Repository) ReleaseInterruptedCommits(ctx context.Context) ([]string, error) {
	return r.ReleaseStaleCommits(ctx, time.Now())
}

// ReleaseStaleCommits clears commit claims taken before startedBefore, left by a
// process that died mid-commit. Returns the ids of the released batches.
func (r *Repository) ReleaseStaleCommits(ctx context.Context, startedBefore time.Time) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE import_batch
		SET commit_started_at = NULL,
		    error_text = 'Commit interrupted before completion',
		    updated_at = NOW()
		WHERE status <> 'committed'
		  AND commit_started_at IS NOT NULL
		  AND commit_started_at < $1
		RETURNING id
	`, startedBefore)
	if err != nil {
		return nil, fmt.Errorf("failed to release stale commits: %w", err)
	}
	return collectIDs(rows)
}

// DeleteBatchesBefore removes batches in one of statuses created before cutoff.
// Items and image mappings go with them. Returns the ids of the deleted batches.
func (r *Repository) DeleteBatchesBefore(ctx context.Context, statuses []types.BatchStatus, cutoff time.Time) ([]string, error) {
	if len(statuses) == 0 {
		return []string{}, nil
	}
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}

	rows, err := r.pool.Query(ctx, `
		DELETE FROM import_batch
		WHERE status = ANY($1)
		  AND created_at < $2
		  AND commit_started_at IS NULL
		RETURNING id
	`, names, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to delete batches: %w", err)
	}
	return collectIDs(rows)
}

func collectIDs(rows pgx.Rows) ([]string, error) {
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan batch id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
