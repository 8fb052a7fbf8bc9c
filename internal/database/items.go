package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/motorefacciones/import-service/internal/types"
)

const itemColumns = `
	id, batch_id, row_index, provider_sku, staged_json, stage, error_text, row_hash, created_at
`

// InsertItems writes one chunk of items in a single transaction
func (r *Repository) InsertItems(ctx context.Context, items []types.ImportItem) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	now := time.Now()

	for _, item := range items {
		batch.Queue(`
			INSERT INTO import_item (
				id, batch_id, row_index, provider_sku, staged_json, stage,
				error_text, row_hash, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		`, item.ID, item.BatchID, item.RowIndex, item.ProviderSku, string(item.StagedJSON),
			item.Stage, item.ErrorText, item.RowHash, now)
	}

	br := tx.SendBatch(ctx, batch)
	for i := range items {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("failed to insert item at row %d: %w", items[i].RowIndex, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit items: %w", err)
	}
	return nil
}

// CountItems returns per-stage item counts for a batch
func (r *Repository) CountItems(ctx context.Context, batchID string) (types.ItemCounts, error) {
	var counts types.ItemCounts
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE stage = 'staged'),
			COUNT(*) FILTER (WHERE stage = 'failed'),
			COUNT(*) FILTER (WHERE stage = 'committed')
		FROM import_item
		WHERE batch_id = $1
	`, batchID).Scan(&counts.Staged, &counts.Failed, &counts.Committed)
	if err != nil {
		return counts, fmt.Errorf("failed to count items for batch %s: %w", batchID, err)
	}
	return counts, nil
}

// ListItems returns a batch's items in a stage ordered by row index.
// A non-positive limit returns every matching item.
func (r *Repository) ListItems(ctx context.Context, batchID string, stage types.ItemStage, limit, offset int) ([]types.ImportItem, error) {
	var limitArg *int
	if limit > 0 {
		limitArg = &limit
	}

	query := `SELECT ` + itemColumns + `
		FROM import_item
		WHERE batch_id = $1 AND stage = $2
		ORDER BY row_index, id
		LIMIT $3 OFFSET $4`
	args := []any{batchID, stage, limitArg, offset}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items for batch %s: %w", batchID, err)
	}
	defer rows.Close()

	items := []types.ImportItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// FindCommittedItem returns the committed item carrying providerSku in a batch
func (r *Repository) FindCommittedItem(ctx context.Context, batchID, providerSku string) (*types.ImportItem, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+itemColumns+`
		FROM import_item
		WHERE batch_id = $1 AND provider_sku = $2 AND stage = 'committed'
		ORDER BY row_index
		LIMIT 1
	`, batchID, providerSku)

	item, err := scanItem(row)
	if err != nil {
		return nil, notFound(err, "committed item", providerSku)
	}
	return item, nil
}

// SetItemStage moves an item to stage, recording errorText when non-nil
func (r *Repository) SetItemStage(ctx context.Context, itemID string, stage types.ItemStage, errorText *string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE import_item
		SET stage = $2, error_text = COALESCE($3, error_text), updated_at = NOW()
		WHERE id = $1
	`, itemID, stage, errorText)
	if err != nil {
		return fmt.Errorf("failed to set item %s to %s: %w", itemID, stage, err)
	}
	return nil
}

func scanItem(row pgx.Row) (*types.ImportItem, error) {
	var item types.ImportItem
	if err := row.Scan(
		&item.ID, &item.BatchID, &item.RowIndex, &item.ProviderSku, &item.StagedJSON,
		&item.Stage, &item.ErrorText, &item.RowHash, &item.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &item, nil
}
