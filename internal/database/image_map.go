package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/motorefacciones/import-service/internal/types"
)

func queueMappingInserts(batch *pgx.Batch, mappings []types.ImageMapping, now time.Time) {
	for _, m := range mappings {
		batch.Queue(`
			INSERT INTO image_map (
				id, batch_id, provider_sku, filename, url, sha256, is_primary, sort, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, m.ID, m.BatchID, m.ProviderSku, m.FileName, m.URL, m.Sha256, m.IsPrimary, m.Sort, now)
	}
}

// InsertImageMappings inserts mappings in one transaction
func (r *Repository) InsertImageMappings(ctx context.Context, mappings []types.ImageMapping) error {
	if len(mappings) == 0 {
		return nil
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		queueMappingInserts(batch, mappings, time.Now())
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert image mappings: %w", err)
		}
		return nil
	})
}

// ReplaceImageMappings deletes the batch's mappings for every SKU named in mappings,
// then inserts mappings, atomically.
func (r *Repository) ReplaceImageMappings(ctx context.Context, batchID string, mappings []types.ImageMapping) error {
	if len(mappings) == 0 {
		return nil
	}

	skus := make([]string, 0, len(mappings))
	seen := make(map[string]bool, len(mappings))
	for _, m := range mappings {
		if !seen[m.ProviderSku] {
			seen[m.ProviderSku] = true
			skus = append(skus, m.ProviderSku)
		}
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			DELETE FROM image_map WHERE batch_id = $1 AND provider_sku = ANY($2)
		`, batchID, skus); err != nil {
			return fmt.Errorf("failed to delete image mappings: %w", err)
		}

		batch := &pgx.Batch{}
		queueMappingInserts(batch, mappings, time.Now())
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert image mappings: %w", err)
		}
		return nil
	})
}

// ListImageMappings returns a batch's mappings. mapped selects rows with a
// non-empty provider SKU; otherwise only unassigned uploads are returned.
func (r *Repository) ListImageMappings(ctx context.Context, batchID string, mapped bool) ([]types.ImageMapping, error) {
	cond := `provider_sku <> ''`
	if !mapped {
		cond = `provider_sku = ''`
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, batch_id, provider_sku, filename, url, sha256, is_primary, sort, created_at
		FROM image_map
		WHERE batch_id = $1 AND `+cond+`
		ORDER BY sort, created_at, id
	`, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list image mappings for batch %s: %w", batchID, err)
	}
	defer rows.Close()

	mappings := []types.ImageMapping{}
	for rows.Next() {
		var m types.ImageMapping
		if err := rows.Scan(
			&m.ID, &m.BatchID, &m.ProviderSku, &m.FileName, &m.URL, &m.Sha256,
			&m.IsPrimary, &m.Sort, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan image mapping: %w", err)
		}
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}
