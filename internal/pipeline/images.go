package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	httpclient "github.com/motorefacciones/import-service/internal/http"
	"github.com/motorefacciones/import-service/internal/matching"
	"github.com/motorefacciones/import-service/internal/types"
)

// MappingInput assigns an uploaded image to a provider SKU
type MappingInput struct {
	ProviderSku string `json:"providerSku" binding:"required"`
	URL         string `json:"url" binding:"required"`
	FileName    string `json:"fileName,omitempty"`
	IsPrimary   bool   `json:"isPrimary,omitempty"`
	Sort        int    `json:"sort,omitempty"`
}

// SaveImageMappings replaces the batch's mappings for every SKU present in
// mappings and returns how many rows were written.
func (i *Importer) SaveImageMappings(ctx context.Context, batchID string, mappings []MappingInput) (int, error) {
	if _, err := i.loadBatch(ctx, batchID); err != nil {
		return 0, err
	}

	rows := make([]types.ImageMapping, 0, len(mappings))
	for n, m := range mappings {
		sku := strings.TrimSpace(m.ProviderSku)
		if sku == "" || strings.TrimSpace(m.URL) == "" {
			return 0, fmt.Errorf("%w: mappings[%d] needs providerSku and url", ErrInvalidRequest, n)
		}

		sort := m.Sort
		if sort <= 0 {
			sort = 1
		}
		hash := httpclient.ComputeSha256([]byte(m.URL))
		rows = append(rows, types.ImageMapping{
			ID:          uuid.NewString(),
			BatchID:     batchID,
			ProviderSku: sku,
			FileName:    optional(m.FileName),
			URL:         m.URL,
			Sha256:      &hash,
			IsPrimary:   m.IsPrimary,
			Sort:        sort,
		})
	}

	if len(rows) == 0 {
		return 0, nil
	}
	if err := i.store.ReplaceImageMappings(ctx, batchID, rows); err != nil {
		return 0, fmt.Errorf("failed to save image mappings: %w", err)
	}
	return len(rows), nil
}

// SuggestImages matches the batch's unassigned uploaded images against its
// staged items. threshold <= 0 uses the configured default.
func (i *Importer) SuggestImages(ctx context.Context, batchID string, threshold float64) ([]matching.ImageMatch, error) {
	if threshold <= 0 {
		threshold = i.opts.FuzzyThreshold
	}

	items, images, err := i.matchInputs(ctx, batchID)
	if err != nil {
		return nil, err
	}
	return matching.FuzzyMatchImages(items, images, threshold), nil
}

// SuggestForSku ranks the batch's unassigned uploaded images for one staged SKU
func (i *Importer) SuggestForSku(ctx context.Context, batchID, providerSku string) ([]types.ImageFile, error) {
	items, images, err := i.matchInputs(ctx, batchID)
	if err != nil {
		return nil, err
	}
	return matching.GetSuggestedMatchesForSku(providerSku, images, items), nil
}

func (i *Importer) matchInputs(ctx context.Context, batchID string) ([]matching.Item, []types.ImageFile, error) {
	if _, err := i.loadBatch(ctx, batchID); err != nil {
		return nil, nil, err
	}

	staged, err := i.store.ListItems(ctx, batchID, types.ItemStageStaged, 0, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list staged items: %w", err)
	}
	items := make([]matching.Item, 0, len(staged))
	for _, it := range staged {
		s, err := decodeStaged(it.StagedJSON)
		if err != nil {
			continue
		}
		items = append(items, matching.ItemFromStaged(*s))
	}

	unassigned, err := i.store.ListImageMappings(ctx, batchID, false)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list uploaded images: %w", err)
	}
	images := make([]types.ImageFile, 0, len(unassigned))
	for _, m := range unassigned {
		images = append(images, types.ImageFile{
			FileName: types.Deref(m.FileName),
			URL:      m.URL,
			Sha256:   m.Sha256,
		})
	}

	return items, images, nil
}

func (i *Importer) loadBatch(ctx context.Context, batchID string) (*types.ImportBatch, error) {
	batch, err := i.store.GetBatch(ctx, batchID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrBatchNotFound, batchID)
		}
		return nil, fmt.Errorf("failed to load batch %s: %w", batchID, err)
	}
	return batch, nil
}
