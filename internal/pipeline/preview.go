package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/motorefacciones/import-service/internal/types"
)

const (
	previewValidSamples  = 10
	previewFailedSamples = 20
)

// PreviewBatch is the batch header shown in a preview
type PreviewBatch struct {
	ID           string             `json:"id"`
	ProviderCode types.ProviderCode `json:"providerCode"`
	Status       types.BatchStatus  `json:"status"`
	CreatedAt    time.Time          `json:"createdAt"`
}

// PreviewSummary counts all items of a batch
type PreviewSummary struct {
	TotalRows  int `json:"totalRows"`
	ValidRows  int `json:"validRows"`
	FailedRows int `json:"failedRows"`
}

// ValidSample is a staged row shown for review
type ValidSample struct {
	ProviderSku string   `json:"providerSku"`
	Name        string   `json:"name"`
	Price       *float64 `json:"price"`
	Stock       *int     `json:"stock"`
}

// FailedSample is a failed row with its validation errors
type FailedSample struct {
	ProviderSku string   `json:"providerSku"`
	Name        string   `json:"name"`
	Errors      []string `json:"errors"`
}

// PreviewSamples holds the first rows of each outcome
type PreviewSamples struct {
	Valid  []ValidSample  `json:"valid"`
	Failed []FailedSample `json:"failed"`
}

// PreviewResult is a read-only view of a staged batch
type PreviewResult struct {
	Batch   PreviewBatch   `json:"batch"`
	Summary PreviewSummary `json:"summary"`
	Samples PreviewSamples `json:"samples"`
}

// Preview summarizes a batch for review before commit. Totals cover all items;
// samples are the first staged and failed rows in row order.
func (i *Importer) Preview(ctx context.Context, batchID string) (*PreviewResult, error) {
	batch, err := i.loadBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}

	counts, err := i.store.CountItems(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to count items for batch %s: %w", batchID, err)
	}

	staged, err := i.store.ListItems(ctx, batchID, types.ItemStageStaged, previewValidSamples, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list staged items: %w", err)
	}
	failed, err := i.store.ListItems(ctx, batchID, types.ItemStageFailed, previewFailedSamples, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list failed items: %w", err)
	}

	result := &PreviewResult{
		Batch: PreviewBatch{
			ID:           batch.ID,
			ProviderCode: batch.ProviderCode,
			Status:       batch.Status,
			CreatedAt:    batch.CreatedAt,
		},
		Summary: PreviewSummary{
			TotalRows:  counts.Total(),
			ValidRows:  counts.Staged,
			FailedRows: counts.Failed,
		},
		Samples: PreviewSamples{
			Valid:  make([]ValidSample, 0, len(staged)),
			Failed: make([]FailedSample, 0, len(failed)),
		},
	}

	for _, item := range staged {
		s := sampleFields(item)
		result.Samples.Valid = append(result.Samples.Valid, ValidSample{
			ProviderSku: item.ProviderSku,
			Name:        s.name(),
			Price:       s.Price,
			Stock:       s.Stock,
		})
	}

	for _, item := range failed {
		s := sampleFields(item)
		errs := []string{}
		if item.ErrorText != nil && *item.ErrorText != "" {
			errs = strings.Split(*item.ErrorText, "; ")
		}
		result.Samples.Failed = append(result.Samples.Failed, FailedSample{
			ProviderSku: item.ProviderSku,
			Name:        s.name(),
			Errors:      errs,
		})
	}

	return result, nil
}

type sample struct {
	Name  string   `json:"name"`
	Price *float64 `json:"price"`
	Stock *int     `json:"stock"`
}

func (s sample) name() string {
	if s.Name == "" {
		return "N/A"
	}
	return s.Name
}

// sampleFields reads the displayed fields leniently; failed rows may hold partial data
func sampleFields(item types.ImportItem) sample {
	var s sample
	_ = json.Unmarshal(item.StagedJSON, &s)
	return s
}
