package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	httpclient "github.com/motorefacciones/import-service/internal/http"
	"github.com/motorefacciones/import-service/internal/metrics"
	"github.com/motorefacciones/import-service/internal/normalize"
	"github.com/motorefacciones/import-service/internal/telemetry"
	"github.com/motorefacciones/import-service/internal/types"
	"github.com/motorefacciones/import-service/internal/validation"
)

// CommitSummary counts per-row outcomes of a commit. Warnings counts
// variant and image failures, which never fail a row.
type CommitSummary struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
	Total    int `json:"total"`
	Warnings int `json:"warnings"`
}

// CommitResult is the outcome of committing a batch
type CommitResult struct {
	BatchID string        `json:"batchId"`
	Summary CommitSummary `json:"summary"`
}

type rowOutcome int

const (
	outcomeInserted rowOutcome = iota
	outcomeUpdated
	outcomeSkipped
	outcomeFailed
)

// commitTally accumulates row outcomes across concurrent chunks
type commitTally struct {
	mu      sync.Mutex
	summary CommitSummary
}

func (t *commitTally) add(outcome rowOutcome, warnings int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch outcome {
	case outcomeInserted:
		t.summary.Inserted++
	case outcomeUpdated:
		t.summary.Updated++
	case outcomeSkipped:
		t.summary.Skipped++
	case outcomeFailed:
		t.summary.Failed++
	}
	t.summary.Total++
	t.summary.Warnings += warnings
}

func (t *commitTally) warn() {
	t.mu.Lock()
	t.summary.Warnings++
	t.mu.Unlock()
}

// Commit writes every staged item of a batch into the catalog, then attaches
// mapped images. The batch is marked committed once both loops finish, even
// when individual rows failed.
func (i *Importer) Commit(ctx context.Context, batchID string) (*CommitResult, error) {
	batch, err := i.loadBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if batch.Status == types.BatchStatusCommitted {
		return nil, ErrAlreadyCommitted
	}

	counts, err := i.store.CountItems(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to count items for batch %s: %w", batchID, err)
	}
	if counts.Staged == 0 {
		return nil, ErrNoValidItems
	}

	claimed, err := i.store.ClaimCommit(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to claim batch %s: %w", batchID, err)
	}
	if !claimed {
		current, err := i.store.GetBatch(ctx, batchID)
		if err == nil && current.Status == types.BatchStatusCommitted {
			return nil, ErrAlreadyCommitted
		}
		return nil, ErrCommitInProgress
	}

	start := time.Now()
	ctx, span := telemetry.Tracer().Start(ctx, "import.commit")
	defer span.End()
	span.SetAttributes(
		attribute.String("batch.id", batchID),
		attribute.String("provider.code", string(batch.ProviderCode)),
	)

	logger := log.With().
		Str("batch_id", batchID).
		Str("provider", string(batch.ProviderCode)).
		Logger()

	items, err := i.store.ListItems(ctx, batchID, types.ItemStageStaged, 0, 0)
	if err != nil {
		if rerr := i.store.ReleaseCommit(context.WithoutCancel(ctx), batchID); rerr != nil {
			logger.Error().Err(rerr).Msg("Failed to release commit claim")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "list items")
		return nil, fmt.Errorf("failed to load staged items for batch %s: %w", batchID, err)
	}

	logger.Info().Int("items", len(items)).Msg("Committing import")

	tally := &commitTally{}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.opts.CommitConcurrency)

	for offset := 0; offset < len(items); offset += i.opts.CommitChunkSize {
		chunk := items[offset:min(offset+i.opts.CommitChunkSize, len(items))]
		g.Go(func() error {
			for _, item := range chunk {
				if err := gctx.Err(); err != nil {
					return err
				}
				outcome, warnings := i.commitRow(gctx, item, logger)
				tally.add(outcome, warnings)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		// Only cancellation stops the loop; rows already written stay committed
		if rerr := i.store.ReleaseCommit(context.WithoutCancel(ctx), batchID); rerr != nil {
			logger.Error().Err(rerr).Msg("Failed to release commit claim")
		}
		span.RecordError(err)
		return nil, fmt.Errorf("commit of batch %s interrupted: %w", batchID, err)
	}

	i.attachImages(ctx, batchID, tally, logger)

	if err := i.store.MarkCommitted(ctx, batchID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "mark committed")
		return nil, fmt.Errorf("failed to mark batch %s committed: %w", batchID, err)
	}

	summary := tally.summary
	metrics.RecordCommit(ctx, summary.Inserted, summary.Updated, summary.Skipped, summary.Failed, time.Since(start))
	span.SetAttributes(
		attribute.Int("rows.inserted", summary.Inserted),
		attribute.Int("rows.updated", summary.Updated),
		attribute.Int("rows.skipped", summary.Skipped),
		attribute.Int("rows.failed", summary.Failed),
	)

	logger.Info().
		Int("inserted", summary.Inserted).
		Int("updated", summary.Updated).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Int("warnings", summary.Warnings).
		Dur("elapsed", time.Since(start)).
		Msg("Committed import")

	return &CommitResult{BatchID: batchID, Summary: summary}, nil
}

// commitRow writes one staged item to the catalog. Any failure marks the item
// failed; it never affects other rows.
func (i *Importer) commitRow(ctx context.Context, item types.ImportItem, logger zerolog.Logger) (rowOutcome, int) {
	rowLog := logger.With().Int("row", item.RowIndex).Str("sku", item.ProviderSku).Logger()

	staged, err := decodeStaged(item.StagedJSON)
	if err != nil {
		i.failItem(ctx, item, err, rowLog)
		return outcomeFailed, 0
	}

	sku := normalize.GenerateSku(staged.ProviderSku, staged.Name)
	existing, err := i.catalog.FindProductBySku(ctx, sku)
	if err != nil && !errors.Is(err, types.ErrNotFound) {
		i.failItem(ctx, item, fmt.Errorf("failed to look up product %s: %w", sku, err), rowLog)
		return outcomeFailed, 0
	}

	// Unchanged rows leave the product untouched, status included; only the
	// stock variant is rewritten.
	if existing != nil && existing.ImportRowHash != nil && *existing.ImportRowHash == item.RowHash {
		warnings := i.upsertStock(ctx, staged, existing, rowLog)
		if err := i.store.SetItemStage(ctx, item.ID, types.ItemStageCommitted, nil); err != nil {
			rowLog.Error().Err(err).Msg("Failed to mark unchanged item committed")
		}
		return outcomeSkipped, warnings
	}

	product := productFromStaged(staged, sku, item.RowHash)
	outcome := outcomeInserted
	if existing != nil {
		product.ID = existing.ID
		if err := i.catalog.UpdateProduct(ctx, product); err != nil {
			i.failItem(ctx, item, fmt.Errorf("failed to update product %s: %w", sku, err), rowLog)
			return outcomeFailed, 0
		}
		outcome = outcomeUpdated
	} else {
		product.ID = uuid.NewString()
		if err := i.catalog.InsertProduct(ctx, product); err != nil {
			i.failItem(ctx, item, fmt.Errorf("failed to insert product %s: %w", sku, err), rowLog)
			return outcomeFailed, 0
		}
	}

	warnings := i.upsertStock(ctx, staged, product, rowLog)

	if err := i.store.SetItemStage(ctx, item.ID, types.ItemStageCommitted, nil); err != nil {
		rowLog.Error().Err(err).Msg("Failed to mark item committed")
	}

	return outcome, warnings
}

// upsertStock writes the row's stock variant when the row carries stock and
// returns the number of warnings raised.
func (i *Importer) upsertStock(ctx context.Context, staged *types.StagedItem, product *types.Product, logger zerolog.Logger) int {
	if staged.Stock == nil {
		return 0
	}
	if err := i.catalog.UpsertVariant(ctx, variantFromStaged(staged, product)); err != nil {
		metrics.RecordCommitWarning("variant")
		logger.Warn().Err(err).Str("product_sku", product.Sku).Msg("Failed to upsert variant")
		return 1
	}
	return 0
}

func (i *Importer) failItem(ctx context.Context, item types.ImportItem, cause error, logger zerolog.Logger) {
	logger.Error().Err(cause).Msg("Failed to commit row")
	text := cause.Error()
	if err := i.store.SetItemStage(ctx, item.ID, types.ItemStageFailed, &text); err != nil {
		logger.Error().Err(err).Msg("Failed to mark item failed")
	}
}

// decodeStaged re-validates staged_json before trusting it
func decodeStaged(raw []byte) (*types.StagedItem, error) {
	if result := validation.ValidateStagedJSON(raw); !result.Valid {
		return nil, fmt.Errorf("invalid staged data: %s", strings.Join(result.Errors, "; "))
	}
	var staged types.StagedItem
	if err := json.Unmarshal(raw, &staged); err != nil {
		return nil, fmt.Errorf("invalid staged data: %w", err)
	}
	return &staged, nil
}

func productFromStaged(staged *types.StagedItem, sku, rowHash string) *types.Product {
	price := 0.0
	if staged.Price != nil {
		price = *staged.Price
	}

	compareAt := staged.PriceDiscounted
	if compareAt == nil {
		compareAt = staged.Msrp
	}

	return &types.Product{
		Sku:             sku,
		Slug:            normalize.ProductSlug(staged.Name),
		Name:            staged.Name,
		Description:     staged.Description,
		Brand:           staged.Brand,
		MotorcycleBrand: staged.Brand,
		MotorcycleModel: staged.Model,
		Price:           price,
		CompareAtPrice:  compareAt,
		Status:          types.ProductStatusActive,
		ImportRowHash:   &rowHash,
	}
}

func variantFromStaged(staged *types.StagedItem, product *types.Product) *types.ProductVariant {
	price := product.Price
	return &types.ProductVariant{
		ID:         uuid.NewString(),
		ProductID:  product.ID,
		VariantSku: normalize.VariantSku(product.Sku),
		Price:      &price,
		Stock:      staged.Stock,
		Attrs: map[string]any{
			"warehouse": staged.Warehouse,
			"unit":      staged.Unit,
		},
	}
}

// attachImages turns confirmed image mappings into product media.
// A failing mapping is logged and counted as a warning.
func (i *Importer) attachImages(ctx context.Context, batchID string, tally *commitTally, logger zerolog.Logger) {
	mappings, err := i.store.ListImageMappings(ctx, batchID, true)
	if err != nil {
		tally.warn()
		metrics.RecordCommitWarning("image")
		logger.Warn().Err(err).Msg("Failed to load image mappings")
		return
	}

	attached := 0
	for _, m := range mappings {
		ok, err := i.attachImage(ctx, batchID, m)
		if err != nil {
			tally.warn()
			metrics.RecordCommitWarning("image")
			logger.Warn().Err(err).Str("sku", m.ProviderSku).Str("url", m.URL).Msg("Failed to attach image")
			continue
		}
		if ok {
			attached++
		}
	}

	if len(mappings) > 0 {
		logger.Info().Int("mappings", len(mappings)).Int("attached", attached).Msg("Attached images")
	}
}

func (i *Importer) attachImage(ctx context.Context, batchID string, m types.ImageMapping) (bool, error) {
	item, err := i.store.FindCommittedItem(ctx, batchID, m.ProviderSku)
	if err != nil {
		return false, fmt.Errorf("no committed item for %s: %w", m.ProviderSku, err)
	}

	var staged types.StagedItem
	if err := json.Unmarshal(item.StagedJSON, &staged); err != nil {
		return false, fmt.Errorf("invalid staged data for %s: %w", m.ProviderSku, err)
	}

	sku := normalize.GenerateSku(staged.ProviderSku, staged.Name)
	product, err := i.catalog.FindProductBySku(ctx, sku)
	if err != nil {
		return false, fmt.Errorf("failed to find product %s: %w", sku, err)
	}

	hash := httpclient.ComputeSha256([]byte(m.URL))
	exists, err := i.catalog.MediaExists(ctx, hash)
	if err != nil {
		return false, fmt.Errorf("failed to check media: %w", err)
	}
	if exists {
		return false, nil
	}

	maxSort, err := i.catalog.MaxMediaSort(ctx, product.ID)
	if err != nil {
		return false, fmt.Errorf("failed to read media sort: %w", err)
	}
	sort := maxSort + 1

	return i.catalog.InsertMedia(ctx, &types.Media{
		ID:        uuid.NewString(),
		ProductID: product.ID,
		URL:       m.URL,
		Sha256:    hash,
		IsPrimary: m.IsPrimary || sort == 1,
		Sort:      sort,
		Source:    i.opts.MediaSource,
	})
}
