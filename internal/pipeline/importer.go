// Package pipeline implements the two-phase provider import: staging a
// supplier file into reviewable items, then committing them to the catalog.
package pipeline

import (
	"context"

	"github.com/motorefacciones/import-service/internal/fetch"
	ingestzip "github.com/motorefacciones/import-service/internal/ingestion/zip"
	"github.com/motorefacciones/import-service/internal/storage"
	"github.com/motorefacciones/import-service/internal/types"
)

// Store persists batches, items and image mappings
type Store interface {
	CreateBatch(ctx context.Context, batch *types.ImportBatch) error
	// GetBatch returns an error wrapping types.ErrNotFound for unknown ids
	GetBatch(ctx context.Context, id string) (*types.ImportBatch, error)
	UpdateBatch(ctx context.Context, id string, update types.BatchUpdate) error
	// ClaimCommit atomically marks the batch as being committed; false when the claim is lost
	ClaimCommit(ctx context.Context, id string) (bool, error)
	ReleaseCommit(ctx context.Context, id string) error
	MarkCommitted(ctx context.Context, id string) error

	// InsertItems writes one chunk atomically
	InsertItems(ctx context.Context, items []types.ImportItem) error
	CountItems(ctx context.Context, batchID string) (types.ItemCounts, error)
	// ListItems returns items in row order; limit <= 0 means all
	ListItems(ctx context.Context, batchID string, stage types.ItemStage, limit, offset int) ([]types.ImportItem, error)
	FindCommittedItem(ctx context.Context, batchID, providerSku string) (*types.ImportItem, error)
	SetItemStage(ctx context.Context, itemID string, stage types.ItemStage, errorText *string) error

	InsertImageMappings(ctx context.Context, mappings []types.ImageMapping) error
	ReplaceImageMappings(ctx context.Context, batchID string, mappings []types.ImageMapping) error
	// ListImageMappings returns mapped (non-empty SKU) or unassigned rows
	ListImageMappings(ctx context.Context, batchID string, mapped bool) ([]types.ImageMapping, error)
}

// Catalog reads and writes the product catalog
type Catalog interface {
	// FindProductBySku returns an error wrapping types.ErrNotFound when absent
	FindProductBySku(ctx context.Context, sku string) (*types.Product, error)
	InsertProduct(ctx context.Context, product *types.Product) error
	UpdateProduct(ctx context.Context, product *types.Product) error
	UpsertVariant(ctx context.Context, variant *types.ProductVariant) error
	MediaExists(ctx context.Context, sha256 string) (bool, error)
	MaxMediaSort(ctx context.Context, productID string) (int, error)
	// InsertMedia returns false when a row with the same hash already exists
	InsertMedia(ctx context.Context, media *types.Media) (bool, error)
}

// Downloader retrieves a source file by URL
type Downloader interface {
	Download(ctx context.Context, url string) (*fetch.File, error)
}

// Options tunes the importer
type Options struct {
	StageChunkSize    int     `mapstructure:"stage_chunk_size"`
	CommitChunkSize   int     `mapstructure:"commit_chunk_size"`
	CommitConcurrency int     `mapstructure:"commit_concurrency"`
	FuzzyThreshold    float64 `mapstructure:"fuzzy_threshold"`
	MediaSource       string  `mapstructure:"media_source"`
}

// DefaultOptions returns the default importer options
func DefaultOptions() Options {
	return Options{
		StageChunkSize:    400,
		CommitChunkSize:   100,
		CommitConcurrency: 1,
		FuzzyThreshold:    0.4,
		MediaSource:       "import",
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.StageChunkSize <= 0 {
		o.StageChunkSize = d.StageChunkSize
	}
	if o.CommitChunkSize <= 0 {
		o.CommitChunkSize = d.CommitChunkSize
	}
	if o.CommitConcurrency <= 0 {
		o.CommitConcurrency = d.CommitConcurrency
	}
	if o.FuzzyThreshold <= 0 {
		o.FuzzyThreshold = d.FuzzyThreshold
	}
	if o.MediaSource == "" {
		o.MediaSource = d.MediaSource
	}
	return o
}

// Importer runs the stage and commit phases
type Importer struct {
	store      Store
	catalog    Catalog
	downloader Downloader
	archive    storage.Storage
	unzip      *ingestzip.Expander
	opts       Options
}

// Option configures an Importer
type Option func(*Importer)

// WithArchive stores every downloaded source file under batches/<id>/
func WithArchive(s storage.Storage) Option {
	return func(i *Importer) { i.archive = s }
}

// WithUnzipLimits overrides the limits applied to zipped source files
func WithUnzipLimits(opts ingestzip.ExpandOptions) Option {
	return func(i *Importer) { i.unzip = ingestzip.NewExpander(opts) }
}

// NewImporter creates an importer
func NewImporter(store Store, catalog Catalog, downloader Downloader, opts Options, options ...Option) *Importer {
	imp := &Importer{
		store:      store,
		catalog:    catalog,
		downloader: downloader,
		unzip:      ingestzip.NewExpander(ingestzip.DefaultExpandOptions()),
		opts:       opts.withDefaults(),
	}
	for _, o := range options {
		o(imp)
	}
	return imp
}

// Options returns the effective options
func (i *Importer) Options() Options {
	return i.opts
}
