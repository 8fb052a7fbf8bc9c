package types

import (
	"errors"
	"time"
)

// ErrNotFound is returned by stores when a lookup matches no row
var ErrNotFound = errors.New("not found")

// FileType represents source file containers
type FileType string

const (
	FileTypeCSV  FileType = "csv"
	FileTypeXLSX FileType = "xlsx"
	// FileTypeXLS is a legacy Excel 97-2003 workbook; it is recognised only
	// so it can be rejected with a clear reason.
	FileTypeXLS  FileType = "xls"
)

// ProviderCode identifies the supplier whose schema produced a row
type ProviderCode string

const (
	ProviderMotosYEquipos ProviderCode = "motos_y_equipos"
	ProviderMRM           ProviderCode = "mrm"
)

// Currency is the currency of staged prices
type Currency string

const (
	CurrencyMXN Currency = "MXN"
)

// StagedItem is the canonical record produced by a provider adapter for one source row
type StagedItem struct {
	ProviderCode    ProviderCode   `json:"providerCode" jsonschema:"required,enum=motos_y_equipos,enum=mrm"`
	ProviderSku     string         `json:"providerSku" jsonschema:"required"`
	Name            string         `json:"name" jsonschema:"required"`
	Description     *string        `json:"description,omitempty"`
	Brand           *string        `json:"brand,omitempty"`
	Model           *string        `json:"model,omitempty"`
	Category        *string        `json:"category,omitempty"`
	Unit            *string        `json:"unit,omitempty"`
	Warehouse       *string        `json:"warehouse,omitempty"`
	Stock           *int           `json:"stock"`
	Price           *float64       `json:"price"`
	PriceDiscounted *float64       `json:"priceDiscounted,omitempty"`
	Msrp            *float64       `json:"msrp,omitempty"`
	Currency        Currency       `json:"currency" jsonschema:"required,enum=MXN"`
	Extra           map[string]any `json:"extra,omitempty"`
	ImageHints      []string       `json:"imageHints,omitempty"`
}

// ValidationResult is the outcome of validating a staged item
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// BatchStatus represents the lifecycle state of an import batch
type BatchStatus string

const (
	BatchStatusUploaded  BatchStatus = "uploaded"
	BatchStatusStaged    BatchStatus = "staged"
	BatchStatusFailed    BatchStatus = "failed"
	BatchStatusCommitted BatchStatus = "committed"
)

// ItemStage represents the lifecycle state of an import item
type ItemStage string

const (
	ItemStageStaged    ItemStage = "staged"
	ItemStageFailed    ItemStage = "failed"
	ItemStageCommitted ItemStage = "committed"
)

// ImportBatch is one uploaded provider file
type ImportBatch struct {
	ID              string       `json:"id"`
	ProviderCode    ProviderCode `json:"providerCode"`
	Status          BatchStatus  `json:"status"`
	CreatedBy       *string      `json:"createdBy,omitempty"`
	SourceURL       string       `json:"sourceUrl"`
	SourceFilename  *string      `json:"sourceFilename,omitempty"`
	FileHash        *string      `json:"fileHash,omitempty"`
	FileType        *FileType    `json:"fileType,omitempty"`
	TotalRows       int          `json:"totalRows"`
	ValidRows       int          `json:"validRows"`
	FailedRows      int          `json:"failedRows"`
	ErrorText       *string      `json:"errorText,omitempty"`
	CommitStartedAt *time.Time   `json:"commitStartedAt,omitempty"`
	CommittedAt     *time.Time   `json:"committedAt,omitempty"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

// BatchUpdate carries the batch fields written when staging finishes.
// Nil fields are left unchanged.
type BatchUpdate struct {
	Status         BatchStatus
	SourceFilename *string
	FileHash       *string
	FileType       *FileType
	TotalRows      *int
	ValidRows      *int
	FailedRows     *int
	ErrorText      *string
}

// ImportItem is one staged source row owned by a batch
type ImportItem struct {
	ID          string    `json:"id"`
	BatchID     string    `json:"batchId"`
	RowIndex    int       `json:"rowIndex"`
	ProviderSku string    `json:"providerSku"`
	StagedJSON  []byte    `json:"stagedJson"`
	Stage       ItemStage `json:"stage"`
	ErrorText   *string   `json:"errorText,omitempty"`
	RowHash     string    `json:"rowHash"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ItemCounts holds per-stage item counts for a batch
type ItemCounts struct {
	Staged    int `json:"staged"`
	Failed    int `json:"failed"`
	Committed int `json:"committed"`
}

// Total returns the number of items across all stages
func (c ItemCounts) Total() int {
	return c.Staged + c.Failed + c.Committed
}

// ImageFile is an uploaded image offered alongside a data file
type ImageFile struct {
	FileName string  `json:"fileName" binding:"required"`
	URL      string  `json:"url" binding:"required"`
	Sha256   *string `json:"sha256,omitempty"`
}

// ImageMapping associates an uploaded image with a provider SKU within a batch.
// An empty ProviderSku means the image has not been mapped yet.
type ImageMapping struct {
	ID          string    `json:"id"`
	BatchID     string    `json:"batchId"`
	ProviderSku string    `json:"providerSku"`
	FileName    *string   `json:"fileName,omitempty"`
	URL         string    `json:"url"`
	Sha256      *string   `json:"sha256,omitempty"`
	IsPrimary   bool      `json:"isPrimary"`
	Sort        int       `json:"sort"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Product is a catalog product keyed by its derived SKU
type Product struct {
	ID              string    `json:"id"`
	Sku             string    `json:"sku"`
	Slug            string    `json:"slug"`
	Name            string    `json:"name"`
	Description     *string   `json:"description,omitempty"`
	Brand           *string   `json:"brand,omitempty"`
	MotorcycleBrand *string   `json:"motorcycleBrand,omitempty"`
	MotorcycleModel *string   `json:"motorcycleModel,omitempty"`
	Price           float64   `json:"price"`
	CompareAtPrice  *float64  `json:"compareAtPrice,omitempty"`
	Status          string    `json:"status"`
	ImportRowHash   *string   `json:"importRowHash,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// ProductStatusActive is the status given to imported products
const ProductStatusActive = "active"

// ProductVariant is the single stock-bearing variant of an imported product
type ProductVariant struct {
	ID         string         `json:"id"`
	ProductID  string         `json:"productId"`
	VariantSku string         `json:"variantSku"`
	Price      *float64       `json:"price,omitempty"`
	Stock      *int           `json:"stock,omitempty"`
	Attrs      map[string]any `json:"attrs"`
}

// Media is an image attached to a product, deduplicated by the SHA-256 of its URL
type Media struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	URL       string `json:"url"`
	Sha256    string `json:"sha256"`
	IsPrimary bool   `json:"isPrimary"`
	Sort      int    `json:"sort"`
	Source    string `json:"source"`
}

// StringPtr returns a pointer to the given string
func StringPtr(s string) *string {
	return &s
}

// IntPtr returns a pointer to the given int
func IntPtr(i int) *int {
	return &i
}

// Float64Ptr returns a pointer to the given float64
func Float64Ptr(f float64) *float64 {
	return &f
}

// BoolPtr returns a pointer to the given bool
func BoolPtr(b bool) *bool {
	return &b
}

// Deref returns the pointed-to string or the empty string
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
