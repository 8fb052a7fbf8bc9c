package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/motorefacciones/import-service/internal/adapters/base"
	"github.com/motorefacciones/import-service/internal/adapters/config"
	"github.com/motorefacciones/import-service/internal/adapters/registry"
	"github.com/motorefacciones/import-service/internal/fetch"
	httpclient "github.com/motorefacciones/import-service/internal/http"
	ingestzip "github.com/motorefacciones/import-service/internal/ingestion/zip"
	"github.com/motorefacciones/import-service/internal/metrics"
	"github.com/motorefacciones/import-service/internal/parsers"
	"github.com/motorefacciones/import-service/internal/rowhash"
	"github.com/motorefacciones/import-service/internal/storage"
	"github.com/motorefacciones/import-service/internal/telemetry"
	"github.com/motorefacciones/import-service/internal/types"
)

// StageRequest asks for one supplier file to be staged
type StageRequest struct {
	ProviderCode types.ProviderCode `json:"providerCode" binding:"required" jsonschema:"required,enum=motos_y_equipos,enum=mrm"`
	FileURL      string             `json:"fileUrl" binding:"required" jsonschema:"required"`
	ImageFiles   []types.ImageFile  `json:"imageFiles,omitempty"`
	CreatedBy    *string            `json:"createdBy,omitempty"`
}

// StageResult is the outcome of staging. A failed batch carries a Reason.
type StageResult struct {
	BatchID    string            `json:"batchId"`
	TotalRows  int               `json:"totalRows"`
	ValidRows  int               `json:"validRows"`
	FailedRows int               `json:"failedRows"`
	Status     types.BatchStatus `json:"status"`
	Reason     string            `json:"reason,omitempty"`
}

// Stage downloads, parses, validates and persists a supplier file as a new batch.
// Failures after the batch exists are reported in the result with status failed;
// only invalid requests and a failure to create the batch return an error.
func (i *Importer) Stage(ctx context.Context, req StageRequest) (*StageResult, error) {
	if !config.IsValidProviderCode(string(req.ProviderCode)) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, req.ProviderCode)
	}
	if strings.TrimSpace(req.FileURL) == "" {
		return nil, fmt.Errorf("%w: fileUrl is required", ErrInvalidRequest)
	}
	for n, img := range req.ImageFiles {
		if strings.TrimSpace(img.URL) == "" {
			return nil, fmt.Errorf("%w: imageFiles[%d].url is required", ErrInvalidRequest, n)
		}
	}

	adapter, err := registry.GetAdapter(req.ProviderCode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownProvider, err)
	}

	start := time.Now()
	batch := &types.ImportBatch{
		ID:           uuid.NewString(),
		ProviderCode: req.ProviderCode,
		Status:       types.BatchStatusUploaded,
		CreatedBy:    req.CreatedBy,
		SourceURL:    req.FileURL,
	}

	ctx, span := telemetry.Tracer().Start(ctx, "import.stage")
	defer span.End()
	span.SetAttributes(
		attribute.String("batch.id", batch.ID),
		attribute.String("provider.code", string(req.ProviderCode)),
	)

	if err := i.store.CreateBatch(ctx, batch); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create batch")
		return nil, fmt.Errorf("failed to create import batch: %w", err)
	}

	logger := log.With().
		Str("batch_id", batch.ID).
		Str("provider", string(req.ProviderCode)).
		Logger()
	logger.Info().Str("url", req.FileURL).Msg("Staging import")

	s := &stageRun{importer: i, batch: batch, start: start}

	file, err := i.downloader.Download(ctx, req.FileURL)
	if err != nil {
		return s.fail(ctx, fmt.Sprintf("Failed to download file: %v", err), nil), nil
	}

	s.update.SourceFilename = optional(file.Filename)
	s.update.FileHash = &file.Sha256
	i.archiveSource(ctx, batch, file)

	content := file.Content
	fileType := parsers.DetectFileType(req.FileURL, content)
	if ingestzip.IsZipName(file.Filename) {
		inner, err := i.unzip.Unwrap(ctx, content, file.Filename)
		if err != nil {
			return s.fail(ctx, fmt.Sprintf("Failed to extract file: %v", err), nil), nil
		}
		logger.Info().Str("entry", inner.InnerFilename).Msg("Extracted zipped source file")
		content = inner.Content
		fileType = inner.Type
	}
	s.update.FileType = &fileType

	table, err := ParseFile(content, fileType, adapter.Config())
	if err != nil {
		return s.fail(ctx, fmt.Sprintf("Failed to parse file: %v", err), nil), nil
	}

	staged := parseRows(adapter, table)
	logger.Info().
		Int("records", len(table.Records)).
		Int("parsed", len(staged)).
		Str("file_type", string(fileType)).
		Msg("Parsed source file")

	if len(staged) == 0 {
		return s.fail(ctx, "No rows could be parsed from file", nil), nil
	}

	items, valid, failed := buildItems(adapter, batch.ID, staged)

	for offset := 0; offset < len(items); offset += i.opts.StageChunkSize {
		end := min(offset+i.opts.StageChunkSize, len(items))
		if err := i.store.InsertItems(ctx, items[offset:end]); err != nil {
			counts := stageCounts{total: len(items), valid: valid, failed: failed}
			return s.fail(ctx, fmt.Sprintf("Failed to persist items: %v", err), &counts), nil
		}
	}

	i.saveUploadedImages(ctx, batch.ID, req.ImageFiles)

	status := types.BatchStatusStaged
	reason := ""
	if valid == 0 {
		status = types.BatchStatusFailed
		reason = "All rows failed validation"
	}

	total := len(items)
	s.update.Status = status
	s.update.TotalRows = &total
	s.update.ValidRows = &valid
	s.update.FailedRows = &failed
	if reason != "" {
		s.update.ErrorText = &reason
	}
	if err := i.store.UpdateBatch(ctx, batch.ID, s.update); err != nil {
		span.RecordError(err)
		logger.Error().Err(err).Msg("Failed to finalize batch")
		return nil, fmt.Errorf("failed to finalize batch %s: %w", batch.ID, err)
	}

	metrics.RecordStagedRows(ctx, string(req.ProviderCode), valid, failed)
	metrics.RecordBatch(ctx, string(req.ProviderCode), string(status), time.Since(start))
	span.SetAttributes(
		attribute.Int("rows.total", total),
		attribute.Int("rows.valid", valid),
		attribute.Int("rows.failed", failed),
	)

	logger.Info().
		Int("total", total).
		Int("valid", valid).
		Int("failed", failed).
		Str("status", string(status)).
		Dur("elapsed", time.Since(start)).
		Msg("Staged import")

	return &StageResult{
		BatchID:    batch.ID,
		TotalRows:  total,
		ValidRows:  valid,
		FailedRows: failed,
		Status:     status,
		Reason:     reason,
	}, nil
}

type stageCounts struct {
	total, valid, failed int
}

// stageRun collects the batch update while staging progresses
type stageRun struct {
	importer *Importer
	batch    *types.ImportBatch
	update   types.BatchUpdate
	start    time.Time
}

// fail marks the batch failed with reason and builds the result
func (s *stageRun) fail(ctx context.Context, reason string, counts *stageCounts) *StageResult {
	result := &StageResult{
		BatchID: s.batch.ID,
		Status:  types.BatchStatusFailed,
		Reason:  reason,
	}

	s.update.Status = types.BatchStatusFailed
	s.update.ErrorText = &reason
	if counts != nil {
		result.TotalRows, result.ValidRows, result.FailedRows = counts.total, counts.valid, counts.failed
		s.update.TotalRows = &counts.total
		s.update.ValidRows = &counts.valid
		s.update.FailedRows = &counts.failed
	}

	logger := log.With().
		Str("batch_id", s.batch.ID).
		Str("provider", string(s.batch.ProviderCode)).
		Logger()
	logger.Error().Str("reason", reason).Msg("Import batch failed")

	// The caller's context may already be cancelled; the failure must still be recorded
	if err := s.importer.store.UpdateBatch(context.WithoutCancel(ctx), s.batch.ID, s.update); err != nil {
		logger.Error().Err(err).Msg("Failed to mark batch failed")
	}

	metrics.RecordBatch(ctx, string(s.batch.ProviderCode), string(types.BatchStatusFailed), time.Since(s.start))
	return result
}

type parsedRow struct {
	index int
	item  types.StagedItem
}

func parseRows(adapter base.ProviderAdapter, table *parsers.Table) []parsedRow {
	rows := make([]parsedRow, 0, len(table.Records))
	for _, rec := range table.Records {
		item := adapter.ParseRow(rec.Values, rec.Index)
		if item == nil {
			continue
		}
		rows = append(rows, parsedRow{index: rec.Index, item: *item})
	}
	return rows
}

func buildItems(adapter base.ProviderAdapter, batchID string, rows []parsedRow) ([]types.ImportItem, int, int) {
	items := make([]types.ImportItem, 0, len(rows))
	valid, failed := 0, 0

	for _, row := range rows {
		result := adapter.ValidateRow(row.item)
		errs := result.Errors

		stagedJSON, err := json.Marshal(row.item)
		if err != nil {
			errs = append(errs, fmt.Sprintf("Failed to serialize row: %v", err))
			stagedJSON = []byte("{}")
		}

		item := types.ImportItem{
			ID:          uuid.NewString(),
			BatchID:     batchID,
			RowIndex:    row.index,
			ProviderSku: row.item.ProviderSku,
			StagedJSON:  stagedJSON,
			Stage:       types.ItemStageStaged,
			RowHash:     rowhash.ComputeRowHash(row.item),
		}
		if len(errs) > 0 {
			item.Stage = types.ItemStageFailed
			text := strings.Join(errs, "; ")
			item.ErrorText = &text
			failed++
		} else {
			valid++
		}
		items = append(items, item)
	}

	return items, valid, failed
}

// archiveSource stores the raw file; failures only log
func (i *Importer) archiveSource(ctx context.Context, batch *types.ImportBatch, file *fetch.File) {
	if i.archive == nil {
		return
	}

	key := storage.BuildBatchKey(batch.ID, file.Filename)
	err := i.archive.Put(ctx, key, file.Content, &storage.Metadata{
		OriginalName: file.Filename,
		ProviderCode: string(batch.ProviderCode),
		BatchID:      batch.ID,
		SourceURL:    file.URL,
		Checksum:     file.Sha256,
		StoredAt:     time.Now(),
	})
	if err != nil {
		log.Warn().Err(err).Str("batch_id", batch.ID).Str("key", key).Msg("Failed to archive source file")
		return
	}
	log.Debug().Str("batch_id", batch.ID).Str("key", key).Msg("Archived source file")
}

// saveUploadedImages records images uploaded with the file as unassigned mappings; failures only log
func (i *Importer) saveUploadedImages(ctx context.Context, batchID string, images []types.ImageFile) {
	if len(images) == 0 {
		return
	}

	mappings := make([]types.ImageMapping, 0, len(images))
	for n, img := range images {
		sha := img.Sha256
		if sha == nil {
			sha = optional(httpclient.ComputeSha256([]byte(img.URL)))
		}
		mappings = append(mappings, types.ImageMapping{
			ID:       uuid.NewString(),
			BatchID:  batchID,
			FileName: optional(img.FileName),
			URL:      img.URL,
			Sha256:   sha,
			Sort:     n + 1,
		})
	}

	if err := i.store.InsertImageMappings(ctx, mappings); err != nil {
		log.Warn().Err(err).Str("batch_id", batchID).Int("images", len(images)).Msg("Failed to save uploaded images")
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
