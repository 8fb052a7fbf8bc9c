package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/motorefacciones/import-service/internal/matching"
	"github.com/motorefacciones/import-service/internal/pipeline"
	"github.com/motorefacciones/import-service/internal/types"
)

// Importer is the import pipeline as seen by the HTTP layer
type Importer interface {
	Stage(ctx context.Context, req pipeline.StageRequest) (*pipeline.StageResult, error)
	Commit(ctx context.Context, batchID string) (*pipeline.CommitResult, error)
	Preview(ctx context.Context, batchID string) (*pipeline.PreviewResult, error)
	SaveImageMappings(ctx context.Context, batchID string, mappings []pipeline.MappingInput) (int, error)
	SuggestImages(ctx context.Context, batchID string, threshold float64) ([]matching.ImageMatch, error)
	SuggestForSku(ctx context.Context, batchID, providerSku string) ([]types.ImageFile, error)
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error string `json:"error" jsonschema:"required"`
}

// ImportHandler serves the import endpoints
type ImportHandler struct {
	importer Importer
}

// NewImportHandler creates an import handler
func NewImportHandler(importer Importer) *ImportHandler {
	return &ImportHandler{importer: importer}
}

// Register mounts the import and provider routes on group
func (h *ImportHandler) Register(group *gin.RouterGroup) {
	imports := group.Group("/imports")
	{
		imports.POST("", h.StageImport)
		imports.POST("/detect", DetectProvider)
		imports.POST("/:batchId/commit", h.CommitImport)
		imports.GET("/:batchId/preview", h.PreviewImport)
		imports.PUT("/:batchId/image-map", h.SaveImageMap)
		imports.GET("/:batchId/image-suggestions", h.ImageSuggestions)
		imports.GET("/:batchId/image-suggestions/:sku", h.SkuImageSuggestions)
	}

	group.GET("/providers", ListProviders)
}

// respondError maps pipeline errors to status codes. Anything unexpected is
// logged and reported as a generic 500.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, pipeline.ErrBatchNotFound):
		status = http.StatusNotFound
	case errors.Is(err, pipeline.ErrCommitInProgress):
		status = http.StatusConflict
	case errors.Is(err, pipeline.ErrAlreadyCommitted),
		errors.Is(err, pipeline.ErrNoValidItems),
		errors.Is(err, pipeline.ErrUnknownProvider),
		errors.Is(err, pipeline.ErrInvalidRequest):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("Request failed")
		c.JSON(status, ErrorResponse{Error: "Internal server error"})
		return
	}
	c.JSON(status, ErrorResponse{Error: err.Error()})
}
