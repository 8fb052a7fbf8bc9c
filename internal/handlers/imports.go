package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/motorefacciones/import-service/internal/pipeline"
	"github.com/motorefacciones/import-service/internal/types"
)

// SaveImageMapRequest is the body of PUT /imports/:batchId/image-map
type SaveImageMapRequest struct {
	Mappings []pipeline.MappingInput `json:"mappings" binding:"required,dive" jsonschema:"required"`
}

// SaveImageMapResponse reports how many mappings were written
type SaveImageMapResponse struct {
	Success       bool `json:"success" jsonschema:"required"`
	MappingsSaved int  `json:"mappingsSaved" jsonschema:"required"`
}

// StageImport downloads, parses and stages a supplier file
// @Summary Stage a supplier file
// @Description Creates an import batch, downloads the file, maps every row through the provider adapter and stores the validated rows for review. A batch that ends failed is returned with status 422 and a reason.
// @Tags imports
// @Accept json
// @Produce json
// @Param request body pipeline.StageRequest true "File to stage"
// @Success 200 {object} pipeline.StageResult
// @Failure 400 {object} ErrorResponse "Bad request"
// @Failure 422 {object} pipeline.StageResult "Batch failed"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /internal/imports [post]
func (h *ImportHandler) StageImport(c *gin.Context) {
	var req pipeline.StageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "providerCode and fileUrl are required"})
		return
	}

	result, err := h.importer.Stage(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if result.Status == types.BatchStatusFailed {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, result)
}

// CommitImport writes the staged rows of a batch to the catalog
// @Summary Commit a staged batch
// @Description Inserts or updates one product per staged row, upserts stock variants and attaches mapped images. Row failures are counted, not fatal.
// @Tags imports
// @Produce json
// @Param batchId path string true "Batch ID"
// @Success 200 {object} pipeline.CommitResult
// @Failure 400 {object} ErrorResponse "Already committed or nothing to commit"
// @Failure 404 {object} ErrorResponse "Batch not found"
// @Failure 409 {object} ErrorResponse "Commit in progress"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /internal/imports/{batchId}/commit [post]
func (h *ImportHandler) CommitImport(c *gin.Context) {
	result, err := h.importer.Commit(c.Request.Context(), c.Param("batchId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// PreviewImport summarizes a batch before commit
// @Summary Preview a batch
// @Description Returns the batch header, row totals and the first valid and failed rows
// @Tags imports
// @Produce json
// @Param batchId path string true "Batch ID"
// @Success 200 {object} pipeline.PreviewResult
// @Failure 404 {object} ErrorResponse "Batch not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /internal/imports/{batchId}/preview [get]
func (h *ImportHandler) PreviewImport(c *gin.Context) {
	result, err := h.importer.Preview(c.Request.Context(), c.Param("batchId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// SaveImageMap assigns uploaded images to provider SKUs
// @Summary Save image mappings
// @Description Replaces the batch's mappings for every SKU in the request
// @Tags imports
// @Accept json
// @Produce json
// @Param batchId path string true "Batch ID"
// @Param request body SaveImageMapRequest true "Mappings"
// @Success 200 {object} SaveImageMapResponse
// @Failure 400 {object} ErrorResponse "Bad request"
// @Failure 404 {object} ErrorResponse "Batch not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /internal/imports/{batchId}/image-map [put]
func (h *ImportHandler) SaveImageMap(c *gin.Context) {
	var req SaveImageMapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "mappings must be an array of {providerSku, url}"})
		return
	}

	saved, err := h.importer.SaveImageMappings(c.Request.Context(), c.Param("batchId"), req.Mappings)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SaveImageMapResponse{Success: true, MappingsSaved: saved})
}
