package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/motorefacciones/import-service/internal/matching"
	"github.com/motorefacciones/import-service/internal/types"
)

// ImageSuggestionsRequest holds the query of the suggestions endpoint
type ImageSuggestionsRequest struct {
	Threshold float64 `form:"threshold" binding:"min=0,max=1" jsonschema:"minimum=0,maximum=1"`
}

// ImageSuggestionsResponse lists the best staged SKU for each uploaded image
type ImageSuggestionsResponse struct {
	Matches []matching.ImageMatch `json:"matches" jsonschema:"required"`
}

// SkuImageSuggestionsResponse lists candidate images for one SKU
type SkuImageSuggestionsResponse struct {
	ProviderSku string            `json:"providerSku" jsonschema:"required"`
	Images      []types.ImageFile `json:"images" jsonschema:"required"`
}

// ImageSuggestions fuzzy-matches unassigned images to staged rows
// @Summary Suggest image mappings
// @Description Matches each unassigned uploaded image to its closest staged row. Lower scores are better.
// @Tags images
// @Produce json
// @Param batchId path string true "Batch ID"
// @Param threshold query number false "Highest score to return" default(0.4) minimum(0) maximum(1)
// @Success 200 {object} ImageSuggestionsResponse
// @Failure 400 {object} ErrorResponse "Bad request"
// @Failure 404 {object} ErrorResponse "Batch not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /internal/imports/{batchId}/image-suggestions [get]
func (h *ImportHandler) ImageSuggestions(c *gin.Context) {
	var req ImageSuggestionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	matches, err := h.importer.SuggestImages(c.Request.Context(), c.Param("batchId"), req.Threshold)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ImageSuggestionsResponse{Matches: matches})
}

// SkuImageSuggestions ranks unassigned images for one staged SKU
// @Summary Suggest images for a SKU
// @Tags images
// @Produce json
// @Param batchId path string true "Batch ID"
// @Param sku path string true "Provider SKU"
// @Success 200 {object} SkuImageSuggestionsResponse
// @Failure 404 {object} ErrorResponse "Batch not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /internal/imports/{batchId}/image-suggestions/{sku} [get]
func (h *ImportHandler) SkuImageSuggestions(c *gin.Context) {
	sku := c.Param("sku")
	images, err := h.importer.SuggestForSku(c.Request.Context(), c.Param("batchId"), sku)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SkuImageSuggestionsResponse{ProviderSku: sku, Images: images})
}
