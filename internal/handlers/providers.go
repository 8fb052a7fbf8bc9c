package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/motorefacciones/import-service/internal/adapters/config"
	"github.com/motorefacciones/import-service/internal/adapters/detect"
	"github.com/motorefacciones/import-service/internal/types"
)

// Provider describes a supported supplier
type Provider struct {
	Code     types.ProviderCode `json:"code" jsonschema:"required"`
	Name     string             `json:"name" jsonschema:"required"`
	FileType types.FileType     `json:"fileType" jsonschema:"required,enum=csv,enum=xlsx"`
	SkipRows int                `json:"skipRows"`
}

// ListProvidersResponse lists supported suppliers
type ListProvidersResponse struct {
	Providers []Provider `json:"providers" jsonschema:"required"`
}

// DetectProviderRequest carries a header row
type DetectProviderRequest struct {
	Headers []string `json:"headers" binding:"required" jsonschema:"required"`
}

// DetectProviderResponse holds the detected provider, null when unknown
type DetectProviderResponse struct {
	ProviderCode *types.ProviderCode `json:"providerCode"`
}

// ListProviders returns the supported suppliers
// @Summary List providers
// @Tags providers
// @Produce json
// @Success 200 {object} ListProvidersResponse
// @Router /internal/providers [get]
func ListProviders(c *gin.Context) {
	providers := make([]Provider, 0, len(config.ProviderCodes))
	for _, code := range config.ProviderCodes {
		cfg, ok := config.GetProviderConfig(code)
		if !ok {
			continue
		}
		providers = append(providers, Provider{
			Code:     cfg.Code,
			Name:     cfg.Name,
			FileType: cfg.FileType,
			SkipRows: cfg.SkipRows,
		})
	}
	c.JSON(http.StatusOK, ListProvidersResponse{Providers: providers})
}

// DetectProvider guesses the provider of a header row
// @Summary Detect provider from headers
// @Description Assistive only; staging always uses the provider code sent by the caller
// @Tags providers
// @Accept json
// @Produce json
// @Param request body DetectProviderRequest true "Header row"
// @Success 200 {object} DetectProviderResponse
// @Failure 400 {object} ErrorResponse "Bad request"
// @Router /internal/imports/detect [post]
func DetectProvider(c *gin.Context) {
	var req DetectProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "headers must be an array of strings"})
		return
	}

	var resp DetectProviderResponse
	if code, ok := detect.DetectProvider(req.Headers); ok {
		resp.ProviderCode = &code
	}
	c.JSON(http.StatusOK, resp)
}
