package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/motorefacciones/import-service/internal/database"
)

// HealthChecker reports database reachability and migration state
type HealthChecker interface {
	Ping(ctx context.Context) error
	CheckSchema(ctx context.Context) (*database.SchemaStatus, error)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string                 `json:"status"`
	Database string                 `json:"database"`
	Schema   *database.SchemaStatus `json:"schema,omitempty"`
}

// HealthHandler serves /health
type HealthHandler struct {
	db HealthChecker
}

// NewHealthHandler creates a health handler. A nil checker reports the database as not configured.
func NewHealthHandler(db HealthChecker) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check reports service health. The service is unavailable while the database
// is unreachable or embedded migrations are still pending.
// @Summary Health check
// @Description Reports database connectivity and the newest applied schema migration.
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse "Database unavailable or migrations pending"
// @Router /health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusOK, HealthResponse{Status: "ok", Database: "not configured"})
		return
	}

	ctx := c.Request.Context()
	if err := h.db.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("Health check: database unreachable")
		c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Database: "disconnected"})
		return
	}

	schema, err := h.db.CheckSchema(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Health check: failed to read schema state")
		c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Database: "connected"})
		return
	}

	response := HealthResponse{Status: "ok", Database: "connected", Schema: schema}
	if len(schema.Pending) > 0 {
		response.Status = "migrations pending"
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}
	c.JSON(http.StatusOK, response)
}
