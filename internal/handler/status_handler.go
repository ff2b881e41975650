package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/capyvagas/capyvagas-api/internal/models"
	"github.com/capyvagas/capyvagas-api/pkg/response"
)

type healthService interface {
	Status(ctx context.Context) (*models.BotStatus, error)
}

// StatusHandler exposes liveness, readiness and the gateway status view.
type StatusHandler struct {
	db     *sqlx.DB
	health healthService
}

// NewStatusHandler builds a new handler.
func NewStatusHandler(db *sqlx.DB, health healthService) *StatusHandler {
	return &StatusHandler{db: db, health: health}
}

// Health is the liveness probe.
func (h *StatusHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports whether the API can reach Postgres.
func (h *StatusHandler) Ready(c *gin.Context) {
	if h.db != nil {
		if err := h.db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// BotStatus returns the monitored WAHA gateway state.
func (h *StatusHandler) BotStatus(c *gin.Context) {
	status, err := h.health.Status(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}
