package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/capyvagas/capyvagas-api/internal/models"
	"github.com/capyvagas/capyvagas-api/internal/service"
	appErrors "github.com/capyvagas/capyvagas-api/pkg/errors"
	"github.com/capyvagas/capyvagas-api/pkg/response"
)

type interactionService interface {
	ListInteractions(ctx context.Context, filter models.InteractionFilter) ([]models.InteractionLog, int, error)
	ListSearches(ctx context.Context, filter models.JobSearchFilter) ([]models.JobSearchLog, int, error)
}

type exportService interface {
	ExportInteractions(ctx context.Context, filter models.InteractionFilter, format service.ExportFormat) (*service.ExportResult, error)
	ExportSearches(ctx context.Context, filter models.JobSearchFilter, format service.ExportFormat) (*service.ExportResult, error)
}

// InteractionHandler exposes the dashboard's conversation history and its
// CSV/PDF exports.
type InteractionHandler struct {
	service  interactionService
	exporter exportService
}

// NewInteractionHandler builds a new handler.
func NewInteractionHandler(service interactionService, exporter exportService) *InteractionHandler {
	return &InteractionHandler{service: service, exporter: exporter}
}

// ListInteractions returns the audited message history.
func (h *InteractionHandler) ListInteractions(c *gin.Context) {
	filter, err := interactionFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	logs, total, err := h.service.ListInteractions(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// ListSearches returns the audited job-search history.
func (h *InteractionHandler) ListSearches(c *gin.Context) {
	filter, err := jobSearchFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	logs, total, err := h.service.ListSearches(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// ExportInteractions streams the message history as CSV or PDF.
func (h *InteractionHandler) ExportInteractions(c *gin.Context) {
	filter, err := interactionFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.exporter.ExportInteractions(c.Request.Context(), filter, service.ExportFormat(c.DefaultQuery("format", "csv")))
	if err != nil {
		response.Error(c, err)
		return
	}
	streamExport(c, result)
}

// ExportSearches streams the job-search history as CSV or PDF.
func (h *InteractionHandler) ExportSearches(c *gin.Context) {
	filter, err := jobSearchFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.exporter.ExportSearches(c.Request.Context(), filter, service.ExportFormat(c.DefaultQuery("format", "csv")))
	if err != nil {
		response.Error(c, err)
		return
	}
	streamExport(c, result)
}

func streamExport(c *gin.Context, result *service.ExportResult) {
	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Data)
}

func interactionFilter(c *gin.Context) (models.InteractionFilter, error) {
	filter := models.InteractionFilter{
		ChatID:   c.Query("chat_id"),
		Page:     intQuery(c, "page", 1),
		PageSize: intQuery(c, "page_size", 50),
	}
	if raw := c.Query("direction"); raw != "" {
		direction := models.MessageDirection(raw)
		if direction != models.DirectionSent && direction != models.DirectionReceived {
			return filter, appErrors.Clone(appErrors.ErrValidation, "direction must be SENT or RECEIVED")
		}
		filter.Direction = &direction
	}
	since, err := sinceQuery(c)
	if err != nil {
		return filter, err
	}
	filter.Since = since
	return filter, nil
}

func jobSearchFilter(c *gin.Context) (models.JobSearchFilter, error) {
	filter := models.JobSearchFilter{
		ChatID:   c.Query("chat_id"),
		Page:     intQuery(c, "page", 1),
		PageSize: intQuery(c, "page_size", 50),
	}
	since, err := sinceQuery(c)
	if err != nil {
		return filter, err
	}
	filter.Since = since
	return filter, nil
}

func sinceQuery(c *gin.Context) (*time.Time, error) {
	raw := c.Query("since")
	if raw == "" {
		return nil, nil
	}
	since, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "since must be an RFC3339 timestamp")
	}
	return &since, nil
}
