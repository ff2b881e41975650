package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/capyvagas/capyvagas-api/internal/models"
	appErrors "github.com/capyvagas/capyvagas-api/pkg/errors"
	"github.com/capyvagas/capyvagas-api/pkg/response"
)

type configurationService interface {
	Active(ctx context.Context) (*models.BotConfiguration, error)
	Update(ctx context.Context, input models.BotConfigurationInput) (*models.BotConfiguration, error)
	MessageText(ctx context.Context, key string) (string, error)
	SetMessageText(ctx context.Context, key, text string) error
}

// ConfigurationHandler exposes the gateway settings and the conversation
// text overrides.
type ConfigurationHandler struct {
	service configurationService
}

// NewConfigurationHandler builds a new handler.
func NewConfigurationHandler(service configurationService) *ConfigurationHandler {
	return &ConfigurationHandler{service: service}
}

// Get returns the stored gateway configuration.
func (h *ConfigurationHandler) Get(c *gin.Context) {
	cfg, err := h.service.Active(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg, nil)
}

// Update stores a new gateway configuration.
func (h *ConfigurationHandler) Update(c *gin.Context) {
	var input models.BotConfigurationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid configuration payload"))
		return
	}
	cfg, err := h.service.Update(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg, nil)
}

// GetMessage returns the stored override for one conversation text.
func (h *ConfigurationHandler) GetMessage(c *gin.Context) {
	key := c.Param("key")
	text, err := h.service.MessageText(c.Request.Context(), key)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"key": key, "text": text}, nil)
}

type messageTextRequest struct {
	Text string `json:"text"`
}

// SetMessage stores the override for one conversation text.
func (h *ConfigurationHandler) SetMessage(c *gin.Context) {
	var req messageTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid message payload"))
		return
	}
	if err := h.service.SetMessageText(c.Request.Context(), c.Param("key"), req.Text); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
