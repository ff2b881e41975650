package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/capyvagas/capyvagas-api/internal/models"
	appErrors "github.com/capyvagas/capyvagas-api/pkg/errors"
)

type configurationRepository interface {
	GetActive(ctx context.Context) (*models.BotConfiguration, error)
	Create(ctx context.Context, cfg *models.BotConfiguration) error
	GetMessageText(ctx context.Context, key string) (string, error)
	UpsertMessageText(ctx context.Context, key, text string) error
}

// ConfigurationService manages the stored gateway settings and the
// operator-editable conversation texts.
type ConfigurationService struct {
	repo      configurationRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewConfigurationService constructs a ConfigurationService instance.
func NewConfigurationService(repo configurationRepository, validate *validator.Validate, logger *zap.Logger) *ConfigurationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConfigurationService{repo: repo, validator: validate, logger: logger}
}

// Active returns the stored gateway configuration, if any.
func (s *ConfigurationService) Active(ctx context.Context) (*models.BotConfiguration, error) {
	cfg, err := s.repo.GetActive(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no configuration stored")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load configuration")
	}
	return cfg, nil
}

// Update validates and stores a new gateway configuration. Configurations
// are append-only; the newest row wins.
func (s *ConfigurationService) Update(ctx context.Context, input models.BotConfigurationInput) (*models.BotConfiguration, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid configuration payload")
	}

	cfg := &models.BotConfiguration{
		WahaURL:     input.WahaURL,
		WahaAPIKey:  input.WahaAPIKey,
		WahaSession: input.WahaSession,
	}
	if err := s.repo.Create(ctx, cfg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store configuration")
	}

	s.logger.Info("gateway configuration updated", zap.String("waha_url", cfg.WahaURL), zap.String("session", cfg.WahaSession))
	return cfg, nil
}

// MessageText returns the stored override for a conversation text key.
func (s *ConfigurationService) MessageText(ctx context.Context, key string) (string, error) {
	text, err := s.repo.GetMessageText(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrNotFound, "no text stored for key")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load message text")
	}
	return text, nil
}

// SetMessageText stores or replaces the override for a conversation text.
func (s *ConfigurationService) SetMessageText(ctx context.Context, key, text string) error {
	if key == "" || text == "" {
		return appErrors.Clone(appErrors.ErrValidation, "key and text are required")
	}
	if err := s.repo.UpsertMessageText(ctx, key, text); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store message text")
	}
	return nil
}
