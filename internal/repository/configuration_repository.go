package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/capyvagas/capyvagas-api/internal/models"
)

// ConfigurationRepository stores the dashboard-managed WAHA connection
// settings and the operator-overridable bot message texts.
type ConfigurationRepository struct {
	db *sqlx.DB
}

// NewConfigurationRepository creates a new instance of ConfigurationRepository.
func NewConfigurationRepository(db *sqlx.DB) *ConfigurationRepository {
	return &ConfigurationRepository{db: db}
}

// GetActive returns the most recent configuration row, or sql.ErrNoRows when
// the operator never saved one.
func (r *ConfigurationRepository) GetActive(ctx context.Context) (*models.BotConfiguration, error) {
	const query = `SELECT id, waha_url, waha_api_key, waha_session, created_at, updated_at FROM bot_configurations ORDER BY created_at DESC LIMIT 1`
	var cfg models.BotConfiguration
	if err := r.db.GetContext(ctx, &cfg, query); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get active configuration: %w", err)
	}
	return &cfg, nil
}

// Create appends a new configuration revision. The newest row wins.
func (r *ConfigurationRepository) Create(ctx context.Context, cfg *models.BotConfiguration) error {
	const query = `INSERT INTO bot_configurations (waha_url, waha_api_key, waha_session, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4) RETURNING id`
	now := time.Now().UTC()
	cfg.CreatedAt = now
	cfg.UpdatedAt = now
	if err := r.db.QueryRowxContext(ctx, query, cfg.WahaURL, cfg.WahaAPIKey, cfg.WahaSession, now).Scan(&cfg.ID); err != nil {
		return fmt.Errorf("create configuration: %w", err)
	}
	return nil
}

// GetMessageText returns the operator override for a message key, or
// sql.ErrNoRows when none is configured.
func (r *ConfigurationRepository) GetMessageText(ctx context.Context, key string) (string, error) {
	const query = `SELECT text FROM bot_messages WHERE key = $1 LIMIT 1`
	var text string
	if err := r.db.GetContext(ctx, &text, query, key); err != nil {
		if err == sql.ErrNoRows {
			return "", err
		}
		return "", fmt.Errorf("get message text: %w", err)
	}
	return text, nil
}

// UpsertMessageText saves an operator override for a message key.
func (r *ConfigurationRepository) UpsertMessageText(ctx context.Context, key, text string) error {
	const query = `INSERT INTO bot_messages (key, text, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET text = EXCLUDED.text, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, key, text, time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert message text: %w", err)
	}
	return nil
}
