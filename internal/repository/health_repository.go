package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/capyvagas/capyvagas-api/internal/models"
)

// HealthRepository stores WAHA gateway health probes.
type HealthRepository struct {
	db *sqlx.DB
}

// NewHealthRepository creates a new instance of HealthRepository.
func NewHealthRepository(db *sqlx.DB) *HealthRepository {
	return &HealthRepository{db: db}
}

const healthColumns = `id, status, response_time_ms, session_status, error_message, created_at`

// Create records one probe result.
func (r *HealthRepository) Create(ctx context.Context, check *models.BotHealthCheck) error {
	const query = `INSERT INTO bot_health_checks (id, status, response_time_ms, session_status, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if check.ID == "" {
		check.ID = uuid.NewString()
	}
	if check.CreatedAt.IsZero() {
		check.CreatedAt = time.Now().UTC()
	}
	if _, err := r.db.ExecContext(ctx, query, check.ID, check.Status, check.ResponseTimeMs, check.SessionStatus, check.ErrorMessage, check.CreatedAt); err != nil {
		return fmt.Errorf("create health check: %w", err)
	}
	return nil
}

// Latest returns the most recent probe, or sql.ErrNoRows before the first
// probe runs.
func (r *HealthRepository) Latest(ctx context.Context) (*models.BotHealthCheck, error) {
	query := `SELECT ` + healthColumns + ` FROM bot_health_checks ORDER BY created_at DESC LIMIT 1`
	var check models.BotHealthCheck
	if err := r.db.GetContext(ctx, &check, query); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("latest health check: %w", err)
	}
	return &check, nil
}

// WindowStats aggregates probes inside a recent window into an uptime ratio
// and average latency.
func (r *HealthRepository) WindowStats(ctx context.Context, since time.Time) (uptimePercent, avgResponseMs float64, err error) {
	const query = `SELECT
		COALESCE(100.0 * COUNT(*) FILTER (WHERE status = 'online') / NULLIF(COUNT(*), 0), 0),
		COALESCE(AVG(response_time_ms), 0)
		FROM bot_health_checks WHERE created_at >= $1`
	row := r.db.QueryRowxContext(ctx, query, since)
	if err := row.Scan(&uptimePercent, &avgResponseMs); err != nil {
		return 0, 0, fmt.Errorf("health window stats: %w", err)
	}
	return uptimePercent, avgResponseMs, nil
}
