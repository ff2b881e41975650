package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/capyvagas/capyvagas-api/internal/models"
)

// JobSearchLogRepository persists the search audit trail.
type JobSearchLogRepository struct {
	db *sqlx.DB
}

// NewJobSearchLogRepository creates a new instance of JobSearchLogRepository.
func NewJobSearchLogRepository(db *sqlx.DB) *JobSearchLogRepository {
	return &JobSearchLogRepository{db: db}
}

const jobSearchColumns = `id, chat_id, search_term, results_count, results_preview, created_at`

// Create records one executed search with its result preview.
func (r *JobSearchLogRepository) Create(ctx context.Context, log *models.JobSearchLog) error {
	const query = `INSERT INTO job_search_logs (id, chat_id, search_term, results_count, results_preview, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	if log.ResultsPreview == nil {
		log.ResultsPreview = models.JobPreviewList{}
	}
	if _, err := r.db.ExecContext(ctx, query, log.ID, log.ChatID, log.SearchTerm, log.ResultsCount, log.ResultsPreview, log.CreatedAt); err != nil {
		return fmt.Errorf("create job search log: %w", err)
	}
	return nil
}

// List returns search logs for the dashboard, newest first, with total count.
func (r *JobSearchLogRepository) List(ctx context.Context, filter models.JobSearchFilter) ([]models.JobSearchLog, int, error) {
	baseQuery := `FROM job_search_logs WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.ChatID != "" {
		conditions = append(conditions, fmt.Sprintf("chat_id = $%d", len(args)+1))
		args = append(args, filter.ChatID)
	}
	if filter.Since != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)+1))
		args = append(args, *filter.Since)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 50
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT "+jobSearchColumns+" %s ORDER BY created_at DESC LIMIT %d OFFSET %d", baseQuery, pageSize, offset)
	var logs []models.JobSearchLog
	if err := r.db.SelectContext(ctx, &logs, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list job search logs: %w", err)
	}

	countQuery := "SELECT COUNT(*) " + baseQuery
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count job search logs: %w", err)
	}

	return logs, total, nil
}
