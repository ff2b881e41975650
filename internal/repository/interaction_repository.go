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

// InteractionRepository persists the message audit trail.
type InteractionRepository struct {
	db *sqlx.DB
}

// NewInteractionRepository creates a new instance of InteractionRepository.
func NewInteractionRepository(db *sqlx.DB) *InteractionRepository {
	return &InteractionRepository{db: db}
}

const interactionColumns = `id, chat_id, message, direction, session_name, created_at`

// Create records one inbound or outbound message.
func (r *InteractionRepository) Create(ctx context.Context, log *models.InteractionLog) error {
	const query = `INSERT INTO interaction_logs (id, chat_id, message, direction, session_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	if _, err := r.db.ExecContext(ctx, query, log.ID, log.ChatID, log.Message, log.Direction, log.SessionName, log.CreatedAt); err != nil {
		return fmt.Errorf("create interaction log: %w", err)
	}
	return nil
}

// List returns audit entries for the dashboard, newest first, with total
// count.
func (r *InteractionRepository) List(ctx context.Context, filter models.InteractionFilter) ([]models.InteractionLog, int, error) {
	baseQuery := `FROM interaction_logs WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.ChatID != "" {
		conditions = append(conditions, fmt.Sprintf("chat_id = $%d", len(args)+1))
		args = append(args, filter.ChatID)
	}
	if filter.Direction != nil {
		conditions = append(conditions, fmt.Sprintf("direction = $%d", len(args)+1))
		args = append(args, *filter.Direction)
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

	listQuery := fmt.Sprintf("SELECT "+interactionColumns+" %s ORDER BY created_at DESC LIMIT %d OFFSET %d", baseQuery, pageSize, offset)
	var logs []models.InteractionLog
	if err := r.db.SelectContext(ctx, &logs, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list interaction logs: %w", err)
	}

	countQuery := "SELECT COUNT(*) " + baseQuery
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count interaction logs: %w", err)
	}

	return logs, total, nil
}
