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

// SessionRepository provides database access for per-chat conversation
// sessions. Every mutation is a field-scoped UPDATE so concurrent writers for
// different concerns never clobber each other's columns.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new instance of SessionRepository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, chat_id, ra, portal_password_enc, is_authenticated, current_state, selected_course_id, selected_term_id, flow_scratch, last_activity, created_at, updated_at`

// FindByChatID returns the session for a chat identifier.
func (r *SessionRepository) FindByChatID(ctx context.Context, chatID string) (*models.UserSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM user_sessions WHERE chat_id = $1 LIMIT 1`
	var session models.UserSession
	if err := r.db.GetContext(ctx, &session, query, chatID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find session by chat id: %w", err)
	}
	return &session, nil
}

// GetOrCreate resolves the session for a chat identifier, creating it on the
// first inbound message from an unseen chat.
func (r *SessionRepository) GetOrCreate(ctx context.Context, chatID string) (*models.UserSession, bool, error) {
	session, err := r.FindByChatID(ctx, chatID)
	if err == nil {
		return session, false, nil
	}
	if err != sql.ErrNoRows {
		return nil, false, err
	}

	now := time.Now().UTC()
	const insert = `INSERT INTO user_sessions (id, chat_id, is_authenticated, current_state, flow_scratch, last_activity, created_at, updated_at)
		VALUES ($1, $2, FALSE, '', '{}', $3, $3, $3)
		ON CONFLICT (chat_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, insert, uuid.NewString(), chatID, now); err != nil {
		return nil, false, fmt.Errorf("create session: %w", err)
	}

	// Re-read so a concurrent insert for the same chat still yields one row.
	session, err = r.FindByChatID(ctx, chatID)
	if err != nil {
		return nil, false, err
	}
	return session, true, nil
}

// UpdateState transitions the conversation state and replaces the flow
// scratch in one statement.
func (r *SessionRepository) UpdateState(ctx context.Context, chatID string, state models.ConversationState, scratch models.FlowScratch) error {
	const query = `UPDATE user_sessions SET current_state = $2, flow_scratch = $3, last_activity = $4, updated_at = $4 WHERE chat_id = $1`
	if scratch == nil {
		scratch = models.FlowScratch{}
	}
	now := time.Now().UTC()
	if _, err := r.db.ExecContext(ctx, query, chatID, state, scratch, now); err != nil {
		return fmt.Errorf("update session state: %w", err)
	}
	return nil
}

// SetSelectedCourse persists the course chosen in the job-search flow.
func (r *SessionRepository) SetSelectedCourse(ctx context.Context, chatID string, courseID *int64) error {
	const query = `UPDATE user_sessions SET selected_course_id = $2, last_activity = $3, updated_at = $3 WHERE chat_id = $1`
	now := time.Now().UTC()
	if _, err := r.db.ExecContext(ctx, query, chatID, courseID, now); err != nil {
		return fmt.Errorf("set selected course: %w", err)
	}
	return nil
}

// SetSelectedTerm persists the search term chosen in the job-search flow.
func (r *SessionRepository) SetSelectedTerm(ctx context.Context, chatID string, termID *int64) error {
	const query = `UPDATE user_sessions SET selected_term_id = $2, last_activity = $3, updated_at = $3 WHERE chat_id = $1`
	now := time.Now().UTC()
	if _, err := r.db.ExecContext(ctx, query, chatID, termID, now); err != nil {
		return fmt.Errorf("set selected term: %w", err)
	}
	return nil
}

// LinkCredentials binds an authenticated identity to the chat after the
// portal accepted the credential pair. The password arrives already
// encrypted.
func (r *SessionRepository) LinkCredentials(ctx context.Context, chatID, ra, encryptedPassword string) error {
	const query = `UPDATE user_sessions SET ra = $2, portal_password_enc = $3, is_authenticated = TRUE, last_activity = $4, updated_at = $4 WHERE chat_id = $1`
	now := time.Now().UTC()
	if _, err := r.db.ExecContext(ctx, query, chatID, ra, encryptedPassword, now); err != nil {
		return fmt.Errorf("link credentials: %w", err)
	}
	return nil
}

// ClearCredentials reverts a session to the unauthenticated state. The RA is
// retained so a returning user is recognisable in the audit trail; the stored
// password and any flow selections are dropped.
func (r *SessionRepository) ClearCredentials(ctx context.Context, chatID string) error {
	const query = `UPDATE user_sessions SET is_authenticated = FALSE, portal_password_enc = NULL, selected_course_id = NULL, selected_term_id = NULL, current_state = '', flow_scratch = '{}', last_activity = $2, updated_at = $2 WHERE chat_id = $1`
	now := time.Now().UTC()
	if _, err := r.db.ExecContext(ctx, query, chatID, now); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}

// Touch refreshes the activity timestamp without other changes.
func (r *SessionRepository) Touch(ctx context.Context, chatID string) error {
	const query = `UPDATE user_sessions SET last_activity = $2, updated_at = $2 WHERE chat_id = $1`
	now := time.Now().UTC()
	if _, err := r.db.ExecContext(ctx, query, chatID, now); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}
