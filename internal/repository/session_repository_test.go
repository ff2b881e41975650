package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capyvagas/capyvagas-api/internal/models"
)

func newSessionRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func sessionRows(chatID string, state models.ConversationState) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "chat_id", "ra", "portal_password_enc", "is_authenticated", "current_state",
		"selected_course_id", "selected_term_id", "flow_scratch", "last_activity", "created_at", "updated_at",
	}).AddRow("sess-1", chatID, nil, nil, false, string(state), nil, nil, []byte(`{}`), now, now, now)
}

func TestSessionRepositoryGetOrCreateExisting(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()

	repo := NewSessionRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, chat_id, ra, portal_password_enc")).
		WithArgs("c1").
		WillReturnRows(sessionRows("c1", models.StateAwaitingRA))

	session, created, err := repo.GetOrCreate(context.Background(), "c1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, models.StateAwaitingRA, session.State)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryGetOrCreateInsertsOnce(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()

	repo := NewSessionRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, chat_id, ra, portal_password_enc")).
		WithArgs("c1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user_sessions")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, chat_id, ra, portal_password_enc")).
		WithArgs("c1").
		WillReturnRows(sessionRows("c1", models.StateNone))

	session, created, err := repo.GetOrCreate(context.Background(), "c1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "c1", session.ChatID)
	assert.Equal(t, models.StateNone, session.State)
	assert.Empty(t, session.Scratch)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryUpdateStateWritesScratch(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()

	repo := NewSessionRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE user_sessions SET current_state = $2, flow_scratch = $3")).
		WithArgs("c1", "awaiting_password", `{"temp_ra":"a1234567"}`, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateState(context.Background(), "c1", models.StateAwaitingPassword, models.FlowScratch{"temp_ra": "a1234567"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryLinkCredentials(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()

	repo := NewSessionRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE user_sessions SET ra = $2, portal_password_enc = $3, is_authenticated = TRUE")).
		WithArgs("c1", "a1234567", "sealed-password", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.LinkCredentials(context.Background(), "c1", "a1234567", "sealed-password")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryClearCredentialsRetainsRA(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()

	repo := NewSessionRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE user_sessions SET is_authenticated = FALSE, portal_password_enc = NULL, selected_course_id = NULL, selected_term_id = NULL, current_state = '', flow_scratch = '{}'")).
		WithArgs("c1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.ClearCredentials(context.Background(), "c1")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositorySetSelectedCourseAcceptsNil(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()

	repo := NewSessionRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE user_sessions SET selected_course_id = $2")).
		WithArgs("c1", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SetSelectedCourse(context.Background(), "c1", nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
