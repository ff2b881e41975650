package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capyvagas/capyvagas-api/internal/models"
)

func newCourseRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestCourseRepositoryListActiveOrdersByDisplayOrder(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()

	repo := NewCourseRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "code", "description", "is_active", "display_order", "created_at", "updated_at"}).
		AddRow(int64(1), "Engenharia de Software", nil, nil, true, 1, now, now).
		AddRow(int64(2), "Sistemas de Informação", nil, nil, true, 2, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE is_active = TRUE ORDER BY display_order, name")).
		WillReturnRows(rows)

	courses, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "Engenharia de Software", courses[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryDefaultTermsOrdersByPriority(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()

	repo := NewCourseRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "course_id", "term", "is_default", "priority", "created_at", "updated_at"}).
		AddRow(int64(1), int64(7), "Python", true, 2, now, now).
		AddRow(int64(2), int64(7), "Django", true, 1, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE course_id = $1 AND is_default = TRUE ORDER BY priority DESC, term")).
		WithArgs(int64(7)).
		WillReturnRows(rows)

	terms, err := repo.DefaultTerms(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, terms, 2)
	assert.Equal(t, "Python", terms[0].Term)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryCreateReturnsID(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()

	repo := NewCourseRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO courses")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	course := &models.Course{Name: "Eng", IsActive: true}
	require.NoError(t, repo.Create(context.Background(), course))
	assert.Equal(t, int64(42), course.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositorySetActiveMissingRow(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()

	repo := NewCourseRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE courses SET is_active = $2")).
		WithArgs(int64(99), false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetActive(context.Background(), 99, false)
	assert.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryDeleteExpandsIDs(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()

	repo := NewCourseRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM courses WHERE id IN")).
		WithArgs(int64(1), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	deleted, err := repo.Delete(context.Background(), []int64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}
