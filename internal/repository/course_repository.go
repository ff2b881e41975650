package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/capyvagas/capyvagas-api/internal/models"
)

// CourseRepository provides database access for courses and their search
// terms. The bot depends on exactly two query shapes: active courses ordered
// by (display_order, name) and default terms ordered by (-priority, term).
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository creates a new instance of CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseColumns = `id, name, code, description, is_active, display_order, created_at, updated_at`
const termColumns = `id, course_id, term, is_default, priority, created_at, updated_at`

// ListActive returns the courses offered in the selection menu, in menu
// order.
func (r *CourseRepository) ListActive(ctx context.Context) ([]models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE is_active = TRUE ORDER BY display_order, name`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list active courses: %w", err)
	}
	return courses, nil
}

// DefaultTerms returns a course's default search terms, highest priority
// first.
func (r *CourseRepository) DefaultTerms(ctx context.Context, courseID int64) ([]models.SearchTerm, error) {
	query := `SELECT ` + termColumns + ` FROM search_terms WHERE course_id = $1 AND is_default = TRUE ORDER BY priority DESC, term`
	var terms []models.SearchTerm
	if err := r.db.SelectContext(ctx, &terms, query, courseID); err != nil {
		return nil, fmt.Errorf("list default terms: %w", err)
	}
	return terms, nil
}

// FindByID returns a course by identifier.
func (r *CourseRepository) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1 LIMIT 1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find course by id: %w", err)
	}
	return &course, nil
}

// List returns courses for the dashboard with total count.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	baseQuery := `FROM courses WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *filter.IsActive)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(COALESCE(code, '')) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT "+courseColumns+" %s ORDER BY display_order, name LIMIT %d OFFSET %d", baseQuery, pageSize, offset)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	countQuery := "SELECT COUNT(*) " + baseQuery
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}

	return courses, total, nil
}

// Create inserts a course and returns it with generated fields.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	const query = `INSERT INTO courses (name, code, description, is_active, display_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6) RETURNING id`
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now
	if err := r.db.QueryRowxContext(ctx, query, course.Name, course.Code, course.Description, course.IsActive, course.DisplayOrder, now).Scan(&course.ID); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update rewrites the mutable columns of a course.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	const query = `UPDATE courses SET name = $2, code = $3, description = $4, is_active = $5, display_order = $6, updated_at = $7 WHERE id = $1`
	now := time.Now().UTC()
	course.UpdatedAt = now
	res, err := r.db.ExecContext(ctx, query, course.ID, course.Name, course.Code, course.Description, course.IsActive, course.DisplayOrder, now)
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetActive toggles a course's menu visibility.
func (r *CourseRepository) SetActive(ctx context.Context, id int64, active bool) error {
	const query = `UPDATE courses SET is_active = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, active, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("toggle course: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes courses by id and returns how many went away. Search terms
// cascade at the schema level.
func (r *CourseRepository) Delete(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`DELETE FROM courses WHERE id IN (?)`, ids)
	if err != nil {
		return 0, fmt.Errorf("build course delete: %w", err)
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("delete courses: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// ListTerms returns every term of a course for the dashboard.
func (r *CourseRepository) ListTerms(ctx context.Context, courseID int64) ([]models.SearchTerm, error) {
	query := `SELECT ` + termColumns + ` FROM search_terms WHERE course_id = $1 ORDER BY priority DESC, term`
	var terms []models.SearchTerm
	if err := r.db.SelectContext(ctx, &terms, query, courseID); err != nil {
		return nil, fmt.Errorf("list terms: %w", err)
	}
	return terms, nil
}

// CreateTerm inserts a search term for a course.
func (r *CourseRepository) CreateTerm(ctx context.Context, term *models.SearchTerm) error {
	const query = `INSERT INTO search_terms (course_id, term, is_default, priority, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5) RETURNING id`
	now := time.Now().UTC()
	term.CreatedAt = now
	term.UpdatedAt = now
	if err := r.db.QueryRowxContext(ctx, query, term.CourseID, term.Term, term.IsDefault, term.Priority, now).Scan(&term.ID); err != nil {
		return fmt.Errorf("create term: %w", err)
	}
	return nil
}

// UpdateTerm rewrites the mutable columns of a search term.
func (r *CourseRepository) UpdateTerm(ctx context.Context, term *models.SearchTerm) error {
	const query = `UPDATE search_terms SET term = $2, is_default = $3, priority = $4, updated_at = $5 WHERE id = $1`
	now := time.Now().UTC()
	term.UpdatedAt = now
	res, err := r.db.ExecContext(ctx, query, term.ID, term.Term, term.IsDefault, term.Priority, now)
	if err != nil {
		return fmt.Errorf("update term: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindTermByID returns a search term by identifier.
func (r *CourseRepository) FindTermByID(ctx context.Context, id int64) (*models.SearchTerm, error) {
	query := `SELECT ` + termColumns + ` FROM search_terms WHERE id = $1 LIMIT 1`
	var term models.SearchTerm
	if err := r.db.GetContext(ctx, &term, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find term by id: %w", err)
	}
	return &term, nil
}

// DeleteTerm removes a search term.
func (r *CourseRepository) DeleteTerm(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM search_terms WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete term: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
