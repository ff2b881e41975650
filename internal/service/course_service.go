package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/capyvagas/capyvagas-api/internal/models"
	appErrors "github.com/capyvagas/capyvagas-api/pkg/errors"
)

const (
	cacheKeyActiveCourses = "courses:active"
	cacheKeyTermsPrefix   = "courses:terms:"
)

type courseRepository interface {
	ListActive(ctx context.Context) ([]models.Course, error)
	DefaultTerms(ctx context.Context, courseID int64) ([]models.SearchTerm, error)
	FindByID(ctx context.Context, id int64) (*models.Course, error)
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	SetActive(ctx context.Context, id int64, active bool) error
	Delete(ctx context.Context, ids []int64) (int, error)
	ListTerms(ctx context.Context, courseID int64) ([]models.SearchTerm, error)
	CreateTerm(ctx context.Context, term *models.SearchTerm) error
	UpdateTerm(ctx context.Context, term *models.SearchTerm) error
	FindTermByID(ctx context.Context, id int64) (*models.SearchTerm, error)
	DeleteTerm(ctx context.Context, id int64) error
}

type courseCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string)
}

// CourseService serves the course and term reference data. The bot reads
// through the Redis cache; dashboard writes go straight to Postgres and
// invalidate the affected keys.
type CourseService struct {
	repo      courseRepository
	cache     courseCache
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs a CourseService instance.
func NewCourseService(repo courseRepository, cache courseCache, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

// ActiveCourses returns the courses offered in the selection menu, cached.
func (s *CourseService) ActiveCourses(ctx context.Context) ([]models.Course, error) {
	if s.cache != nil {
		var cached []models.Course
		if err := s.cache.Get(ctx, cacheKeyActiveCourses, &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("course cache read failed", zap.Error(err))
		}
	}

	courses, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list active courses")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKeyActiveCourses, courses, s.cacheTTL); err != nil {
			s.logger.Warn("course cache write failed", zap.Error(err))
		}
	}
	return courses, nil
}

// DefaultTerms returns a course's menu terms in priority order, cached.
func (s *CourseService) DefaultTerms(ctx context.Context, courseID int64) ([]models.SearchTerm, error) {
	key := termsCacheKey(courseID)
	if s.cache != nil {
		var cached []models.SearchTerm
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("term cache read failed", zap.Int64("course_id", courseID), zap.Error(err))
		}
	}

	terms, err := s.repo.DefaultTerms(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list search terms")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, terms, s.cacheTTL); err != nil {
			s.logger.Warn("term cache write failed", zap.Int64("course_id", courseID), zap.Error(err))
		}
	}
	return terms, nil
}

// Course fetches a single course by id.
func (s *CourseService) Course(ctx context.Context, id int64) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch course")
	}
	return course, nil
}

// List returns courses matching the dashboard filter with a total count.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, total, nil
}

// Create validates and inserts a new course.
func (s *CourseService) Create(ctx context.Context, input models.CourseInput) (*models.Course, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course := &models.Course{
		Name:        input.Name,
		Code:        input.Code,
		Description: input.Description,
		IsActive:    true,
	}
	if input.IsActive != nil {
		course.IsActive = *input.IsActive
	}
	if input.DisplayOrder != nil {
		course.DisplayOrder = *input.DisplayOrder
	}

	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}

	s.invalidateCourses(ctx)
	s.logger.Info("course created", zap.Int64("course_id", course.ID), zap.String("name", course.Name))
	return course, nil
}

// Update validates and applies a course update.
func (s *CourseService) Update(ctx context.Context, id int64, input models.CourseInput) (*models.Course, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course, err := s.Course(ctx, id)
	if err != nil {
		return nil, err
	}

	course.Name = input.Name
	course.Code = input.Code
	course.Description = input.Description
	if input.IsActive != nil {
		course.IsActive = *input.IsActive
	}
	if input.DisplayOrder != nil {
		course.DisplayOrder = *input.DisplayOrder
	}

	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}

	s.invalidateCourses(ctx, id)
	return course, nil
}

// SetActive toggles a course's menu visibility.
func (s *CourseService) SetActive(ctx context.Context, id int64, active bool) error {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to toggle course")
	}
	s.invalidateCourses(ctx, id)
	return nil
}

// Delete removes the given courses and their terms. It returns how many
// rows were actually deleted.
func (s *CourseService) Delete(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "no course ids provided")
	}
	deleted, err := s.repo.Delete(ctx, ids)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete courses")
	}
	s.invalidateCourses(ctx, ids...)
	s.logger.Info("courses deleted", zap.Int64s("course_ids", ids), zap.Int("deleted", deleted))
	return deleted, nil
}

// ListTerms returns every term of a course, default or not.
func (s *CourseService) ListTerms(ctx context.Context, courseID int64) ([]models.SearchTerm, error) {
	if _, err := s.Course(ctx, courseID); err != nil {
		return nil, err
	}
	terms, err := s.repo.ListTerms(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list terms")
	}
	return terms, nil
}

// CreateTerm validates and inserts a search term.
func (s *CourseService) CreateTerm(ctx context.Context, input models.SearchTermInput) (*models.SearchTerm, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid term payload")
	}
	if _, err := s.Course(ctx, input.CourseID); err != nil {
		return nil, err
	}

	term := &models.SearchTerm{
		CourseID:  input.CourseID,
		Term:      input.Term,
		IsDefault: true,
	}
	if input.IsDefault != nil {
		term.IsDefault = *input.IsDefault
	}
	if input.Priority != nil {
		term.Priority = *input.Priority
	}

	if err := s.repo.CreateTerm(ctx, term); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create term")
	}

	s.invalidateCourses(ctx, term.CourseID)
	return term, nil
}

// UpdateTerm validates and applies a term update.
func (s *CourseService) UpdateTerm(ctx context.Context, id int64, input models.SearchTermInput) (*models.SearchTerm, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid term payload")
	}

	term, err := s.repo.FindTermByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch term")
	}

	term.CourseID = input.CourseID
	term.Term = input.Term
	if input.IsDefault != nil {
		term.IsDefault = *input.IsDefault
	}
	if input.Priority != nil {
		term.Priority = *input.Priority
	}

	if err := s.repo.UpdateTerm(ctx, term); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update term")
	}

	s.invalidateCourses(ctx, term.CourseID)
	return term, nil
}

// DeleteTerm removes one search term.
func (s *CourseService) DeleteTerm(ctx context.Context, id int64) error {
	term, err := s.repo.FindTermByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch term")
	}
	if err := s.repo.DeleteTerm(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete term")
	}
	s.invalidateCourses(ctx, term.CourseID)
	return nil
}

func (s *CourseService) invalidateCourses(ctx context.Context, courseIDs ...int64) {
	if s.cache == nil {
		return
	}
	keys := []string{cacheKeyActiveCourses}
	for _, id := range courseIDs {
		keys = append(keys, termsCacheKey(id))
	}
	s.cache.Invalidate(ctx, keys...)
}

func termsCacheKey(courseID int64) string {
	return fmt.Sprintf("%s%d", cacheKeyTermsPrefix, courseID)
}
