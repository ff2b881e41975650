package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/capyvagas/capyvagas-api/internal/models"
	appErrors "github.com/capyvagas/capyvagas-api/pkg/errors"
)

type courseRepoStub struct {
	courses     []models.Course
	terms       map[int64][]models.SearchTerm
	listActive  int
	defaultHits int
	err         error
}

func (s *courseRepoStub) ListActive(ctx context.Context) ([]models.Course, error) {
	s.listActive++
	return s.courses, s.err
}

func (s *courseRepoStub) DefaultTerms(ctx context.Context, courseID int64) ([]models.SearchTerm, error) {
	s.defaultHits++
	if s.err != nil {
		return nil, s.err
	}
	return s.terms[courseID], nil
}

func (s *courseRepoStub) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	for i := range s.courses {
		if s.courses[i].ID == id {
			return &s.courses[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *courseRepoStub) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	return s.courses, len(s.courses), s.err
}

func (s *courseRepoStub) Create(ctx context.Context, course *models.Course) error {
	if s.err != nil {
		return s.err
	}
	course.ID = int64(len(s.courses) + 1)
	s.courses = append(s.courses, *course)
	return nil
}

func (s *courseRepoStub) Update(ctx context.Context, course *models.Course) error { return s.err }

func (s *courseRepoStub) SetActive(ctx context.Context, id int64, active bool) error { return s.err }

func (s *courseRepoStub) Delete(ctx context.Context, ids []int64) (int, error) {
	return len(ids), s.err
}

func (s *courseRepoStub) ListTerms(ctx context.Context, courseID int64) ([]models.SearchTerm, error) {
	return s.terms[courseID], s.err
}

func (s *courseRepoStub) CreateTerm(ctx context.Context, term *models.SearchTerm) error {
	if s.err != nil {
		return s.err
	}
	term.ID = 1
	return nil
}

func (s *courseRepoStub) UpdateTerm(ctx context.Context, term *models.SearchTerm) error { return s.err }

func (s *courseRepoStub) FindTermByID(ctx context.Context, id int64) (*models.SearchTerm, error) {
	for _, terms := range s.terms {
		for i := range terms {
			if terms[i].ID == id {
				return &terms[i], nil
			}
		}
	}
	return nil, sql.ErrNoRows
}

func (s *courseRepoStub) DeleteTerm(ctx context.Context, id int64) error { return s.err }

// memoryCache mimics the Redis repository with a plain map.
type memoryCache struct {
	entries     map[string][]byte
	invalidated []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *memoryCache) Invalidate(ctx context.Context, keys ...string) {
	for _, key := range keys {
		delete(c.entries, key)
		c.invalidated = append(c.invalidated, key)
	}
}

func TestActiveCoursesCachesSecondRead(t *testing.T) {
	repo := &courseRepoStub{courses: []models.Course{{ID: 1, Name: "Eng"}}}
	cache := newMemoryCache()
	svc := NewCourseService(repo, cache, time.Minute, nil, zap.NewNop())
	ctx := context.Background()

	first, err := svc.ActiveCourses(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := svc.ActiveCourses(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.listActive, "second read must come from cache")
}

func TestActiveCoursesWorksWithoutCache(t *testing.T) {
	repo := &courseRepoStub{courses: []models.Course{{ID: 1, Name: "Eng"}}}
	svc := NewCourseService(repo, nil, time.Minute, nil, zap.NewNop())

	courses, err := svc.ActiveCourses(context.Background())
	require.NoError(t, err)
	assert.Len(t, courses, 1)
}

func TestCreateCourseInvalidatesCache(t *testing.T) {
	repo := &courseRepoStub{}
	cache := newMemoryCache()
	svc := NewCourseService(repo, cache, time.Minute, nil, zap.NewNop())
	ctx := context.Background()

	_, err := svc.ActiveCourses(ctx)
	require.NoError(t, err)
	require.Contains(t, cache.entries, cacheKeyActiveCourses)

	_, err = svc.Create(ctx, models.CourseInput{Name: "Eng"})
	require.NoError(t, err)
	assert.NotContains(t, cache.entries, cacheKeyActiveCourses, "a dashboard write must drop the menu cache")
}

func TestCreateCourseValidatesInput(t *testing.T) {
	svc := NewCourseService(&courseRepoStub{}, nil, time.Minute, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), models.CourseInput{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestCourseNotFound(t *testing.T) {
	svc := NewCourseService(&courseRepoStub{}, nil, time.Minute, nil, zap.NewNop())

	_, err := svc.Course(context.Background(), 99)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCreateTermInvalidatesTermCache(t *testing.T) {
	repo := &courseRepoStub{
		courses: []models.Course{{ID: 7, Name: "Eng"}},
		terms:   map[int64][]models.SearchTerm{7: {{ID: 1, CourseID: 7, Term: "Python"}}},
	}
	cache := newMemoryCache()
	svc := NewCourseService(repo, cache, time.Minute, nil, zap.NewNop())
	ctx := context.Background()

	_, err := svc.DefaultTerms(ctx, 7)
	require.NoError(t, err)
	require.Contains(t, cache.entries, termsCacheKey(7))

	_, err = svc.CreateTerm(ctx, models.SearchTermInput{CourseID: 7, Term: "Django"})
	require.NoError(t, err)
	assert.NotContains(t, cache.entries, termsCacheKey(7))
}

func TestDeleteRequiresIDs(t *testing.T) {
	svc := NewCourseService(&courseRepoStub{}, nil, time.Minute, nil, zap.NewNop())

	_, err := svc.Delete(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
