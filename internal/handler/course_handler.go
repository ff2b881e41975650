package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/capyvagas/capyvagas-api/internal/models"
	appErrors "github.com/capyvagas/capyvagas-api/pkg/errors"
	"github.com/capyvagas/capyvagas-api/pkg/response"
)

type courseService interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	Course(ctx context.Context, id int64) (*models.Course, error)
	Create(ctx context.Context, input models.CourseInput) (*models.Course, error)
	Update(ctx context.Context, id int64, input models.CourseInput) (*models.Course, error)
	SetActive(ctx context.Context, id int64, active bool) error
	Delete(ctx context.Context, ids []int64) (int, error)
	ListTerms(ctx context.Context, courseID int64) ([]models.SearchTerm, error)
	CreateTerm(ctx context.Context, input models.SearchTermInput) (*models.SearchTerm, error)
	UpdateTerm(ctx context.Context, id int64, input models.SearchTermInput) (*models.SearchTerm, error)
	DeleteTerm(ctx context.Context, id int64) error
}

// CourseHandler exposes the dashboard's course and term management.
type CourseHandler struct {
	service courseService
}

// NewCourseHandler builds a new handler.
func NewCourseHandler(service courseService) *CourseHandler {
	return &CourseHandler{service: service}
}

// List returns a filtered, paginated course listing.
func (h *CourseHandler) List(c *gin.Context) {
	filter := models.CourseFilter{
		Search:   c.Query("search"),
		Page:     intQuery(c, "page", 1),
		PageSize: intQuery(c, "page_size", 20),
	}
	if raw := c.Query("is_active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "is_active must be a boolean"))
			return
		}
		filter.IsActive = &active
	}

	courses, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// Get returns one course by id.
func (h *CourseHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	course, err := h.service.Course(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Create inserts a new course.
func (h *CourseHandler) Create(c *gin.Context) {
	var input models.CourseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course payload"))
		return
	}
	course, err := h.service.Create(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Update replaces a course's editable fields.
func (h *CourseHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var input models.CourseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course payload"))
		return
	}
	course, err := h.service.Update(c.Request.Context(), id, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

type toggleActiveRequest struct {
	IsActive bool `json:"is_active"`
}

// ToggleActive switches a course's menu visibility.
func (h *CourseHandler) ToggleActive(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req toggleActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid toggle payload"))
		return
	}
	if err := h.service.SetActive(c.Request.Context(), id, req.IsActive); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

type bulkDeleteRequest struct {
	IDs []int64 `json:"ids"`
}

// Delete removes one or more courses.
func (h *CourseHandler) Delete(c *gin.Context) {
	var req bulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid delete payload"))
		return
	}
	deleted, err := h.service.Delete(c.Request.Context(), req.IDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": deleted}, nil)
}

// ListTerms returns every search term of a course.
func (h *CourseHandler) ListTerms(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	terms, err := h.service.ListTerms(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, terms, nil)
}

// CreateTerm inserts a search term.
func (h *CourseHandler) CreateTerm(c *gin.Context) {
	var input models.SearchTermInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid term payload"))
		return
	}
	term, err := h.service.CreateTerm(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, term)
}

// UpdateTerm replaces a search term's fields.
func (h *CourseHandler) UpdateTerm(c *gin.Context) {
	id, err := pathID(c, "termId")
	if err != nil {
		response.Error(c, err)
		return
	}
	var input models.SearchTermInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid term payload"))
		return
	}
	term, err := h.service.UpdateTerm(c.Request.Context(), id, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, term, nil)
}

// DeleteTerm removes one search term.
func (h *CourseHandler) DeleteTerm(c *gin.Context) {
	id, err := pathID(c, "termId")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.DeleteTerm(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid id in path")
	}
	return id, nil
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
