package models

import "time"

// Course represents a university course or interest area offered in the
// course-selection menu.
type Course struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Code         *string   `db:"code" json:"code,omitempty"`
	Description  *string   `db:"description" json:"description,omitempty"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// SearchTerm is a job-search keyword attached to a course. Default terms are
// the ones offered in the term menu and bundled into "search all".
type SearchTerm struct {
	ID        int64     `db:"id" json:"id"`
	CourseID  int64     `db:"course_id" json:"course_id"`
	Term      string    `db:"term" json:"term"`
	IsDefault bool      `db:"is_default" json:"is_default"`
	Priority  int       `db:"priority" json:"priority"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CourseInput is the dashboard payload for creating or updating a course.
type CourseInput struct {
	Name         string  `json:"name" validate:"required,max=100"`
	Code         *string `json:"code,omitempty" validate:"omitempty,max=20"`
	Description  *string `json:"description,omitempty"`
	IsActive     *bool   `json:"is_active,omitempty"`
	DisplayOrder *int    `json:"display_order,omitempty"`
}

// SearchTermInput is the dashboard payload for creating or updating a term.
type SearchTermInput struct {
	CourseID  int64  `json:"course_id" validate:"required"`
	Term      string `json:"term" validate:"required,max=100"`
	IsDefault *bool  `json:"is_default,omitempty"`
	Priority  *int   `json:"priority,omitempty"`
}

// CourseFilter captures dashboard listing criteria.
type CourseFilter struct {
	IsActive *bool
	Search   string
	Page     int
	PageSize int
}
