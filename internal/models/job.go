package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JobPosting is one result returned by the job-search provider.
type JobPosting struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location,omitempty"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// JobPreviewList stores the first few results of a search as JSONB for the
// dashboard.
type JobPreviewList []JobPosting

// Value serialises the preview for its JSONB column.
func (l JobPreviewList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	raw, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("marshal job preview: %w", err)
	}
	return string(raw), nil
}

// Scan loads the preview from its JSONB column.
func (l *JobPreviewList) Scan(src interface{}) error {
	if src == nil {
		*l = JobPreviewList{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported job preview type %T", src)
	}
	if len(raw) == 0 {
		*l = JobPreviewList{}
		return nil
	}
	return json.Unmarshal(raw, l)
}

// JobSearchLog records one search a user triggered, with a preview of what
// came back. Provider failures still produce a row with zero results.
type JobSearchLog struct {
	ID             string         `db:"id" json:"id"`
	ChatID         string         `db:"chat_id" json:"chat_id"`
	SearchTerm     string         `db:"search_term" json:"search_term"`
	ResultsCount   int            `db:"results_count" json:"results_count"`
	ResultsPreview JobPreviewList `db:"results_preview" json:"results_preview"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
}

// JobSearchFilter captures dashboard listing criteria for search logs.
type JobSearchFilter struct {
	ChatID   string
	Since    *time.Time
	Page     int
	PageSize int
}
