// Package jobs holds the client for the external job-search provider.
package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/capyvagas/capyvagas-api/internal/models"
	"github.com/capyvagas/capyvagas-api/pkg/config"
)

// Client queries the scraping service for job postings matching a set of
// search terms. Any failure is the caller's cue for an empty result set.
type Client struct {
	baseURL    string
	location   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient builds a job-search client with the configured request timeout.
func NewClient(cfg config.JobsConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		location:   cfg.Location,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

type searchRequest struct {
	Terms    []string `json:"terms"`
	Location string   `json:"location,omitempty"`
	Limit    int      `json:"limit"`
}

type searchResponse struct {
	Jobs []models.JobPosting `json:"jobs"`
}

// Search returns up to limit postings for the given terms.
func (c *Client) Search(ctx context.Context, terms []string, limit int) ([]models.JobPosting, error) {
	payload, err := json.Marshal(searchRequest{Terms: terms, Location: c.location, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search jobs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("job provider responded %d", resp.StatusCode)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if limit > 0 && len(result.Jobs) > limit {
		result.Jobs = result.Jobs[:limit]
	}
	return result.Jobs, nil
}
