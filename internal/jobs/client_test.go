package jobs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capyvagas/capyvagas-api/internal/models"
	"github.com/capyvagas/capyvagas-api/pkg/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.JobsConfig{BaseURL: srv.URL, Location: "Curitiba, PR", Timeout: 2 * time.Second}, nil)
}

func TestSearchSendsTermsAndLimit(t *testing.T) {
	var got searchRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(searchResponse{Jobs: []models.JobPosting{
			{Title: "Dev Python", Company: "Capy Corp", URL: "https://example.com/1"},
		}})
	})

	jobs, err := client.Search(context.Background(), []string{"Python", "Django"}, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"Python", "Django"}, got.Terms)
	assert.Equal(t, 5, got.Limit)
	assert.Equal(t, "Curitiba, PR", got.Location)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Dev Python", jobs[0].Title)
}

func TestSearchCapsResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		postings := make([]models.JobPosting, 8)
		for i := range postings {
			postings[i] = models.JobPosting{Title: "Vaga", Company: "X", URL: "https://example.com"}
		}
		_ = json.NewEncoder(w).Encode(searchResponse{Jobs: postings})
	})

	jobs, err := client.Search(context.Background(), []string{"Python"}, 5)
	require.NoError(t, err)
	assert.Len(t, jobs, 5)
}

func TestSearchProviderFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "scraper exploded", http.StatusBadGateway)
	})

	_, err := client.Search(context.Background(), []string{"Python"}, 5)
	assert.Error(t, err)
}
