// Package portal holds the client for the student-portal authentication
// provider.
package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/capyvagas/capyvagas-api/pkg/config"
)

// Client validates RA/password pairs against the student portal. Timeouts
// and transport failures surface as errors; the conversation flow downgrades
// them to an authentication failure rather than crashing the exchange.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient builds a portal client with the configured request timeout.
func NewClient(cfg config.PortalConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

type validateRequest struct {
	RA       string `json:"ra"`
	Password string `json:"password"`
}

type validateResponse struct {
	Valid bool `json:"valid"`
}

// Authenticate checks a credential pair. A false return with nil error means
// the portal rejected the pair; an error means the portal was unreachable.
func (c *Client) Authenticate(ctx context.Context, ra, password string) (bool, error) {
	payload, err := json.Marshal(validateRequest{RA: ra, Password: password})
	if err != nil {
		return false, fmt.Errorf("marshal validate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/validate", bytes.NewReader(payload))
	if err != nil {
		return false, fmt.Errorf("build validate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("validate credentials: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("portal responded %d", resp.StatusCode)
	}

	var result validateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("decode validate response: %w", err)
	}
	return result.Valid, nil
}
