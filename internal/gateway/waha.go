// Package gateway holds the thin HTTP client for the WAHA messaging gateway.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/capyvagas/capyvagas-api/pkg/config"
	appErrors "github.com/capyvagas/capyvagas-api/pkg/errors"
)

// WahaClient sends WhatsApp messages through a WAHA instance and inspects the
// session state for the health monitor.
type WahaClient struct {
	baseURL     string
	apiKey      string
	sessionName string
	httpClient  *http.Client
	logger      *zap.Logger
}

// NewWahaClient builds a client with the configured request timeout.
func NewWahaClient(cfg config.WahaConfig, logger *zap.Logger) *WahaClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WahaClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		sessionName: cfg.SessionName,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		logger:      logger,
	}
}

// SessionName reports which WAHA session this client speaks for; the audit
// trail tags every message with it.
func (c *WahaClient) SessionName() string {
	return c.sessionName
}

type sendTextRequest struct {
	ChatID  string `json:"chatId"`
	Text    string `json:"text"`
	Session string `json:"session"`
}

// SendText delivers one outbound message. Transport failures and non-2xx
// statuses come back as errors; callers log them and move on, they never
// abort message processing.
func (c *WahaClient) SendText(ctx context.Context, chatID, text string) error {
	payload, err := json.Marshal(sendTextRequest{
		ChatID:  normalizeChatID(chatID),
		Text:    text,
		Session: c.sessionName,
	})
	if err != nil {
		return fmt.Errorf("marshal send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/send/text", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrGatewayUnavailable.Code, appErrors.ErrGatewayUnavailable.Status, "send text")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("waha responded %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

type sessionStatusResponse struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// SessionStatus reports the WAHA session state (WORKING, SCAN_QR_CODE, ...).
func (c *WahaClient) SessionStatus(ctx context.Context) (string, error) {
	url := fmt.Sprintf("%s/api/sessions/%s", c.baseURL, c.sessionName)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build session request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrGatewayUnavailable.Code, appErrors.ErrGatewayUnavailable.Status, "session status")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("waha responded %d", resp.StatusCode)
	}

	var status sessionStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return "", fmt.Errorf("decode session status: %w", err)
	}
	return status.Status, nil
}

// normalizeChatID appends the WhatsApp Web suffix WAHA expects when the
// caller passed a bare phone-derived id.
func normalizeChatID(chatID string) string {
	if strings.Contains(chatID, "@") {
		return chatID
	}
	return chatID + "@c.us"
}
