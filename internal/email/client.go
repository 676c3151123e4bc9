// Package email is a thin client for a Resend-compatible transactional
// email HTTP API.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

const defaultBaseURL = "https://api.resend.com"

type Client struct {
	baseURL    string
	apiKey     string
	from       string
	httpClient *http.Client
	logger     *slog.Logger
}

// New builds a client. An empty apiKey puts the client in degraded mode:
// sends are logged at debug level and succeed without touching the
// network, so the rest of the system behaves as if email did not exist.
func New(baseURL, apiKey, from string, httpClient *http.Client, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		from:       from,
		httpClient: httpClient,
		logger:     logger,
	}
}

type sendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

func (c *Client) Send(ctx context.Context, to, subject, html string) error {
	if c.apiKey == "" {
		c.logger.Debug("email skipped, provider not configured", "to", to, "subject", subject)
		return nil
	}

	data, err := json.Marshal(sendRequest{From: c.from, To: to, Subject: subject, HTML: html})
	if err != nil {
		return fmt.Errorf("marshal send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("email provider returned status %d: %s", resp.StatusCode, body)
	}

	return nil
}
