// Package storage is a client for a Supabase-compatible object storage
// HTTP API: path-addressed uploads, deletes and signed time-limited read
// URLs. Uploads overwrite by path, which the system treats as idempotent
// enough for re-uploads.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	return &Client{baseURL: baseURL, apiKey: apiKey, httpClient: httpClient}
}

func (c *Client) objectURL(bucket, path string) string {
	return fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, bucket, path)
}

func (c *Client) do(req *http.Request) error {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("storage returned status %d: %s", resp.StatusCode, body)
	}

	return nil
}

func (c *Client) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.objectURL(bucket, path), bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	// Overwrite-by-path semantics on re-upload.
	req.Header.Set("x-upsert", "true")

	if err := c.do(req); err != nil {
		return fmt.Errorf("upload %s/%s: %w", bucket, path, err)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, bucket, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.objectURL(bucket, path), nil)
	if err != nil {
		return fmt.Errorf("create delete request: %w", err)
	}

	if err := c.do(req); err != nil {
		return fmt.Errorf("delete %s/%s: %w", bucket, path, err)
	}
	return nil
}

// SignedURL asks the storage API for a time-limited read URL.
func (c *Client) SignedURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error) {
	body, err := json.Marshal(map[string]int{"expiresIn": int(ttl.Seconds())})
	if err != nil {
		return "", fmt.Errorf("marshal sign request: %w", err)
	}

	url := fmt.Sprintf("%s/storage/v1/object/sign/%s/%s", c.baseURL, bucket, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create sign request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sign %s/%s: %w", bucket, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("storage sign returned status %d: %s", resp.StatusCode, respBody)
	}

	var signed struct {
		SignedURL string `json:"signedURL"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&signed); err != nil {
		return "", fmt.Errorf("decode sign response: %w", err)
	}

	return c.baseURL + "/storage/v1" + signed.SignedURL, nil
}
