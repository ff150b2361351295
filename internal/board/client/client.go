// Package client is the HTTP transport to a message board server. All
// client processes reach the board exclusively through it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/parlorgames/parlor/internal/message"
)

// ErrTransport marks a board fetch or append failure. Callers decide
// whether to surface it (appends) or retry next cycle (polls).
var ErrTransport = errors.New("board transport failure")

const defaultTimeout = 10 * time.Second

// Metadata mirrors the board's /meta response.
type Metadata struct {
	UpSince      string `json:"upSince"`
	MessageCount int    `json:"messageCount"`
}

// Client talks to one board server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the board at baseURL.
func New(baseURL string) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("board url is required")
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("parse board url: %w", err)
	}
	return &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}, nil
}

// FetchRecords returns the board's full log, newest first.
func (c *Client) FetchRecords(ctx context.Context) ([]message.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/messages", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build fetch request: %v", ErrTransport, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch records: %v", ErrTransport, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fetch records: status %d", ErrTransport, resp.StatusCode)
	}

	var records []message.Record
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: decode records: %v", ErrTransport, err)
	}
	return records, nil
}

// AppendRecord posts one message; the board stamps id and timestamp.
func (c *Client) AppendRecord(ctx context.Context, from, text string) (message.Record, error) {
	body, err := json.Marshal(map[string]string{"from": from, "message": text})
	if err != nil {
		return message.Record{}, fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return message.Record{}, fmt.Errorf("%w: build append request: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return message.Record{}, fmt.Errorf("%w: append record: %v", ErrTransport, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return message.Record{}, fmt.Errorf("%w: append record: status %d", ErrTransport, resp.StatusCode)
	}

	var rec message.Record
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return message.Record{}, fmt.Errorf("%w: decode appended record: %v", ErrTransport, err)
	}
	return rec, nil
}

// Metadata returns the board's /meta response.
func (c *Client) Metadata(ctx context.Context) (Metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/meta", nil)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: build meta request: %v", ErrTransport, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: fetch meta: %v", ErrTransport, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Metadata{}, fmt.Errorf("%w: fetch meta: status %d", ErrTransport, resp.StatusCode)
	}

	var meta Metadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return Metadata{}, fmt.Errorf("%w: decode meta: %v", ErrTransport, err)
	}
	return meta, nil
}
