// Package client talks to the pdfmcr HTTP API on behalf of an editor
// session: it loads pages and saves their annotations.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/pdfmcr/internal/editor"
	"github.com/starford/pdfmcr/internal/model"
	"github.com/starford/pdfmcr/internal/pageservice"
)

// RequestIDHeader carries the per-request id, matching chi's RequestID
// middleware.
const RequestIDHeader = "X-Request-Id"

// StatusError is returned for responses outside the 2xx range.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("status %d", e.Code)
	}
	return fmt.Sprintf("status %d: %s", e.Code, e.Message)
}

// Client is an HTTP client for one pdfmcr API base URL, such as
// http://localhost:8080/api.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var _ editor.Saver = (*Client)(nil)

// New creates a client. An empty token sends no Authorization header.
func New(baseURL, token string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("client: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer func() { _ = resp.Body.Close() }()
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&e)
		return nil, &StatusError{Code: resp.StatusCode, Message: e.Error}
	}
	return resp, nil
}

// Page loads page n with its size and annotations.
func (c *Client) Page(ctx context.Context, n int) (*pageservice.PageDetail, error) {
	resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/page/%d", n), nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var page pageservice.PageDetail
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("client: decode page %d: %w", n, err)
	}
	page.Annotations.Normalize()
	return &page, nil
}

// SaveAnnotations posts the annotation payload of page n.
func (c *Client) SaveAnnotations(ctx context.Context, n int, p model.PageAnnotations) error {
	body, err := model.Encode(p)
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/page/%d/annotations", n), body)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}
