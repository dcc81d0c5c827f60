// Package stream consumes the coaching backend's server-sent completion
// streams and wraps the session lifecycle endpoints around them.
package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultStallTimeout finalizes a stream that stops producing chunks without
// ever sending isComplete. The partial content is kept and marked incomplete.
const DefaultStallTimeout = 30 * time.Second

// ActionItem is a structured follow-up surfaced when a stream completes.
type ActionItem struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	DueDate     string `json:"dueDate,omitempty"`
}

// SessionSummary is the post-session recap from the backend.
type SessionSummary struct {
	SessionID        string       `json:"sessionId"`
	Summary          string       `json:"summary"`
	KeyTopics        []string     `json:"keyTopics,omitempty"`
	ActionItems      []ActionItem `json:"actionItems,omitempty"`
	EmotionalJourney string       `json:"emotionalJourney,omitempty"`
	Duration         int          `json:"duration,omitempty"`
}

// APIError is returned for non-200 responses.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stream API error (%d): %s", e.Status, e.Body)
}

// Client talks to the coaching-session endpoints.
type Client struct {
	baseURL      string
	http         *http.Client
	stallTimeout time.Duration
}

// NewClient creates a session client. The HTTP client carries no overall
// timeout: streams are bounded by the per-chunk stall timeout instead.
func NewClient(baseURL string, stallTimeout time.Duration) *Client {
	if stallTimeout <= 0 {
		stallTimeout = DefaultStallTimeout
	}
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		http:         &http.Client{},
		stallTimeout: stallTimeout,
	}
}

// CreateSession starts a remote coaching session.
// POST {base}/ai/sessions → {sessionId}.
func (c *Client) CreateSession(ctx context.Context, userID, style, goalID string) (string, error) {
	body := map[string]string{"userId": userID, "style": style, "goalId": goalID}
	var resp struct {
		SessionID string `json:"sessionId"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/ai/sessions", body, &resp); err != nil {
		return "", err
	}
	if resp.SessionID == "" {
		return "", fmt.Errorf("backend returned empty session id")
	}
	return resp.SessionID, nil
}

// Summary fetches the recap for a finished session.
// GET {base}/ai/sessions/{id}/summary.
func (c *Client) Summary(ctx context.Context, sessionID string) (*SessionSummary, error) {
	var resp SessionSummary
	path := "/ai/sessions/" + sessionID + "/summary"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetStyle updates the coaching style mid-session.
// PUT {base}/ai/sessions/{id}/style with {style}.
func (c *Client) SetStyle(ctx context.Context, sessionID, style string) error {
	path := "/ai/sessions/" + sessionID + "/style"
	return c.doJSON(ctx, http.MethodPut, path, map[string]string{"style": style}, nil)
}

// doJSON issues a JSON request; out may be nil when the body is irrelevant.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &APIError{Status: resp.StatusCode, Body: string(respBody)}
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("parsing response: %w", err)
		}
	}
	return nil
}
