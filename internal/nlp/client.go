// Package nlp provides HTTP clients for the coaching backend's NLP
// endpoints: intent classification, question answering, and the liveness
// probe used to decide between the online and offline classification paths.
package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/peakmode/coach/internal/domain"
)

// APIError is returned for non-200 responses from the backend.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("nlp API error (%d): %s", e.Status, e.Body)
}

// Client talks to the coaching backend's NLP endpoints.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates an NLP client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Name identifies the classification path.
func (c *Client) Name() string { return "online" }

// classifyRequest is the wire shape of a classification call.
type classifyRequest struct {
	Text    string          `json:"text"`
	UserID  string          `json:"userId"`
	Context classifyContext `json:"context"`
}

type classifyContext struct {
	LastIntent string `json:"lastIntent,omitempty"`
	Timestamp  string `json:"timestamp,omitempty"`
}

type classifyResponse struct {
	PrimaryIntent struct {
		Type       string  `json:"type"`
		Confidence float64 `json:"confidence"`
		RawText    string  `json:"rawText"`
		Slots      []struct {
			Type       string  `json:"type"`
			Value      string  `json:"value"`
			Confidence float64 `json:"confidence"`
		} `json:"slots"`
	} `json:"primaryIntent"`
}

// Classify sends the utterance to POST /api/nlp/classify-intent. The
// conversation context rides along so the server can disambiguate against
// the previous turn; any weighting is server-side.
func (c *Client) Classify(ctx context.Context, text string, conv domain.ConversationContext) (domain.IntentResult, error) {
	body := classifyRequest{
		Text:   text,
		UserID: conv.UserID,
	}
	if conv.LastIntent != "" {
		body.Context = classifyContext{
			LastIntent: conv.LastIntent,
			Timestamp:  conv.Timestamp.Format(time.RFC3339),
		}
	}

	var resp classifyResponse
	if err := c.postJSON(ctx, "/api/nlp/classify-intent", body, &resp); err != nil {
		return domain.IntentResult{}, err
	}

	result := domain.IntentResult{
		Intent:     resp.PrimaryIntent.Type,
		Confidence: resp.PrimaryIntent.Confidence,
		RawText:    resp.PrimaryIntent.RawText,
	}
	if result.RawText == "" {
		result.RawText = text
	}
	for _, s := range resp.PrimaryIntent.Slots {
		result.Slots = append(result.Slots, domain.Slot{
			Type:       s.Type,
			Value:      s.Value,
			Confidence: s.Confidence,
		})
	}
	return result, nil
}

type answerRequest struct {
	Question string `json:"question"`
	UserID   string `json:"userId"`
}

type answerResponse struct {
	PrimaryAnswer struct {
		Text string `json:"text"`
	} `json:"primaryAnswer"`
}

// Answer sends a free-form question to POST /api/nlp/answer-question.
func (c *Client) Answer(ctx context.Context, question, userID string) (string, error) {
	var resp answerResponse
	err := c.postJSON(ctx, "/api/nlp/answer-question", answerRequest{Question: question, UserID: userID}, &resp)
	if err != nil {
		return "", err
	}
	return resp.PrimaryAnswer.Text, nil
}

// postJSON issues a JSON POST and decodes the response into out.
func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

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

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}
