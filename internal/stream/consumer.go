package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Event types emitted by the stream consumer.
const (
	EventDelta = "delta"
	EventDone  = "done"
	EventError = "error"
)

// Event is one step of a consumed completion stream. "delta" carries
// incremental text, "done" the populated Final, "error" a failure.
type Event struct {
	Type  string `json:"type"`
	Delta string `json:"delta,omitempty"`
	Error string `json:"error,omitempty"`

	// Final fields (type="done")
	Final *FinalMessage `json:"final,omitempty"`
}

// FinalMessage is the assembled result of a stream.
type FinalMessage struct {
	Text         string       `json:"text"`
	Incomplete   bool         `json:"incomplete,omitempty"`
	Tokens       int          `json:"tokens,omitempty"`
	Tone         string       `json:"emotionalTone,omitempty"`
	ActionItems  []ActionItem `json:"actionItems,omitempty"`
	QuickReplies []string     `json:"quickReplies,omitempty"`
}

// chunk is one decoded `data:` line of the event stream.
type chunk struct {
	Delta         string       `json:"delta,omitempty"`
	IsComplete    bool         `json:"isComplete,omitempty"`
	Tokens        int          `json:"tokens,omitempty"`
	EmotionalTone string       `json:"emotionalTone,omitempty"`
	ActionItems   []ActionItem `json:"actionItems,omitempty"`
}

// Stream opens POST {base}/ai/sessions/{id}/stream and returns a channel of
// events. The channel always ends with exactly one "done" or "error" event.
//
// Dropped connections and stalls have a defined policy: if no chunk arrives
// within the stall timeout, or the body ends without isComplete, the
// accumulated text is finalized with Incomplete set.
func (c *Client) Stream(ctx context.Context, sessionID, message string) (<-chan Event, error) {
	payload, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := c.baseURL + "/ai/sessions/" + sessionID + "/stream"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(payload)))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	events := make(chan Event)
	go c.consume(ctx, resp.Body, events)
	return events, nil
}

// consume reads the SSE body line by line, forwarding deltas and assembling
// the final message.
func (c *Client) consume(ctx context.Context, body io.ReadCloser, events chan<- Event) {
	defer close(events)
	defer body.Close()

	done := make(chan struct{})
	defer close(done)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(body)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
	}()

	var buf strings.Builder
	final := &FinalMessage{}

	finish := func(incomplete bool) {
		final.Text = buf.String()
		final.Incomplete = incomplete
		final.QuickReplies = QuickReplies(final.Text)
		events <- Event{Type: EventDone, Final: final}
	}

	stall := time.NewTimer(c.stallTimeout)
	defer stall.Stop()

	for {
		select {
		case <-ctx.Done():
			events <- Event{Type: EventError, Error: ctx.Err().Error()}
			return

		case <-stall.C:
			// No chunk within the stall window: finalize what we have.
			finish(true)
			return

		case line, ok := <-lines:
			if !ok {
				if ctx.Err() != nil {
					events <- Event{Type: EventError, Error: ctx.Err().Error()}
					return
				}
				// Body ended. Without isComplete this is a dropped
				// connection; keep the partial buffer.
				finish(true)
				return
			}

			if !stall.Stop() {
				<-stall.C
			}
			stall.Reset(c.stallTimeout)

			data, ok := strings.CutPrefix(line, "data: ")
			if !ok {
				continue
			}

			var ch chunk
			if err := json.Unmarshal([]byte(data), &ch); err != nil {
				continue
			}

			if ch.Delta != "" {
				buf.WriteString(ch.Delta)
				events <- Event{Type: EventDelta, Delta: ch.Delta}
			}
			if ch.Tokens > 0 {
				final.Tokens = ch.Tokens
			}
			if ch.EmotionalTone != "" {
				final.Tone = ch.EmotionalTone
			}
			if len(ch.ActionItems) > 0 {
				final.ActionItems = ch.ActionItems
			}

			if ch.IsComplete {
				finish(false)
				return
			}
		}
	}
}
