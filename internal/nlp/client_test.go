package nlp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/peakmode/coach/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/nlp/classify-intent", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "log my workout", req["text"])
		assert.Equal(t, "user-1", req["userId"])

		json.NewEncoder(w).Encode(map[string]any{
			"primaryIntent": map[string]any{
				"type":       "track_habit",
				"confidence": 0.92,
				"rawText":    "log my workout",
				"slots": []map[string]any{
					{"type": "habit_name", "value": "workout", "confidence": 0.85},
				},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	res, err := c.Classify(context.Background(), "log my workout",
		domain.ConversationContext{UserID: "user-1"})
	require.NoError(t, err)

	assert.Equal(t, domain.IntentTrackHabit, res.Intent)
	assert.Equal(t, 0.92, res.Confidence)
	assert.Equal(t, "log my workout", res.RawText)
	require.Len(t, res.Slots, 1)
	assert.Equal(t, domain.SlotHabit, res.Slots[0].Type)
	assert.Equal(t, "workout", res.Slots[0].Value)
}

func TestClassify_SendsConversationContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Context struct {
				LastIntent string `json:"lastIntent"`
			} `json:"context"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "track_habit", req.Context.LastIntent)

		json.NewEncoder(w).Encode(map[string]any{
			"primaryIntent": map[string]any{"type": "check_progress", "confidence": 0.8},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.Classify(context.Background(), "and now?", domain.ConversationContext{
		UserID:     "user-1",
		LastIntent: domain.IntentTrackHabit,
		Timestamp:  time.Now(),
	})
	require.NoError(t, err)
}

func TestClassify_Non200IsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.Classify(context.Background(), "hello", domain.ConversationContext{UserID: "u"})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
}

func TestClassify_UnreachableHost(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 200*time.Millisecond)
	_, err := c.Classify(context.Background(), "hello", domain.ConversationContext{UserID: "u"})
	assert.Error(t, err)
}

func TestAnswer_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/nlp/answer-question", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "what is a superset", req["question"])
		assert.Equal(t, "user-1", req["userId"])

		json.NewEncoder(w).Encode(map[string]any{
			"primaryAnswer": map[string]string{"text": "Two exercises back to back."},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	answer, err := c.Answer(context.Background(), "what is a superset", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Two exercises back to back.", answer)
}

// --- Probe tests ---

func TestHealthProbe_Online(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewHealthProbe(srv.URL, time.Second)
	assert.True(t, p.Online(context.Background()))
}

func TestHealthProbe_Non200IsOffline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewHealthProbe(srv.URL, time.Second)
	assert.False(t, p.Online(context.Background()))
}

func TestHealthProbe_TimeoutIsOffline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	p := NewHealthProbe(srv.URL, 50*time.Millisecond)
	assert.False(t, p.Online(context.Background()))
}

func TestHealthProbe_UnreachableIsOffline(t *testing.T) {
	p := NewHealthProbe("http://127.0.0.1:1", 100*time.Millisecond)
	assert.False(t, p.Online(context.Background()))
}

func TestStaticProbe(t *testing.T) {
	assert.True(t, StaticProbe(true).Online(context.Background()))
	assert.False(t, StaticProbe(false).Online(context.Background()))
}
