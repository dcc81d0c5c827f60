package gateway

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/peakmode/coach/internal/actions"
	"github.com/peakmode/coach/internal/assistant"
	"github.com/peakmode/coach/internal/config"
	"github.com/peakmode/coach/internal/dispatch"
	"github.com/peakmode/coach/internal/domain"
	"github.com/peakmode/coach/internal/intent"
	"github.com/peakmode/coach/internal/nlp"
	"github.com/peakmode/coach/internal/store"
	"github.com/peakmode/coach/internal/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T, coach *stream.Client) (*Server, *httptest.Server) {
	t.Helper()
	log := testLog()

	db, err := store.Open(":memory:", log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	history := store.NewHistoryStore(db, 50)
	reg := actions.NewRegistry(&nlp.MockAnswerer{}, log)
	d := dispatch.New(nlp.StaticProbe(false), nil, intent.NewOfflineClassifier(), reg, log)
	runner := assistant.NewRunner(d, history, coach, "", log)

	srv := New(config.Defaults(), runner, log)
	srv.startedAt = time.Now()

	mux := http.NewServeMux()
	srv.registerHTTPRoutes(mux)

	ts := httptest.NewServer(withMiddleware(mux, log))
	t.Cleanup(ts.Close)
	return srv, ts
}

func postChat(t *testing.T, ts *httptest.Server, userID, text string) *http.Response {
	t.Helper()
	body, err := json.Marshal(chatRequest{UserID: userID, Text: text})
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+"/api/chat", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	_, ts := testServer(t, nil)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
	assert.NotEmpty(t, health.Version)
}

func TestNotFoundEndpoint(t *testing.T) {
	_, ts := testServer(t, nil)

	resp, err := http.Get(ts.URL + "/nonexistent")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestChatEndpoint_OfflineTurn(t *testing.T) {
	_, ts := testServer(t, nil)

	resp := postChat(t, ts, "u1", "log my workout")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var outcome assistant.TurnOutcome
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&outcome))
	assert.Equal(t, domain.RoleUser, outcome.User.Role)
	assert.Equal(t, domain.RoleAssistant, outcome.Assistant.Role)
	assert.Equal(t, domain.IntentTrackHabit, outcome.Result.Intent.Intent)
	assert.Equal(t, "offline", outcome.Result.Path)
}

func TestChatEndpoint_BlankTextIsNoop(t *testing.T) {
	_, ts := testServer(t, nil)

	resp := postChat(t, ts, "u1", "   ")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestChatEndpoint_MissingUserID(t *testing.T) {
	_, ts := testServer(t, nil)

	resp := postChat(t, ts, "", "hello")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChatEndpoint_InvalidBody(t *testing.T) {
	_, ts := testServer(t, nil)

	resp, err := http.Post(ts.URL+"/api/chat", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHistoryEndpoint_SeedsWelcome(t *testing.T) {
	_, ts := testServer(t, nil)

	resp, err := http.Get(ts.URL + "/api/history/u1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		UserID   string           `json:"userId"`
		Messages []domain.Message `json:"messages"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "u1", payload.UserID)
	require.Len(t, payload.Messages, 1)
	assert.Equal(t, domain.RoleAssistant, payload.Messages[0].Role)
}

func TestHistoryEndpoint_AfterTurn(t *testing.T) {
	_, ts := testServer(t, nil)

	resp := postChat(t, ts, "u1", "how am I doing")
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	hresp, err := http.Get(ts.URL + "/api/history/u1")
	require.NoError(t, err)
	defer hresp.Body.Close()

	var payload struct {
		Messages []domain.Message `json:"messages"`
	}
	require.NoError(t, json.NewDecoder(hresp.Body).Decode(&payload))
	// open-seeded welcome + user message + assistant reply
	require.Len(t, payload.Messages, 3)
	assert.Equal(t, domain.RoleAssistant, payload.Messages[0].Role)
	assert.Equal(t, domain.RoleUser, payload.Messages[1].Role)
	assert.Equal(t, domain.RoleAssistant, payload.Messages[2].Role)
}

func TestHistoryClearEndpoint(t *testing.T) {
	_, ts := testServer(t, nil)

	resp := postChat(t, ts, "u1", "log my workout")
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/history/u1", nil)
	require.NoError(t, err)
	dresp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer dresp.Body.Close()
	require.Equal(t, http.StatusOK, dresp.StatusCode)

	var payload struct {
		Welcome domain.Message `json:"welcome"`
	}
	require.NoError(t, json.NewDecoder(dresp.Body).Decode(&payload))
	assert.Equal(t, domain.RoleAssistant, payload.Welcome.Role)

	hresp, err := http.Get(ts.URL + "/api/history/u1")
	require.NoError(t, err)
	defer hresp.Body.Close()

	var hist struct {
		Messages []domain.Message `json:"messages"`
	}
	require.NoError(t, json.NewDecoder(hresp.Body).Decode(&hist))
	require.Len(t, hist.Messages, 1)
}

func TestTurnErrorStatus(t *testing.T) {
	status, code := turnErrorStatus(dispatch.ErrTurnInFlight)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "turn_in_flight", code)

	status, code = turnErrorStatus(assert.AnError)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "turn_failed", code)
}

func TestCheckWebSocketOrigin(t *testing.T) {
	req := httptest.NewRequest("GET", "/ws", nil)
	req.Host = "localhost:18690"

	// Non-browser clients send no Origin
	assert.True(t, checkWebSocketOrigin(req))

	req.Header.Set("Origin", "http://localhost:18690")
	assert.True(t, checkWebSocketOrigin(req))

	req.Header.Set("Origin", "http://evil.example.com")
	assert.False(t, checkWebSocketOrigin(req))

	req.Header.Set("Origin", "://bad")
	assert.False(t, checkWebSocketOrigin(req))
}
