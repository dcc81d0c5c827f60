package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/peakmode/coach/internal/dispatch"
)

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Clients  int    `json:"clients,omitempty"`
	UptimeMS int64  `json:"uptimeMs,omitempty"`
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Version:  s.version,
		Clients:  s.clients.Count(),
		UptimeMS: time.Since(s.startedAt).Milliseconds(),
	})
}

// chatRequest is the REST body for a single turn.
type chatRequest struct {
	UserID string `json:"userId"`
	Text   string `json:"text"`
}

// handleChat processes one turn synchronously and returns the outcome.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "invalid_body", "userId is required")
		return
	}

	s.runner.Open(req.UserID)

	outcome, err := s.runner.Send(req.UserID, req.Text)
	if err != nil {
		status, code := turnErrorStatus(err)
		writeError(w, status, code, err.Error())
		return
	}
	if outcome == nil {
		// Blank input is a silent no-op.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, outcome)
}

// handleHistory returns the stored conversation for a user.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "invalid_path", "userId is required")
		return
	}
	msgs := s.runner.Open(userID)
	writeJSON(w, http.StatusOK, map[string]any{
		"userId":   userID,
		"messages": msgs,
	})
}

// handleHistoryClear wipes a user's conversation and reseeds the welcome.
func (s *Server) handleHistoryClear(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "invalid_path", "userId is required")
		return
	}
	welcome, err := s.runner.Clear(userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"userId":  userID,
		"welcome": welcome,
	})
}

// handleNotFound returns a 404 for unknown routes.
func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "not found",
		"path":  r.URL.Path,
	})
}

// turnErrorStatus maps turn errors to HTTP status + error code.
func turnErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, dispatch.ErrTurnInFlight):
		return http.StatusConflict, "turn_in_flight"
	case errors.Is(err, dispatch.ErrEmptyInput):
		return http.StatusBadRequest, "empty_input"
	default:
		return http.StatusBadGateway, "turn_failed"
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error":   code,
		"message": strings.TrimSpace(message),
	})
}

// RequestHandler processes an incoming WebSocket request frame.
type RequestHandler func(ctx *RequestContext)

// RequestContext carries everything a handler needs.
type RequestContext struct {
	Client *Client
	Frame  Frame
	Server *Server
}

// Respond sends a success response.
func (rc *RequestContext) Respond(payload any) {
	if err := rc.Client.Respond(rc.Frame.ID, payload); err != nil {
		rc.Server.log.Warn().Err(err).Str("method", rc.Frame.Method).Msg("failed to send response")
	}
}

// RespondError sends an error response.
func (rc *RequestContext) RespondError(code, message string) {
	rc.Client.RespondError(rc.Frame.ID, ErrorShape{
		Code:    code,
		Message: message,
	})
}

// Params unmarshals the request params into the given target.
func (rc *RequestContext) Params(target any) error {
	if rc.Frame.Params == nil {
		return nil
	}
	return json.Unmarshal(rc.Frame.Params, target)
}
