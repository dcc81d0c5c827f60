package gateway

import (
	"errors"
	"net/http"
	"time"

	"github.com/peakmode/coach/internal/assistant"
	"github.com/peakmode/coach/internal/stream"
)

// registerHTTPRoutes sets up all HTTP routes on the server mux.
func (s *Server) registerHTTPRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/history/{userId}", s.handleHistory)
	mux.HandleFunc("DELETE /api/history/{userId}", s.handleHistoryClear)
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	// Catch-all for unknown routes
	mux.HandleFunc("/", handleNotFound)
}

// registerWSHandlers sets up all WebSocket method handlers.
func (s *Server) registerWSHandlers() {
	s.Handle(MethodHealth, s.wsHealth)
	s.Handle(MethodChatSend, s.wsChatSend)
	s.Handle(MethodHistoryGet, s.wsHistoryGet)
	s.Handle(MethodHistoryClear, s.wsHistoryClear)
	s.Handle(MethodCoachStart, s.wsCoachStart)
	s.Handle(MethodCoachSend, s.wsCoachSend)
	s.Handle(MethodCoachSummary, s.wsCoachSummary)
	s.Handle(MethodCoachStyle, s.wsCoachStyle)
}

func (s *Server) wsHealth(rc *RequestContext) {
	rc.Respond(HealthResponse{
		Status:   "ok",
		Version:  s.version,
		Clients:  s.clients.Count(),
		UptimeMS: time.Since(s.startedAt).Milliseconds(),
	})
}

type userTextParams struct {
	UserID string `json:"userId"`
	Text   string `json:"text"`
}

func (s *Server) wsChatSend(rc *RequestContext) {
	var p userTextParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}
	if p.UserID == "" {
		rc.RespondError("invalid_params", "userId is required")
		return
	}

	rc.Client.BindUser(p.UserID)
	s.runner.Open(p.UserID)

	outcome, err := s.runner.Send(p.UserID, p.Text)
	if err != nil {
		_, code := turnErrorStatus(err)
		rc.RespondError(code, err.Error())
		return
	}
	if outcome == nil {
		rc.Respond(map[string]any{"noop": true})
		return
	}
	rc.Respond(outcome)
}

type userParams struct {
	UserID string `json:"userId"`
}

func (s *Server) wsHistoryGet(rc *RequestContext) {
	var p userParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}
	if p.UserID == "" {
		rc.RespondError("invalid_params", "userId is required")
		return
	}
	rc.Client.BindUser(p.UserID)
	rc.Respond(map[string]any{
		"userId":   p.UserID,
		"messages": s.runner.Open(p.UserID),
	})
}

func (s *Server) wsHistoryClear(rc *RequestContext) {
	var p userParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}
	if p.UserID == "" {
		rc.RespondError("invalid_params", "userId is required")
		return
	}
	rc.Client.BindUser(p.UserID)
	welcome, err := s.runner.Clear(p.UserID)
	if err != nil {
		rc.RespondError("store_error", err.Error())
		return
	}
	rc.Respond(map[string]any{"userId": p.UserID, "welcome": welcome})
}

type coachStartParams struct {
	UserID string `json:"userId"`
	Style  string `json:"style,omitempty"`
	GoalID string `json:"goalId,omitempty"`
}

func (s *Server) wsCoachStart(rc *RequestContext) {
	var p coachStartParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}
	if p.UserID == "" {
		rc.RespondError("invalid_params", "userId is required")
		return
	}

	rc.Client.BindUser(p.UserID)
	s.runner.Open(p.UserID)

	sessionID, err := s.runner.StartCoaching(p.UserID, p.Style, p.GoalID)
	if err != nil {
		rc.RespondError(coachErrorCode(err), err.Error())
		return
	}
	rc.Respond(map[string]any{"sessionId": sessionID})
}

type coachSendParams struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

// wsCoachSend streams a coaching reply: coach.delta events while chunks
// arrive, then the final message as the response frame.
func (s *Server) wsCoachSend(rc *RequestContext) {
	var p coachSendParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}
	if p.UserID == "" || p.Message == "" {
		rc.RespondError("invalid_params", "userId and message are required")
		return
	}

	rc.Client.BindUser(p.UserID)
	final, err := s.runner.StreamCoaching(p.UserID, p.Message, func(evt stream.Event) {
		if evt.Type != stream.EventDelta {
			return
		}
		seq := s.eventSeq.Add(1)
		rc.Client.SendEvent(EventCoachDelta, map[string]any{
			"requestId": rc.Frame.ID,
			"delta":     evt.Delta,
		}, seq)
	})
	if err != nil {
		rc.RespondError(coachErrorCode(err), err.Error())
		return
	}
	rc.Respond(map[string]any{"final": final})
}

func (s *Server) wsCoachSummary(rc *RequestContext) {
	var p userParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}
	if p.UserID == "" {
		rc.RespondError("invalid_params", "userId is required")
		return
	}
	rc.Client.BindUser(p.UserID)
	summary, err := s.runner.CoachingSummary(p.UserID)
	if err != nil {
		rc.RespondError(coachErrorCode(err), err.Error())
		return
	}
	rc.Respond(summary)
}

type coachStyleParams struct {
	UserID string `json:"userId"`
	Style  string `json:"style"`
}

func (s *Server) wsCoachStyle(rc *RequestContext) {
	var p coachStyleParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}
	if p.UserID == "" || p.Style == "" {
		rc.RespondError("invalid_params", "userId and style are required")
		return
	}
	rc.Client.BindUser(p.UserID)
	if err := s.runner.SetCoachingStyle(p.UserID, p.Style); err != nil {
		rc.RespondError(coachErrorCode(err), err.Error())
		return
	}
	rc.Respond(map[string]any{"userId": p.UserID, "style": p.Style})
}

func coachErrorCode(err error) string {
	if errors.Is(err, assistant.ErrNoCoachingBackend) {
		return "unavailable"
	}
	return "coach_error"
}
