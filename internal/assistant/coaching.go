package assistant

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/peakmode/coach/internal/dispatch"
	"github.com/peakmode/coach/internal/domain"
	"github.com/peakmode/coach/internal/stream"
)

// ErrNoCoachingBackend is returned when streaming endpoints are not
// configured.
var ErrNoCoachingBackend = errors.New("no coaching backend configured")

// StreamCallback receives events while a coaching response streams in.
type StreamCallback func(evt stream.Event)

// StartCoaching opens a remote coaching session for the user and persists
// its id so a later turn can resume it.
func (r *Runner) StartCoaching(userID, style, goalID string) (string, error) {
	if r.coach == nil {
		return "", ErrNoCoachingBackend
	}
	ctx, err := r.sessionContext(userID)
	if err != nil {
		return "", err
	}

	id, err := r.coach.CreateSession(ctx, userID, style, goalID)
	if err != nil {
		return "", fmt.Errorf("creating coaching session: %w", err)
	}
	if err := r.history.SetActiveSession(userID, id); err != nil {
		r.log.Error().Err(err).Str("userId", userID).Msg("failed to persist active session")
	}

	r.log.Info().Str("userId", userID).Str("sessionId", id).Str("style", style).Msg("coaching session started")
	return id, nil
}

// StreamCoaching sends a message into the user's active coaching session and
// streams the response through cb. The final assembled message is persisted
// to history; a stream that ended incomplete is persisted as-is. Turns are
// strictly sequential per user: a chat turn in flight rejects the message.
func (r *Runner) StreamCoaching(userID, message string, cb StreamCallback) (*stream.FinalMessage, error) {
	if r.coach == nil {
		return nil, ErrNoCoachingBackend
	}
	if r.dispatcher.Busy(userID) {
		return nil, dispatch.ErrTurnInFlight
	}
	ctx, err := r.sessionContext(userID)
	if err != nil {
		return nil, err
	}

	sessionID, ok := r.history.ActiveSession(userID)
	if !ok {
		return nil, fmt.Errorf("no active coaching session for user %s", userID)
	}

	userMsg := domain.NewUserMessage(message)
	if err := r.history.Append(userID, userMsg); err != nil {
		return nil, fmt.Errorf("persisting user message: %w", err)
	}

	events, err := r.coach.Stream(ctx, sessionID, message)
	if err != nil {
		if uerr := r.history.UpdateStatus(userMsg.ID, domain.StatusFailed); uerr != nil {
			r.log.Error().Err(uerr).Str("msgId", userMsg.ID).Msg("failed to record message failure")
		}
		return nil, fmt.Errorf("opening stream: %w", err)
	}

	var final *stream.FinalMessage
	for evt := range events {
		if cb != nil {
			cb(evt)
		}
		switch evt.Type {
		case stream.EventDone:
			final = evt.Final
		case stream.EventError:
			if uerr := r.history.UpdateStatus(userMsg.ID, domain.StatusFailed); uerr != nil {
				r.log.Error().Err(uerr).Str("msgId", userMsg.ID).Msg("failed to record message failure")
			}
			return nil, fmt.Errorf("stream failed: %s", evt.Error)
		}
	}
	if final == nil {
		return nil, fmt.Errorf("stream ended without completion")
	}

	if err := r.history.UpdateStatus(userMsg.ID, domain.StatusDelivered); err != nil {
		r.log.Error().Err(err).Str("msgId", userMsg.ID).Msg("failed to update message status")
	}

	assistantMsg := domain.Message{
		ID:        uuid.New().String(),
		Role:      domain.RoleAssistant,
		Text:      final.Text,
		Timestamp: time.Now(),
		Status:    domain.StatusDelivered,
	}
	if err := r.history.Append(userID, assistantMsg); err != nil {
		return nil, fmt.Errorf("persisting assistant message: %w", err)
	}

	r.log.Info().
		Str("userId", userID).
		Str("sessionId", sessionID).
		Bool("incomplete", final.Incomplete).
		Int("tokens", final.Tokens).
		Msg("coaching response streamed")
	return final, nil
}

// CoachingSummary fetches the recap of the user's active coaching session.
func (r *Runner) CoachingSummary(userID string) (*stream.SessionSummary, error) {
	if r.coach == nil {
		return nil, ErrNoCoachingBackend
	}
	ctx, err := r.sessionContext(userID)
	if err != nil {
		return nil, err
	}
	sessionID, ok := r.history.ActiveSession(userID)
	if !ok {
		return nil, fmt.Errorf("no active coaching session for user %s", userID)
	}
	return r.coach.Summary(ctx, sessionID)
}

// SetCoachingStyle updates the style of the user's active coaching session.
func (r *Runner) SetCoachingStyle(userID, style string) error {
	if r.coach == nil {
		return ErrNoCoachingBackend
	}
	ctx, err := r.sessionContext(userID)
	if err != nil {
		return err
	}
	sessionID, ok := r.history.ActiveSession(userID)
	if !ok {
		return fmt.Errorf("no active coaching session for user %s", userID)
	}
	return r.coach.SetStyle(ctx, sessionID, style)
}
