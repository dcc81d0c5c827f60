// Package assistant orchestrates a full conversation turn: persistence,
// classification dispatch, and the optional remote coaching stream.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/peakmode/coach/internal/dispatch"
	"github.com/peakmode/coach/internal/domain"
	"github.com/peakmode/coach/internal/logging"
	"github.com/peakmode/coach/internal/store"
	"github.com/peakmode/coach/internal/stream"
)

// DefaultWelcome seeds an empty or freshly cleared conversation.
const DefaultWelcome = "Hi! I'm your coach. I can track habits, check progress, schedule sessions, set reminders, log your mood, and answer questions. What's on your mind?"

// ErrSessionClosed is returned when a turn arrives for a user whose session
// was closed.
var ErrSessionClosed = errors.New("session closed")

// TurnOutcome is everything produced by one successful turn.
type TurnOutcome struct {
	User      domain.Message      `json:"user"`
	Assistant domain.Message      `json:"assistant"`
	Result    dispatch.TurnResult `json:"result"`
}

// Runner processes turns for all users. Each open session owns a context;
// closing the session cancels it so in-flight work can never mutate state
// afterwards.
type Runner struct {
	dispatcher *dispatch.Dispatcher
	history    *store.HistoryStore
	coach      *stream.Client // nil when no streaming backend is configured
	welcome    string
	log        *logging.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	ctx    context.Context
	cancel context.CancelFunc
	opened time.Time
}

// NewRunner creates the assistant runner. coach may be nil.
func NewRunner(dispatcher *dispatch.Dispatcher, history *store.HistoryStore, coach *stream.Client, welcome string, log *logging.Logger) *Runner {
	if welcome == "" {
		welcome = DefaultWelcome
	}
	return &Runner{
		dispatcher: dispatcher,
		history:    history,
		coach:      coach,
		welcome:    welcome,
		log:        log.Sub("assistant"),
		sessions:   make(map[string]*session),
	}
}

// Open starts (or resumes) a session for the user and returns their history.
// An empty history is seeded with a single welcome message.
func (r *Runner) Open(userID string) []domain.Message {
	r.mu.Lock()
	if _, ok := r.sessions[userID]; !ok {
		ctx, cancel := context.WithCancel(context.Background())
		r.sessions[userID] = &session{ctx: ctx, cancel: cancel, opened: time.Now()}
	}
	r.mu.Unlock()

	msgs := r.history.History(userID)
	if len(msgs) == 0 {
		msgs = []domain.Message{r.seedWelcome(userID)}
	}

	r.log.WithUser(userID).Info().Int("historyLen", len(msgs)).Msg("session opened")
	return msgs
}

// Send processes one user utterance. Empty or whitespace-only input is a
// silent no-op: nothing is appended and no classifier runs. On a failed turn
// the persisted user message is marked failed and the error returned; the
// user must resend, nothing retries.
func (r *Runner) Send(userID, text string) (*TurnOutcome, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	ctx, err := r.sessionContext(userID)
	if err != nil {
		return nil, err
	}

	// Mirrors the disabled send control: while a turn is in flight nothing
	// new is accepted or persisted. The slot is claimed before the history
	// append so a racing send cannot leave a phantom message behind.
	if err := r.dispatcher.Begin(userID); err != nil {
		return nil, err
	}
	defer r.dispatcher.Finish(userID)

	userMsg := domain.NewUserMessage(strings.TrimSpace(text))
	if err := r.history.Append(userID, userMsg); err != nil {
		return nil, fmt.Errorf("persisting user message: %w", err)
	}

	result, err := r.dispatcher.Run(ctx, userID, text)
	if err != nil {
		if errors.Is(err, dispatch.ErrEmptyInput) {
			return nil, nil
		}
		userMsg.Advance(domain.StatusFailed)
		if uerr := r.history.UpdateStatus(userMsg.ID, domain.StatusFailed); uerr != nil {
			r.log.Error().Err(uerr).Str("msgId", userMsg.ID).Msg("failed to record message failure")
		}
		return nil, err
	}

	if ctx.Err() != nil {
		// Session closed while the turn was in flight; drop the completion.
		return nil, ErrSessionClosed
	}

	userMsg.Advance(domain.StatusSent)
	userMsg.Advance(domain.StatusDelivered)
	if err := r.history.UpdateStatus(userMsg.ID, domain.StatusDelivered); err != nil {
		r.log.Error().Err(err).Str("msgId", userMsg.ID).Msg("failed to update message status")
	}

	assistantMsg := domain.NewAssistantMessage(
		result.Action.Message,
		result.Intent.Intent,
		result.Intent.Confidence,
		result.Action.Cards,
	)
	if err := r.history.Append(userID, assistantMsg); err != nil {
		return nil, fmt.Errorf("persisting assistant message: %w", err)
	}

	r.log.WithUser(userID).Info().
		Str("intent", result.Intent.Intent).
		Str("path", result.Path).
		Bool("requiresInput", result.Action.RequiresInput).
		Msg("turn completed")

	return &TurnOutcome{User: userMsg, Assistant: assistantMsg, Result: *result}, nil
}

// History returns the user's stored conversation.
func (r *Runner) History(userID string) []domain.Message {
	return r.history.History(userID)
}

// Clear wipes the user's history and conversation context, then reseeds a
// single welcome message.
func (r *Runner) Clear(userID string) (domain.Message, error) {
	removed := r.history.Count(userID)
	if err := r.history.Clear(userID); err != nil {
		return domain.Message{}, err
	}
	r.dispatcher.Forget(userID)
	msg := r.seedWelcome(userID)
	r.log.WithUser(userID).Info().Int("removed", removed).Msg("history cleared")
	return msg, nil
}

// Close ends the user's session: cancels in-flight work and drops the
// conversation context. History stays persisted for the next session.
func (r *Runner) Close(userID string) {
	r.mu.Lock()
	if s, ok := r.sessions[userID]; ok {
		s.cancel()
		delete(r.sessions, userID)
	}
	r.mu.Unlock()
	r.dispatcher.Forget(userID)
	r.log.WithUser(userID).Info().Msg("session closed")
}

// Shutdown ends every open session. Used on process exit.
func (r *Runner) Shutdown() {
	r.mu.Lock()
	for userID, s := range r.sessions {
		s.cancel()
		delete(r.sessions, userID)
		r.dispatcher.Forget(userID)
	}
	r.mu.Unlock()
	r.log.Info().Msg("all sessions closed")
}

func (r *Runner) sessionContext(userID string) (context.Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[userID]
	if !ok {
		return nil, ErrSessionClosed
	}
	return s.ctx, nil
}

func (r *Runner) seedWelcome(userID string) domain.Message {
	msg := domain.Message{
		ID:        uuid.New().String(),
		Role:      domain.RoleAssistant,
		Text:      r.welcome,
		Timestamp: time.Now(),
		Status:    domain.StatusDelivered,
	}
	if err := r.history.Append(userID, msg); err != nil {
		r.log.Error().Err(err).Str("userId", userID).Msg("failed to seed welcome message")
	}
	return msg
}
