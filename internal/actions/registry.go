// Package actions maps classified intents to their handlers. The intent set
// is closed: handlers are wired once at construction and there is no dynamic
// registration.
package actions

import (
	"context"
	"strings"

	"github.com/peakmode/coach/internal/domain"
	"github.com/peakmode/coach/internal/logging"
)

// Handler turns one IntentResult into an ActionResult. Handlers are pure
// apart from optional network calls (question answering); they never touch
// session state.
type Handler interface {
	// Intent returns the intent name this handler serves.
	Intent() string

	// Handle produces the response for one turn.
	Handle(ctx context.Context, userID string, res domain.IntentResult) (domain.ActionResult, error)
}

// Answerer is the slice of the NLP client the ask_question handler needs.
type Answerer interface {
	Answer(ctx context.Context, question, userID string) (string, error)
}

// Registry dispatches IntentResults to handlers.
type Registry struct {
	handlers map[string]Handler
	log      *logging.Logger
}

// NewRegistry builds the registry with the full fixed handler set.
func NewRegistry(answerer Answerer, log *logging.Logger) *Registry {
	r := &Registry{
		handlers: make(map[string]Handler),
		log:      log.Sub("actions"),
	}
	for _, h := range []Handler{
		&trackHabitHandler{},
		&checkProgressHandler{},
		&scheduleSessionHandler{},
		&setReminderHandler{},
		&trackMoodHandler{},
		&viewAnalyticsHandler{},
		&createGoalHandler{},
		&askQuestionHandler{answerer: answerer},
	} {
		r.handlers[h.Intent()] = h
	}
	return r
}

// Dispatch routes the result to its handler. Unknown intents fall through to
// the default capabilities response with Success false.
func (r *Registry) Dispatch(ctx context.Context, userID string, res domain.IntentResult) (domain.ActionResult, error) {
	h, ok := r.handlers[res.Intent]
	if !ok {
		r.log.Warn().Str("intent", res.Intent).Msg("no handler for intent")
		return defaultResult(), nil
	}

	out, err := h.Handle(ctx, userID, res)
	if err != nil {
		return domain.ActionResult{}, err
	}

	r.log.Debug().
		Str("intent", res.Intent).
		Bool("success", out.Success).
		Bool("requiresInput", out.RequiresInput).
		Int("cards", len(out.Cards)).
		Msg("intent handled")
	return out, nil
}

// defaultResult is returned for any intent outside the fixed set.
func defaultResult() domain.ActionResult {
	caps := []string{
		"tracking habits", "checking progress", "scheduling sessions",
		"setting reminders", "tracking your mood", "viewing analytics",
		"creating goals", "answering questions",
	}
	return domain.ActionResult{
		Message: "I can help with " + strings.Join(caps, ", ") + ". What would you like to do?",
		Success: false,
	}
}
