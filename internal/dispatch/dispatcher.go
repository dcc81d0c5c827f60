// Package dispatch decides, per user utterance, which classification path to
// take and routes the result to an action handler. One dispatcher serves all
// users; turn state is tracked per user.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/peakmode/coach/internal/actions"
	"github.com/peakmode/coach/internal/domain"
	"github.com/peakmode/coach/internal/logging"
	"github.com/peakmode/coach/internal/nlp"
)

var (
	// ErrEmptyInput marks an empty or whitespace-only utterance. Callers
	// treat it as a no-op: nothing is appended, no classifier runs.
	ErrEmptyInput = errors.New("empty input")

	// ErrTurnInFlight is returned when a user already has a turn being
	// processed. Turns within a session are strictly sequential.
	ErrTurnInFlight = errors.New("turn already in flight")
)

// Classifier is the single asynchronous interface both classification paths
// implement. The offline path completes synchronously behind the same shape.
type Classifier interface {
	Name() string
	Classify(ctx context.Context, text string, conv domain.ConversationContext) (domain.IntentResult, error)
}

// TurnState is the per-turn processing state.
type TurnState string

const (
	TurnIdle                   TurnState = "idle"
	TurnAwaitingClassification TurnState = "awaiting_classification"
	TurnHandlingIntent         TurnState = "handling_intent"
	TurnError                  TurnState = "error"
)

// TurnResult is the outcome of one dispatched turn.
type TurnResult struct {
	Intent domain.IntentResult `json:"intent"`
	Action domain.ActionResult `json:"action"`
	Path   string              `json:"path"` // "online" | "offline"
}

// Dispatcher routes utterances through probe → classifier → handler.
type Dispatcher struct {
	probe    nlp.ConnectivityProbe
	online   Classifier
	offline  Classifier
	registry *actions.Registry
	log      *logging.Logger

	mu       sync.Mutex
	inFlight map[string]bool
	states   map[string]TurnState
	contexts map[string]domain.ConversationContext
}

// New creates a dispatcher. The online classifier may be nil, in which case
// every turn takes the offline path regardless of connectivity.
func New(probe nlp.ConnectivityProbe, online, offline Classifier, registry *actions.Registry, log *logging.Logger) *Dispatcher {
	return &Dispatcher{
		probe:    probe,
		online:   online,
		offline:  offline,
		registry: registry,
		log:      log.Sub("dispatch"),
		inFlight: make(map[string]bool),
		states:   make(map[string]TurnState),
		contexts: make(map[string]domain.ConversationContext),
	}
}

// State returns the current turn state for a user.
func (d *Dispatcher) State(userID string) TurnState {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := d.states[userID]; ok {
		return s
	}
	return TurnIdle
}

// Busy reports whether the user has a turn in flight.
func (d *Dispatcher) Busy(userID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inFlight[userID]
}

// Context returns the conversation context recorded after the user's last
// successful classification.
func (d *Dispatcher) Context(userID string) domain.ConversationContext {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.contexts[userID]
}

// Dispatch processes one turn. Empty input returns ErrEmptyInput without
// side effects. An online classification failure fails the whole turn; there
// is no mid-turn fallback to the offline path. A cancelled context drops the
// turn without recording anything.
func (d *Dispatcher) Dispatch(ctx context.Context, userID, text string) (*TurnResult, error) {
	if err := d.Begin(userID); err != nil {
		return nil, err
	}
	defer d.Finish(userID)

	return d.Run(ctx, userID, text)
}

// Run processes one turn for a caller that already holds the user's turn
// slot via Begin. Callers that persist state before dispatching claim the
// slot first so a racing turn cannot slip in between check and write.
func (d *Dispatcher) Run(ctx context.Context, userID, text string) (*TurnResult, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ErrEmptyInput
	}

	d.setState(userID, TurnAwaitingClassification)

	classifier := d.offline
	path := "offline"
	if d.online != nil && d.probe.Online(ctx) {
		classifier = d.online
		path = "online"
	}

	conv := d.Context(userID)
	conv.UserID = userID

	res, err := classifier.Classify(ctx, trimmed, conv)
	if err != nil {
		d.setState(userID, TurnError)
		d.log.Error().Err(err).Str("path", path).Msg("classification failed")
		return nil, fmt.Errorf("classifying (%s): %w", path, err)
	}

	if ctx.Err() != nil {
		// Session closed while the call was in flight: a late completion
		// must not mutate conversation state.
		d.setState(userID, TurnIdle)
		return nil, ctx.Err()
	}

	// A successful classification updates the context whichever path ran.
	d.setContext(userID, domain.ConversationContext{
		UserID:     userID,
		LastIntent: res.Intent,
		Timestamp:  time.Now(),
	})

	d.setState(userID, TurnHandlingIntent)
	d.log.Debug().
		Str("path", path).
		Str("intent", res.Intent).
		Float64("confidence", res.Confidence).
		Msg("utterance classified")

	action, err := d.registry.Dispatch(ctx, userID, res)
	if err != nil {
		d.setState(userID, TurnError)
		return nil, fmt.Errorf("handling %s: %w", res.Intent, err)
	}

	d.setState(userID, TurnIdle)
	return &TurnResult{Intent: res, Action: action, Path: path}, nil
}

// Begin claims the user's turn slot, failing with ErrTurnInFlight if a turn
// is already being processed.
func (d *Dispatcher) Begin(userID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inFlight[userID] {
		return ErrTurnInFlight
	}
	d.inFlight[userID] = true
	return nil
}

// Finish releases the turn slot. Error states persist until the next turn
// begins; the user must resend, nothing retries.
func (d *Dispatcher) Finish(userID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.inFlight, userID)
	if d.states[userID] != TurnError {
		d.states[userID] = TurnIdle
	}
}

func (d *Dispatcher) setState(userID string, s TurnState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.states[userID] = s
}

func (d *Dispatcher) setContext(userID string, conv domain.ConversationContext) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.contexts[userID] = conv
}

// Forget clears the conversation context and turn state for a user. Called
// when their history is cleared or their session closes.
func (d *Dispatcher) Forget(userID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.contexts, userID)
	delete(d.states, userID)
}
