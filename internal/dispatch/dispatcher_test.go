package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/peakmode/coach/internal/actions"
	"github.com/peakmode/coach/internal/domain"
	"github.com/peakmode/coach/internal/intent"
	"github.com/peakmode/coach/internal/logging"
	"github.com/peakmode/coach/internal/nlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func silentLog() *logging.Logger { return logging.New(nil, "silent") }

func newDispatcher(probe nlp.ConnectivityProbe, online Classifier) *Dispatcher {
	reg := actions.NewRegistry(&nlp.MockAnswerer{}, silentLog())
	return New(probe, online, intent.NewOfflineClassifier(), reg, silentLog())
}

func TestDispatch_EmptyInputIsNoOp(t *testing.T) {
	online := &nlp.MockClassifier{
		ClassifyFunc: func(context.Context, string, domain.ConversationContext) (domain.IntentResult, error) {
			t.Fatal("classifier must not run for empty input")
			return domain.IntentResult{}, nil
		},
	}
	d := newDispatcher(nlp.StaticProbe(true), online)

	for _, in := range []string{"", "   ", "\n\t  "} {
		_, err := d.Dispatch(context.Background(), "u1", in)
		assert.ErrorIs(t, err, ErrEmptyInput)
	}
	// No context recorded, state still idle.
	assert.Empty(t, d.Context("u1").LastIntent)
	assert.Equal(t, TurnIdle, d.State("u1"))
}

func TestDispatch_OfflinePathWhenProbeFails(t *testing.T) {
	d := newDispatcher(nlp.StaticProbe(false), &nlp.MockClassifier{
		ClassifyFunc: func(context.Context, string, domain.ConversationContext) (domain.IntentResult, error) {
			t.Fatal("online classifier must not run while offline")
			return domain.IntentResult{}, nil
		},
	})

	res, err := d.Dispatch(context.Background(), "u1", "log my workout")
	require.NoError(t, err)

	assert.Equal(t, "offline", res.Path)
	assert.Equal(t, domain.IntentTrackHabit, res.Intent.Intent)
	// track_habit without a habit_name slot asks for clarification.
	assert.True(t, res.Action.RequiresInput)
}

func TestDispatch_OnlinePathWhenProbeSucceeds(t *testing.T) {
	online := &nlp.MockClassifier{
		ClassifyFunc: func(_ context.Context, text string, _ domain.ConversationContext) (domain.IntentResult, error) {
			return domain.IntentResult{
				Intent:     domain.IntentTrackHabit,
				Confidence: 0.95,
				RawText:    text,
				Slots:      []domain.Slot{{Type: domain.SlotHabit, Value: "running", Confidence: 0.9}},
			}, nil
		},
	}
	d := newDispatcher(nlp.StaticProbe(true), online)

	res, err := d.Dispatch(context.Background(), "u1", "log my run")
	require.NoError(t, err)

	assert.Equal(t, "online", res.Path)
	assert.True(t, res.Action.Success)
	require.Len(t, res.Action.Cards, 1)
	assert.Equal(t, domain.CardHabitLogged, res.Action.Cards[0].Type)
}

func TestDispatch_OnlineFailureDoesNotFallBack(t *testing.T) {
	calls := 0
	online := &nlp.MockClassifier{
		ClassifyFunc: func(context.Context, string, domain.ConversationContext) (domain.IntentResult, error) {
			calls++
			return domain.IntentResult{}, errors.New("502 bad gateway")
		},
	}
	d := newDispatcher(nlp.StaticProbe(true), online)

	_, err := d.Dispatch(context.Background(), "u1", "log my workout")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, TurnError, d.State("u1"))
	// Context untouched by the failed turn.
	assert.Empty(t, d.Context("u1").LastIntent)
}

func TestDispatch_ContextUpdatedOnEitherPath(t *testing.T) {
	d := newDispatcher(nlp.StaticProbe(false), nil)

	before := time.Now()
	_, err := d.Dispatch(context.Background(), "u1", "log my workout")
	require.NoError(t, err)

	conv := d.Context("u1")
	assert.Equal(t, "u1", conv.UserID)
	assert.Equal(t, domain.IntentTrackHabit, conv.LastIntent)
	assert.False(t, conv.Timestamp.Before(before))
}

func TestDispatch_ContextSentToOnlineClassifier(t *testing.T) {
	var got domain.ConversationContext
	online := &nlp.MockClassifier{
		ClassifyFunc: func(_ context.Context, text string, conv domain.ConversationContext) (domain.IntentResult, error) {
			got = conv
			return domain.IntentResult{Intent: domain.IntentCheckProgress, Confidence: 0.7, RawText: text}, nil
		},
	}
	d := newDispatcher(nlp.StaticProbe(true), online)

	_, err := d.Dispatch(context.Background(), "u1", "how am I doing")
	require.NoError(t, err)
	assert.Empty(t, got.LastIntent) // first turn has no prior intent

	_, err = d.Dispatch(context.Background(), "u1", "and this week?")
	require.NoError(t, err)
	assert.Equal(t, domain.IntentCheckProgress, got.LastIntent)
}

func TestDispatch_SequentialTurnsPerUser(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	online := &nlp.MockClassifier{
		ClassifyFunc: func(_ context.Context, text string, _ domain.ConversationContext) (domain.IntentResult, error) {
			if text == "slow question" {
				once.Do(func() { close(started) })
				<-release
			}
			return domain.IntentResult{Intent: domain.IntentAskQuestion, Confidence: 0.5, RawText: text}, nil
		},
	}
	d := newDispatcher(nlp.StaticProbe(true), online)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := d.Dispatch(context.Background(), "u1", "slow question")
		assert.NoError(t, err)
	}()

	<-started
	_, err := d.Dispatch(context.Background(), "u1", "second message")
	assert.ErrorIs(t, err, ErrTurnInFlight)

	// A different user is not blocked by u1's in-flight turn.
	_, err = d.Dispatch(context.Background(), "u2", "log my workout tomorrow")
	assert.NotErrorIs(t, err, ErrTurnInFlight)

	close(release)
	wg.Wait()
}

func TestBeginRunFinish(t *testing.T) {
	d := newDispatcher(nlp.StaticProbe(false), nil)

	require.NoError(t, d.Begin("u1"))
	assert.ErrorIs(t, d.Begin("u1"), ErrTurnInFlight)

	// Run assumes the caller holds the slot.
	res, err := d.Run(context.Background(), "u1", "log my workout")
	require.NoError(t, err)
	assert.Equal(t, domain.IntentTrackHabit, res.Intent.Intent)

	d.Finish("u1")
	require.NoError(t, d.Begin("u1"))
	d.Finish("u1")
}

func TestDispatch_CancelledContextDropsTurn(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	online := &nlp.MockClassifier{
		ClassifyFunc: func(_ context.Context, text string, _ domain.ConversationContext) (domain.IntentResult, error) {
			cancel() // session closes while the call is in flight
			return domain.IntentResult{Intent: domain.IntentTrackHabit, Confidence: 0.9, RawText: text}, nil
		},
	}
	d := newDispatcher(nlp.StaticProbe(true), online)

	_, err := d.Dispatch(ctx, "u1", "log my workout")
	require.ErrorIs(t, err, context.Canceled)
	// The late completion must not have been applied.
	assert.Empty(t, d.Context("u1").LastIntent)
}

func TestDispatch_NilOnlineAlwaysOffline(t *testing.T) {
	// Probe says online but no online classifier is configured.
	d := newDispatcher(nlp.StaticProbe(true), nil)

	res, err := d.Dispatch(context.Background(), "u1", "log my workout")
	require.NoError(t, err)
	assert.Equal(t, "offline", res.Path)
}

func TestForget(t *testing.T) {
	d := newDispatcher(nlp.StaticProbe(false), nil)

	_, err := d.Dispatch(context.Background(), "u1", "log my workout")
	require.NoError(t, err)
	require.NotEmpty(t, d.Context("u1").LastIntent)

	d.Forget("u1")
	assert.Empty(t, d.Context("u1").LastIntent)
	assert.Equal(t, TurnIdle, d.State("u1"))
}
