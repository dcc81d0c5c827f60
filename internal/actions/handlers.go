package actions

import (
	"context"
	"fmt"

	"github.com/peakmode/coach/internal/domain"
)

// clarify builds the conversational "missing slot" result. Not an error:
// the user answers in a later turn, the dispatcher never retries.
func clarify(question string) domain.ActionResult {
	return domain.ActionResult{
		Message:       question,
		Success:       false,
		RequiresInput: true,
	}
}

type trackHabitHandler struct{}

func (h *trackHabitHandler) Intent() string { return domain.IntentTrackHabit }

func (h *trackHabitHandler) Handle(_ context.Context, _ string, res domain.IntentResult) (domain.ActionResult, error) {
	habit, ok := res.Slot(domain.SlotHabit)
	if !ok {
		return clarify("Which habit would you like to log?"), nil
	}
	return domain.ActionResult{
		Message: fmt.Sprintf("Got it — I've logged %q for you. Keep it up!", habit.Value),
		Success: true,
		Cards: []domain.ActionCard{{
			Type:     domain.CardHabitLogged,
			Title:    "Habit logged",
			Subtitle: habit.Value,
			Icon:     "check_circle",
			Color:    "green",
		}},
	}, nil
}

type checkProgressHandler struct{}

func (h *checkProgressHandler) Intent() string { return domain.IntentCheckProgress }

func (h *checkProgressHandler) Handle(_ context.Context, _ string, res domain.IntentResult) (domain.ActionResult, error) {
	return domain.ActionResult{
		Message: "You're on a roll — your habits are trending up this week. Want the full breakdown?",
		Success: true,
		Cards: []domain.ActionCard{{
			Type:  domain.CardProgress,
			Title: "Weekly progress",
			Icon:  "trending_up",
			Color: "blue",
		}},
	}, nil
}

type scheduleSessionHandler struct{}

func (h *scheduleSessionHandler) Intent() string { return domain.IntentScheduleSession }

func (h *scheduleSessionHandler) Handle(_ context.Context, _ string, res domain.IntentResult) (domain.ActionResult, error) {
	when, ok := res.Slot(domain.SlotDateTime)
	if !ok {
		return clarify("When would you like your coaching session?"), nil
	}
	return domain.ActionResult{
		Message: fmt.Sprintf("Your coaching session is set for %s.", when.Value),
		Success: true,
		Cards: []domain.ActionCard{{
			Type:     domain.CardSessionScheduled,
			Title:    "Session scheduled",
			Subtitle: when.Value,
			Icon:     "event",
			Color:    "purple",
			Value:    when.Value,
		}},
	}, nil
}

type setReminderHandler struct{}

func (h *setReminderHandler) Intent() string { return domain.IntentSetReminder }

func (h *setReminderHandler) Handle(_ context.Context, _ string, res domain.IntentResult) (domain.ActionResult, error) {
	when, ok := res.Slot(domain.SlotDateTime)
	if !ok {
		return clarify("When should I remind you?"), nil
	}
	return domain.ActionResult{
		Message: fmt.Sprintf("Reminder set for %s.", when.Value),
		Success: true,
		Cards: []domain.ActionCard{{
			Type:     domain.CardReminderSet,
			Title:    "Reminder set",
			Subtitle: when.Value,
			Icon:     "alarm",
			Color:    "orange",
			Value:    when.Value,
		}},
	}, nil
}

type trackMoodHandler struct{}

func (h *trackMoodHandler) Intent() string { return domain.IntentTrackMood }

func (h *trackMoodHandler) Handle(_ context.Context, _ string, res domain.IntentResult) (domain.ActionResult, error) {
	mood, ok := res.Slot(domain.SlotMood)
	if !ok {
		return clarify("How are you feeling right now?"), nil
	}
	return domain.ActionResult{
		Message: fmt.Sprintf("Thanks for sharing — I've recorded that you're feeling %s.", mood.Value),
		Success: true,
		Cards: []domain.ActionCard{{
			Type:     domain.CardMoodLogged,
			Title:    "Mood logged",
			Subtitle: mood.Value,
			Icon:     "mood",
			Color:    "teal",
			Value:    mood.Value,
		}},
	}, nil
}

type viewAnalyticsHandler struct{}

func (h *viewAnalyticsHandler) Intent() string { return domain.IntentViewAnalytics }

func (h *viewAnalyticsHandler) Handle(_ context.Context, _ string, _ domain.IntentResult) (domain.ActionResult, error) {
	return domain.ActionResult{
		Message: "Here's a snapshot of your recent activity.",
		Success: true,
		Cards: []domain.ActionCard{{
			Type:  domain.CardAnalytics,
			Title: "Your analytics",
			Icon:  "bar_chart",
			Color: "indigo",
		}},
	}, nil
}

type createGoalHandler struct{}

func (h *createGoalHandler) Intent() string { return domain.IntentCreateGoal }

func (h *createGoalHandler) Handle(_ context.Context, _ string, res domain.IntentResult) (domain.ActionResult, error) {
	return domain.ActionResult{
		Message: "Love the ambition. I've started a new goal for you — add details whenever you're ready.",
		Success: true,
		Cards: []domain.ActionCard{{
			Type:  domain.CardGoalCreated,
			Title: "Goal created",
			Icon:  "flag",
			Color: "red",
		}},
	}, nil
}

// askQuestionHandler is also the fallback bucket: unrecognized free-form
// utterances are routed here and sent to the question-answering endpoint.
type askQuestionHandler struct {
	answerer Answerer
}

func (h *askQuestionHandler) Intent() string { return domain.IntentAskQuestion }

func (h *askQuestionHandler) Handle(ctx context.Context, userID string, res domain.IntentResult) (domain.ActionResult, error) {
	if h.answerer == nil {
		return domain.ActionResult{
			Message: "I'm not sure about that one. Try asking me about habits, goals, or your progress.",
			Success: false,
		}, nil
	}

	answer, err := h.answerer.Answer(ctx, res.RawText, userID)
	if err != nil {
		return domain.ActionResult{}, fmt.Errorf("answering question: %w", err)
	}
	return domain.ActionResult{Message: answer, Success: true}, nil
}
