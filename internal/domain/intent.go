package domain

// Intent names form a fixed, closed set. There is no dynamic registration;
// unrecognized utterances land in IntentAskQuestion.
const (
	IntentTrackHabit      = "track_habit"
	IntentCheckProgress   = "check_progress"
	IntentScheduleSession = "schedule_session"
	IntentSetReminder     = "set_reminder"
	IntentTrackMood       = "track_mood"
	IntentViewAnalytics   = "view_analytics"
	IntentCreateGoal      = "create_goal"
	IntentAskQuestion     = "ask_question"
)

// Intents lists every known intent in priority order.
var Intents = []string{
	IntentTrackHabit,
	IntentCheckProgress,
	IntentScheduleSession,
	IntentSetReminder,
	IntentTrackMood,
	IntentViewAnalytics,
	IntentCreateGoal,
	IntentAskQuestion,
}

// KnownIntent reports whether name is in the fixed intent set.
func KnownIntent(name string) bool {
	for _, in := range Intents {
		if in == name {
			return true
		}
	}
	return false
}

// Slot types extracted from utterances.
const (
	SlotDateTime = "datetime"
	SlotMood     = "mood"
	SlotHabit    = "habit_name"
)

// Slot is a named piece of information supporting an intent.
type Slot struct {
	Type       string  `json:"type"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// IntentResult is the outcome of classifying one utterance.
type IntentResult struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	RawText    string  `json:"rawText"`
	Slots      []Slot  `json:"slots,omitempty"`
}

// Slot returns the first slot of the given type, if present.
func (r IntentResult) Slot(slotType string) (Slot, bool) {
	for _, s := range r.Slots {
		if s.Type == slotType {
			return s, true
		}
	}
	return Slot{}, false
}
