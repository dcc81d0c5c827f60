package domain

// ActionCard types attached to successful handler outcomes.
const (
	CardHabitLogged      = "habit_logged"
	CardReminderSet      = "reminder_set"
	CardMoodLogged       = "mood_logged"
	CardSessionScheduled = "session_scheduled"
	CardGoalCreated      = "goal_created"
	CardProgress         = "progress"
	CardAnalytics        = "analytics"
)

// ActionCard is a structured, typed summary of an outcome shown alongside
// a chat message. Icon and Color are symbolic hints for the client.
type ActionCard struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Icon     string `json:"icon,omitempty"`
	Color    string `json:"color,omitempty"`
	Value    string `json:"value,omitempty"`
}

// ActionResult is what a handler produces for one turn. It is ephemeral:
// consumed immediately to build the assistant message, never persisted.
type ActionResult struct {
	Message       string       `json:"message"`
	Success       bool         `json:"success"`
	Cards         []ActionCard `json:"cards,omitempty"`
	RequiresInput bool         `json:"requiresInput"`
}
