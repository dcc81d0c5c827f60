package intent

import "github.com/peakmode/coach/internal/domain"

// rule binds an intent to its keyword set. Rules live in a fixed-order slice,
// not a map: scoring must be reproducible, and the slice index doubles as the
// priority used for final tie-breaking.
type rule struct {
	intent   string
	keywords []string
}

// rules is the closed intent table. Order matters: earlier rules win ties
// that survive the score and matched-count comparisons.
var rules = []rule{
	{domain.IntentTrackHabit, []string{"log", "track", "workout", "habit", "exercise", "completed", "did"}},
	{domain.IntentCheckProgress, []string{"progress", "how", "doing", "streak", "stats"}},
	{domain.IntentScheduleSession, []string{"schedule", "session", "book", "appointment", "coaching"}},
	{domain.IntentSetReminder, []string{"remind", "reminder", "alert", "notify"}},
	{domain.IntentTrackMood, []string{"mood", "feeling", "feel", "happy", "sad", "stressed"}},
	{domain.IntentViewAnalytics, []string{"analytics", "chart", "report", "insights", "trends"}},
	{domain.IntentCreateGoal, []string{"goal", "target", "achieve", "aim"}},
	{domain.IntentAskQuestion, []string{"what", "why", "how", "when", "where", "explain", "help"}},
}

// dateKeywords are substring-matched against the lowercased utterance and
// emitted as datetime slots with a fixed confidence.
var dateKeywords = []string{
	"today", "tomorrow", "tonight", "morning", "afternoon", "evening",
	"next week", "weekend",
}

// moodKeywords are substring-matched and emitted as mood slots.
var moodKeywords = []string{
	"happy", "sad", "stressed", "anxious", "tired", "energized", "calm", "motivated",
}

const (
	dateSlotConfidence = 0.8
	moodSlotConfidence = 0.9
)
