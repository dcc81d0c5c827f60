package stream

import "strings"

// quickReplyRules map substrings of the final text to suggested replies.
// Matching is ordered so suggestions come out in a stable order.
var quickReplyRules = []struct {
	substr string
	reply  string
}{
	{"goal", "Show my progress"},
	{"habit", "Log a habit"},
	{"session", "Schedule a session"},
	{"remind", "Set a reminder"},
	{"feel", "Track my mood"},
	{"?", "Yes, tell me more"},
}

const maxQuickReplies = 3

// QuickReplies derives reply suggestions from the final assistant text by
// simple substring matching.
func QuickReplies(finalText string) []string {
	lowered := strings.ToLower(finalText)

	var replies []string
	for _, r := range quickReplyRules {
		if len(replies) == maxQuickReplies {
			break
		}
		if strings.Contains(lowered, r.substr) {
			replies = append(replies, r.reply)
		}
	}
	return replies
}
