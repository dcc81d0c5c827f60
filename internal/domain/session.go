package domain

import "time"

// ConversationContext biases the next classification call. One per active
// session, overwritten after every successful turn. Best-effort only; it is
// never authoritative memory.
type ConversationContext struct {
	UserID     string    `json:"userId"`
	LastIntent string    `json:"lastIntent,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Session groups the ordered message history for one user conversation.
// Messages are append-only in insertion order; no reordering, no dedup.
type Session struct {
	UserID   string              `json:"userId"`
	Messages []Message           `json:"messages,omitempty"`
	Context  ConversationContext `json:"context"`
	OpenedAt time.Time           `json:"openedAt"`
}
