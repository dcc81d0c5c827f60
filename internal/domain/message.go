// Package domain defines the core types shared across the coach service.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Status tracks a message through its delivery lifecycle.
type Status string

const (
	StatusSending   Status = "sending"
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
)

// CanTransition reports whether a message status may move from s to next.
// Transitions only move forward: sending → sent → delivered. A message can
// fail from sending or sent; delivered and failed are terminal.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusSending:
		return next == StatusSent || next == StatusDelivered || next == StatusFailed
	case StatusSent:
		return next == StatusDelivered || next == StatusFailed
	default:
		return false
	}
}

// Message is a single turn entry in a conversation.
// Immutable after creation except for Status.
type Message struct {
	ID         string       `json:"id"`
	Role       Role         `json:"role"`
	Text       string       `json:"text"`
	Timestamp  time.Time    `json:"timestamp"`
	Intent     string       `json:"intent,omitempty"`
	Confidence *float64     `json:"confidence,omitempty"`
	Cards      []ActionCard `json:"cards,omitempty"`
	Status     Status       `json:"status"`
}

// NewUserMessage creates a user message in the sending state.
func NewUserMessage(text string) Message {
	return Message{
		ID:        uuid.New().String(),
		Role:      RoleUser,
		Text:      text,
		Timestamp: time.Now(),
		Status:    StatusSending,
	}
}

// NewAssistantMessage creates an assistant message carrying the intent
// classification that produced it.
func NewAssistantMessage(text string, intent string, confidence float64, cards []ActionCard) Message {
	c := confidence
	return Message{
		ID:         uuid.New().String(),
		Role:       RoleAssistant,
		Text:       text,
		Timestamp:  time.Now(),
		Intent:     intent,
		Confidence: &c,
		Cards:      cards,
		Status:     StatusDelivered,
	}
}

// Advance moves the message status forward. Invalid transitions are ignored
// so a stale completion can never walk a message backwards.
func (m *Message) Advance(next Status) bool {
	if !m.Status.CanTransition(next) {
		return false
	}
	m.Status = next
	return true
}
