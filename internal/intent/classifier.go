// Package intent implements the local keyword classifier used when the
// coaching backend is unreachable. It has no network dependency and is a
// pure function of its input.
package intent

import (
	"context"
	"strings"

	"github.com/peakmode/coach/internal/domain"
)

// OfflineClassifier scores utterances against a fixed keyword table.
type OfflineClassifier struct{}

// NewOfflineClassifier creates the local fallback classifier.
func NewOfflineClassifier() *OfflineClassifier {
	return &OfflineClassifier{}
}

// Name identifies the classification path.
func (c *OfflineClassifier) Name() string { return "offline" }

// Classify scores the utterance against every rule and returns the winner.
//
// Per-rule score is matched-keyword-count / keyword-count. The winner is the
// rule with the highest score; on equal score the rule with more matched
// keywords wins; on a further tie the rule earlier in the table wins. When
// nothing matches, the result is ask_question with confidence 0.
//
// The context parameter is accepted for interface symmetry with the online
// classifier; classification completes synchronously and never blocks.
// ConversationContext is ignored: local scoring is context-free.
func (c *OfflineClassifier) Classify(ctx context.Context, text string, _ domain.ConversationContext) (domain.IntentResult, error) {
	lowered := strings.ToLower(text)
	tokens := tokenSet(lowered)

	best := domain.IntentResult{Intent: domain.IntentAskQuestion, Confidence: 0, RawText: text}
	bestMatched := 0

	for _, r := range rules {
		matched := 0
		for _, kw := range r.keywords {
			if tokens[kw] {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		score := float64(matched) / float64(len(r.keywords))
		if score > best.Confidence || (score == best.Confidence && matched > bestMatched) {
			best.Intent = r.intent
			best.Confidence = score
			bestMatched = matched
		}
	}

	best.Slots = extractSlots(lowered)
	return best, nil
}

// tokenSet splits lowercased text on whitespace into a membership set so
// keywords only match whole tokens, not substrings.
func tokenSet(lowered string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(lowered) {
		set[strings.Trim(tok, ".,!?;:'\"")] = true
	}
	return set
}

// extractSlots runs the fixed date and mood keyword lists against the
// lowercased text. Extraction is independent of intent scoring; every
// matching keyword emits its own slot.
func extractSlots(lowered string) []domain.Slot {
	var slots []domain.Slot
	for _, kw := range dateKeywords {
		if strings.Contains(lowered, kw) {
			slots = append(slots, domain.Slot{Type: domain.SlotDateTime, Value: kw, Confidence: dateSlotConfidence})
		}
	}
	for _, kw := range moodKeywords {
		if strings.Contains(lowered, kw) {
			slots = append(slots, domain.Slot{Type: domain.SlotMood, Value: kw, Confidence: moodSlotConfidence})
		}
	}
	return slots
}
