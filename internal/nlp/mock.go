package nlp

import (
	"context"

	"github.com/peakmode/coach/internal/domain"
)

// MockClassifier is a test double for the online classifier.
type MockClassifier struct {
	ClassifyFunc func(ctx context.Context, text string, conv domain.ConversationContext) (domain.IntentResult, error)
}

func (m *MockClassifier) Name() string { return "mock" }

func (m *MockClassifier) Classify(ctx context.Context, text string, conv domain.ConversationContext) (domain.IntentResult, error) {
	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, text, conv)
	}
	return domain.IntentResult{Intent: domain.IntentAskQuestion, Confidence: 0.5, RawText: text}, nil
}

// MockAnswerer is a test double for the question-answering endpoint.
type MockAnswerer struct {
	AnswerFunc func(ctx context.Context, question, userID string) (string, error)
}

func (m *MockAnswerer) Answer(ctx context.Context, question, userID string) (string, error) {
	if m.AnswerFunc != nil {
		return m.AnswerFunc(ctx, question, userID)
	}
	return "mock answer", nil
}
