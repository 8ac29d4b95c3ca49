package mock

import (
	"context"
	"fmt"
)

// MockAnswerGenerator is a test double for ai.AnswerGenerator.
// It allows custom behavior injection via function fields.
type MockAnswerGenerator struct {
	// StreamAnswerFunc is called by StreamAnswer if set.
	// If nil, streams a deterministic two-chunk answer.
	StreamAnswerFunc func(ctx context.Context, query string, contexts []string, onChunk func(chunk string) error) error

	callCount int
}

// NewMockAnswerGenerator creates a mock answer generator with default behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockAnswerGenerator() *MockAnswerGenerator {
	return &MockAnswerGenerator{}
}

// StreamAnswer streams a deterministic answer derived from the query.
func (m *MockAnswerGenerator) StreamAnswer(ctx context.Context, query string, contexts []string, onChunk func(chunk string) error) error {
	m.callCount++

	if m.StreamAnswerFunc != nil {
		return m.StreamAnswerFunc(ctx, query, contexts, onChunk)
	}

	if err := onChunk(fmt.Sprintf("Answer to %q ", query)); err != nil {
		return err
	}
	return onChunk(fmt.Sprintf("grounded in %d contexts.", len(contexts)))
}

// CallCount returns the number of times StreamAnswer was called.
func (m *MockAnswerGenerator) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockAnswerGenerator) Reset() {
	m.callCount = 0
	m.StreamAnswerFunc = nil
}

// MockRelatedQuestionGenerator is a test double for ai.RelatedQuestionGenerator.
// It allows custom behavior injection via function fields.
type MockRelatedQuestionGenerator struct {
	// GenerateRelatedFunc is called by GenerateRelated if set.
	// If nil, returns a deterministic pair of questions.
	GenerateRelatedFunc func(ctx context.Context, query string, contexts []string) ([]string, error)

	callCount int
}

// NewMockRelatedQuestionGenerator creates a mock related-question generator
// with default behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockRelatedQuestionGenerator() *MockRelatedQuestionGenerator {
	return &MockRelatedQuestionGenerator{}
}

// GenerateRelated returns deterministic follow-up questions for the query.
func (m *MockRelatedQuestionGenerator) GenerateRelated(ctx context.Context, query string, contexts []string) ([]string, error) {
	m.callCount++

	if m.GenerateRelatedFunc != nil {
		return m.GenerateRelatedFunc(ctx, query, contexts)
	}

	return []string{
		fmt.Sprintf("What else relates to %q?", query),
		fmt.Sprintf("Why does %q matter?", query),
	}, nil
}

// CallCount returns the number of times GenerateRelated was called.
func (m *MockRelatedQuestionGenerator) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockRelatedQuestionGenerator) Reset() {
	m.callCount = 0
	m.GenerateRelatedFunc = nil
}
