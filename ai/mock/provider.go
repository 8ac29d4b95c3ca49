// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package mock

import (
	"github.com/poiesic/searchgate/ai"
)

// MockProvider is a test double for ai.Provider aggregating the mock services.
type MockProvider struct {
	embedder  *MockEmbedder
	generator *MockAnswerGenerator
	related   *MockRelatedQuestionGenerator
}

var _ ai.Provider = (*MockProvider)(nil)

// NewMockProvider creates a provider backed by mock services with default
// deterministic behavior.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		embedder:  NewMockEmbedder(),
		generator: NewMockAnswerGenerator(),
		related:   NewMockRelatedQuestionGenerator(),
	}
}

// Embedder returns the mock embedding service.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// AnswerGenerator returns the mock answer generation service.
func (p *MockProvider) AnswerGenerator() ai.AnswerGenerator {
	return p.generator
}

// RelatedQuestionGenerator returns the mock follow-up question service.
func (p *MockProvider) RelatedQuestionGenerator() ai.RelatedQuestionGenerator {
	return p.related
}

// Close is a no-op for mocks.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder returns the concrete mock for behavior injection and
// assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockAnswerGenerator returns the concrete mock for behavior injection
// and assertions.
func (p *MockProvider) GetMockAnswerGenerator() *MockAnswerGenerator {
	return p.generator
}

// GetMockRelatedQuestionGenerator returns the concrete mock for behavior
// injection and assertions.
func (p *MockProvider) GetMockRelatedQuestionGenerator() *MockRelatedQuestionGenerator {
	return p.related
}
