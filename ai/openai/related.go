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


package openai

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/poiesic/searchgate/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// RelatedQuestionGenerator implements ai.RelatedQuestionGenerator using
// OpenAI-compatible chat APIs in JSON mode.
type RelatedQuestionGenerator struct {
	client       llms.Model
	maxQuestions int
	logger       *slog.Logger
}

// relatedAnalysis is the wrapper structure for the LLM's JSON response.
type relatedAnalysis struct {
	RelatedQuestions []string `json:"related_questions"`
}

// newRelatedQuestionGenerator is an internal constructor that returns the
// concrete type. Used by Provider to manage the instance.
func newRelatedQuestionGenerator(config *ai.Config) (*RelatedQuestionGenerator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't
	// require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken("none"),
		openai.WithModel(config.ChatModel),
	)
	if err != nil {
		return nil, err
	}

	return &RelatedQuestionGenerator{
		client:       client,
		maxQuestions: config.MaxRelatedQuestions,
		logger:       slog.Default().With("component", "openai-related"),
	}, nil
}

// NewRelatedQuestionGenerator creates a new related-question generator using
// the provided configuration.
//
// Returns ai.RelatedQuestionGenerator interface to enforce abstraction.
func NewRelatedQuestionGenerator(config *ai.Config) (ai.RelatedQuestionGenerator, error) {
	return newRelatedQuestionGenerator(config)
}

// GenerateRelated proposes follow-up questions for the query.
// The model is prompted for JSON; malformed responses are retried up to
// 3 times with repair in between.
func (g *RelatedQuestionGenerator) GenerateRelated(ctx context.Context, query string, contexts []string) ([]string, error) {
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(buildRelatedPrompt(contexts, g.maxQuestions)),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(query),
			},
		},
	}

	var result relatedAnalysis
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := g.client.GenerateContent(ctx, content, llms.WithTemperature(0.9), llms.WithJSONMode())
		if err != nil {
			g.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, err
		}

		if len(response.Choices) < 1 {
			g.logger.Debug("no choices returned from model")
			return []string{}, nil
		}

		responseText := stripCodeFences(response.Choices[0].Content)
		responseText = repairJSON(responseText)

		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			g.logger.Warn("error parsing related-questions response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		lastErr = nil
		break
	}

	if lastErr != nil {
		g.logger.Error("failed to parse related-questions response after retries", "err", lastErr)
		return nil, lastErr
	}

	questions := make([]string, 0, len(result.RelatedQuestions))
	for _, q := range result.RelatedQuestions {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		questions = append(questions, q)
		if len(questions) == g.maxQuestions {
			break
		}
	}

	g.logger.Debug("generated related questions", "count", len(questions))
	return questions, nil
}

// stripCodeFences removes markdown code fences the model sometimes wraps
// around JSON output.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
