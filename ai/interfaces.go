package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// AnswerGenerator produces a grounded answer to a query, streaming text
// increments as the model emits them.
// Implementations must be thread-safe for concurrent use.
type AnswerGenerator interface {
	// StreamAnswer generates an answer for query grounded in the given
	// context snippets, invoking onChunk once per text increment in
	// production order. If onChunk returns an error, generation stops and
	// that error is returned.
	// An empty context slice is valid; the model answers unassisted.
	StreamAnswer(ctx context.Context, query string, contexts []string, onChunk func(chunk string) error) error
}

// RelatedQuestionGenerator proposes follow-up questions for a query.
// Implementations must be thread-safe for concurrent use.
type RelatedQuestionGenerator interface {
	// GenerateRelated returns follow-up questions a user might ask next.
	// Returns an empty slice if the model proposes none.
	GenerateRelated(ctx context.Context, query string, contexts []string) ([]string, error)
}

// Provider aggregates AI services for convenient initialization and lifecycle
// management. A provider creates and manages Embedder, AnswerGenerator and
// RelatedQuestionGenerator instances, ensuring they share configuration and
// resources appropriately.
type Provider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// AnswerGenerator returns the answer generation service.
	// The returned AnswerGenerator is safe for concurrent use.
	AnswerGenerator() AnswerGenerator

	// RelatedQuestionGenerator returns the follow-up question service.
	// The returned RelatedQuestionGenerator is safe for concurrent use.
	RelatedQuestionGenerator() RelatedQuestionGenerator

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
