package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Query represents one sanitized search request.
// It is immutable once constructed and owned exclusively by the worker
// processing it.
type Query struct {
	// Text is the sanitized query text submitted to the backend.
	Text string

	// CorrelationID ties the request to client-side state.
	// Generated server-side if the client did not provide one.
	CorrelationID string

	// WantRelatedQuestions requests follow-up question generation.
	WantRelatedQuestions bool
}

// StagedResult is one staged output produced incrementally by the backend
// for a single query. It is a sealed union with exactly three variants:
// Contexts, AnswerChunk and RelatedQuestions. Consumers switch exhaustively
// over the concrete types.
//
// Within one query's sequence, Contexts (zero or one) precedes all
// AnswerChunk items (zero or more), which precede RelatedQuestions (zero or
// one). Consumers trust and preserve this order; a violation by the backend
// passes through unchanged.
type StagedResult interface {
	stagedResult()
}

// Contexts carries the retrieved context documents for a query.
// The payload is opaque to consumers beyond being JSON-serializable.
type Contexts struct {
	Payload any
}

// AnswerChunk carries one increment of generated answer text.
// Chunks are emitted verbatim in arrival order.
type AnswerChunk struct {
	Text string
}

// RelatedQuestions carries the generated follow-up questions.
// The payload is opaque to consumers beyond being JSON-serializable;
// in practice it is a slice of strings.
type RelatedQuestions struct {
	Payload any
}

func (Contexts) stagedResult()         {}
func (AnswerChunk) stagedResult()      {}
func (RelatedQuestions) stagedResult() {}

// Snippet is one retrieved context document as surfaced to clients inside
// a Contexts payload.
type Snippet struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Document represents one entry in the retrieval corpus.
// It may be enriched with an embedding vector during seeding.
type Document struct {
	Id         ID
	Title      string
	URL        string
	Contents   string
	Vector     []float32 // Embedding vector for semantic search
	InsertedAt time.Time // When the document was inserted into the database
	UpdatedAt  time.Time // When the document was last updated
}

// QueryRecord is the persisted trace of one received query.
type QueryRecord struct {
	Id            ID
	CorrelationID string
	Query         string
	ReceivedAt    time.Time
}

// SearchResult represents a retrieval hit with the full document and
// relevance score.
type SearchResult struct {
	Document *Document
	Score    float32
}
