package storage

import (
	"context"
	"time"

	"github.com/poiesic/searchgate/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// DocumentRepository provides operations for managing the retrieval corpus.
type DocumentRepository interface {
	Repository

	// AddDocuments adds one or more documents to storage.
	// Uses content-based IDs (IDFromContent of the document contents), so
	// re-adding identical contents overwrites in place.
	// Sets InsertedAt timestamp if not already set.
	// Returns the documents with IDs and timestamps populated.
	AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// GetDocuments retrieves multiple documents by their IDs.
	// Returns only the documents that exist (no error for missing documents).
	GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error)

	// DeleteDocuments removes documents by their IDs.
	// Returns ErrNotFound if any document doesn't exist.
	DeleteDocuments(ctx context.Context, ids ...core.ID) error

	// FindSimilar finds documents similar to the given vector.
	// Returns documents with similarity >= minSimilarity, up to limit results,
	// ordered by similarity score (highest first).
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error)

	// FindDocumentByURL finds a document by its source URL.
	// Returns ErrNotFound if no matching document exists.
	FindDocumentByURL(ctx context.Context, url string) (*core.Document, error)
}

// QueryRepository provides operations for the query log.
type QueryRepository interface {
	Repository

	// RecordQuery persists one received query.
	// Sets the content-based ID (from the correlation id) and the ReceivedAt
	// timestamp if not already set.
	RecordQuery(ctx context.Context, record *core.QueryRecord) (*core.QueryRecord, error)

	// GetQuery retrieves a query record by ID.
	// Returns ErrNotFound if the record doesn't exist.
	GetQuery(ctx context.Context, id core.ID) (*core.QueryRecord, error)

	// GetQueriesByDateRange retrieves query records within a time range.
	// Returns records where start <= ReceivedAt < end, ordered by time.
	GetQueriesByDateRange(ctx context.Context, start, end time.Time) ([]*core.QueryRecord, error)

	// GetRecentQueries retrieves the N most recent query records, most
	// recent first.
	GetRecentQueries(ctx context.Context, limit int) ([]*core.QueryRecord, error)
}
