package backend

import (
	"context"
	"iter"

	"github.com/poiesic/searchgate/core"
)

// Backend is the retrieval-and-generation seam the gateway dispatches to.
//
// Search returns a lazily produced, ordered sequence of staged results for
// one query. The sequence is single-use and must be consumed left to right;
// production happens as the consumer pulls, so early stages stream out while
// later ones are still being computed. A non-nil error ends the sequence;
// nothing follows it.
//
// Implementations must be thread-safe: one Backend instance serves all
// in-flight queries.
type Backend interface {
	Search(ctx context.Context, query string, generateRelated bool) iter.Seq2[core.StagedResult, error]
}

// Func adapts a plain function to the Backend interface.
type Func func(ctx context.Context, query string, generateRelated bool) iter.Seq2[core.StagedResult, error]

// Search implements Backend.
func (f Func) Search(ctx context.Context, query string, generateRelated bool) iter.Seq2[core.StagedResult, error] {
	return f(ctx, query, generateRelated)
}
