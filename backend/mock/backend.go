package mock

import (
	"context"
	"iter"
	"sync"

	"github.com/poiesic/searchgate/backend"
	"github.com/poiesic/searchgate/core"
)

// Step is one scripted item in a mock sequence: a staged result or an error.
type Step struct {
	Result core.StagedResult
	Err    error
}

// MockBackend is a test double for backend.Backend that replays a scripted
// sequence of staged results.
type MockBackend struct {
	// SearchFunc is called by Search if set. If nil, the scripted Steps are
	// replayed.
	SearchFunc func(ctx context.Context, query string, generateRelated bool) iter.Seq2[core.StagedResult, error]

	// Steps is the scripted sequence replayed by default.
	Steps []Step

	// OnStart, if set, is invoked once per Search as soon as consumption of
	// the sequence begins. Useful for observing dispatch concurrency.
	OnStart func(query string)

	// Block, if set, is received from before the first step is yielded.
	// Closing or sending releases one in-flight Search.
	Block chan struct{}

	// Search must be safe under concurrent dispatch.
	mu        sync.Mutex
	callCount int
}

var _ backend.Backend = (*MockBackend)(nil)

// NewMockBackend creates a mock backend replaying the given steps.
// Note: Returns concrete type to allow test assertions.
func NewMockBackend(steps ...Step) *MockBackend {
	return &MockBackend{Steps: steps}
}

// Results is a convenience constructor for an all-success script.
func Results(results ...core.StagedResult) []Step {
	steps := make([]Step, len(results))
	for i, r := range results {
		steps[i] = Step{Result: r}
	}
	return steps
}

// Search replays the scripted sequence.
func (m *MockBackend) Search(ctx context.Context, query string, generateRelated bool) iter.Seq2[core.StagedResult, error] {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query, generateRelated)
	}

	return func(yield func(core.StagedResult, error) bool) {
		if m.OnStart != nil {
			m.OnStart(query)
		}
		if m.Block != nil {
			<-m.Block
		}
		for _, step := range m.Steps {
			if step.Err != nil {
				yield(nil, step.Err)
				return
			}
			if !yield(step.Result, nil) {
				return
			}
		}
	}
}

// CallCount returns the number of times Search was called.
func (m *MockBackend) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}
