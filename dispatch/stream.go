package dispatch

import (
	"sync"

	"github.com/poiesic/searchgate/core"
)

// Stream delivers one query's staged results in backend order.
type Stream struct {
	results chan core.StagedResult
	done    chan struct{}

	closeOnce sync.Once

	mu  sync.Mutex
	err error
}

func newStream(bufferSize int) *Stream {
	return &Stream{
		results: make(chan core.StagedResult, bufferSize),
		done:    make(chan struct{}),
	}
}

// Results returns the channel staged results arrive on. It is closed when
// the query completes, fails, or the stream is closed.
func (s *Stream) Results() <-chan core.StagedResult {
	return s.results
}

// Err reports the failure that ended the stream, if any. Only meaningful
// after Results is closed.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close abandons the stream. The worker stops forwarding results; results
// already buffered are discarded by the caller simply not reading them.
// Safe to call multiple times.
func (s *Stream) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

func (s *Stream) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}
