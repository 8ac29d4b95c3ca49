// Package dispatch bounds query concurrency with a worker pool.
//
// The HTTP layer accepts connections without limit; this pool is where the
// process decides how many of those queries may hit the backend at once.
// Everything past capacity waits its turn in dispatch order.
package dispatch
