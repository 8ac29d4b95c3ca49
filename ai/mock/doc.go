// Package mock provides test doubles for the ai interfaces.
//
// Each mock exposes injectable function fields for custom behavior and
// call counts for assertions, with deterministic defaults so tests run
// without any external AI service.
package mock
