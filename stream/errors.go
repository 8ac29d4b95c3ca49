package stream

import "errors"

var (
	// ErrUnknownStage is returned when a staged result has no known variant.
	ErrUnknownStage = errors.New("unknown stage variant")
)
