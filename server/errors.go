package server

import "errors"

var (
	// ErrPoolRequired is returned when a dispatch pool is not provided.
	ErrPoolRequired = errors.New("dispatch pool required")
)
