package service

import (
	"errors"
)

// Sentinel kinds for service errors.
var (
	// ErrDuplicate marks a one-shot submission that was already accepted.
	ErrDuplicate = errors.New("duplicate submission")

	// ErrNotStarted marks an operation that needs the running loops.
	ErrNotStarted = errors.New("service not started")
)
