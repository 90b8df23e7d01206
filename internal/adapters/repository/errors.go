package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound     = errors.New("record not found")
	ErrUnauthorized = errors.New("invalid credentials")
	ErrCaseExists   = errors.New("case already assigned")
)
