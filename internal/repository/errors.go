package repository

import "errors"

var (
	ErrNotFound = errors.New("record not found")

	// ErrStaleState means a guarded status update matched zero rows: the
	// entity left the expected source status before this write committed.
	ErrStaleState = errors.New("stale state")

	ErrDuplicatePONumber = errors.New("duplicate po number")
)
