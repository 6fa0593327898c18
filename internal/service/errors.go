package service

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidState      = errors.New("invalid state for transition")
	ErrDuplicateEstimate = errors.New("requirement already has an active estimate")
	ErrDuplicatePONumber = errors.New("po number already used for requirement")
)
