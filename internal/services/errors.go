package services

import "errors"

var (
	// ErrValidation marks input rejected before anything is written.
	ErrValidation = errors.New("validation failed")
	// ErrForbidden marks a mutation of a record the caller does not own.
	ErrForbidden = errors.New("forbidden")
)
