package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	ErrSubjectIDRequired = errors.New("subject id is required")
	ErrEmailRequired     = errors.New("email is required")
)
