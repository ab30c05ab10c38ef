package domain

import "errors"

// Outcome kinds reported to callers. Lower layers wrap these with context;
// the transport layer maps them to HTTP statuses with errors.Is.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not found")
)
