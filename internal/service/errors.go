package service

import (
	"errors"
	"fmt"
)

// ErrListingsUnavailable means the listings source returned non-success or
// was unreachable. The turn aborts before any store mutation and the user
// gets a retry-later message.
var ErrListingsUnavailable = errors.New("listings source unavailable")

// ErrSessionNotFound means the caller referenced an unknown or expired
// session.
var ErrSessionNotFound = errors.New("session not found")

// ExtractionParseError means the extractor's output could not be parsed or
// sanitized into a valid delta. The preference store is left untouched and
// the turn is retryable; a partial or corrupted delta is never applied.
type ExtractionParseError struct {
	Raw string
	Err error
}

func (e *ExtractionParseError) Error() string {
	return fmt.Sprintf("failed to parse extracted preferences: %v", e.Err)
}

func (e *ExtractionParseError) Unwrap() error {
	return e.Err
}
