package models

import "errors"

// Error taxonomy shared across the core. Callers match with errors.Is;
// wrapped detail travels via fmt.Errorf("%w: ...", Err...).
var (
	// ErrNotFound signals a missing session or video-result identity.
	ErrNotFound = errors.New("not found")

	// ErrOutOfRange signals a frame index outside [0, frame_count).
	ErrOutOfRange = errors.New("frame index out of range")

	// ErrUnavailable signals that the language or OCR capability failed
	// or timed out.
	ErrUnavailable = errors.New("capability unavailable")

	// ErrInvalidInput signals malformed user-supplied text or numbers.
	ErrInvalidInput = errors.New("invalid input")
)
