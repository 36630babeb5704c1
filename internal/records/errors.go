package records

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates a record file does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates validation or bad input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDestinationExists indicates a move would overwrite an existing file.
	ErrDestinationExists = errors.New("destination already exists")
)

// MoveAttempt is one try at moving a record file.
type MoveAttempt struct {
	Source      string
	Destination string
	Err         error
}

// MoveError is returned when both the primary and the fallback file name
// failed to move. The record stays where it was.
type MoveError struct {
	ID       string
	Op       string
	Attempts []MoveAttempt
}

func (e *MoveError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Source, a.Err))
	}
	return fmt.Sprintf("%s %q failed: %s", e.Op, e.ID, strings.Join(parts, "; "))
}

// Unwrap exposes the per-attempt errors to errors.Is.
func (e *MoveError) Unwrap() []error {
	out := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		out = append(out, a.Err)
	}
	return out
}
