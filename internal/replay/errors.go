package replay

import (
	"errors"
	"fmt"
)

// Errors returned when loading a script.
var (
	// ErrInvalidScript indicates a script that cannot be run.
	ErrInvalidScript = errors.New("invalid script")
)

// ExpectationError reports a step whose expectation did not hold.
type ExpectationError struct {
	// Step is the 1-based step number.
	Step int
	// Field is the section name, or "past" or "future".
	Field string
	Want  int
	Got   int
}

func (e *ExpectationError) Error() string {
	return fmt.Sprintf("step %d: %s = %d, want %d", e.Step, e.Field, e.Got, e.Want)
}
