package history

import (
	"errors"
	"fmt"
	"slices"
)

// Common errors for history operations.
var (
	ErrNothingToUndo  = errors.New("nothing to undo")
	ErrNothingToRedo  = errors.New("nothing to redo")
	ErrJumpOutOfRange = errors.New("jump out of range")
)

// History is an immutable linear undo/redo history.
type History[S any] struct {
	past    []S
	present S
	future  []S
}

// New creates a history with initial as the present and no past or future.
func New[S any](initial S) History[S] {
	return History[S]{present: initial}
}

// Present returns the current state.
func (h History[S]) Present() S {
	return h.present
}

// Past returns a copy of the past states, oldest first.
func (h History[S]) Past() []S {
	return slices.Clone(h.past)
}

// Future returns a copy of the future states, soonest first.
func (h History[S]) Future() []S {
	return slices.Clone(h.future)
}

// PastLen returns the number of states that can be undone.
func (h History[S]) PastLen() int {
	return len(h.past)
}

// FutureLen returns the number of states that can be redone.
func (h History[S]) FutureLen() int {
	return len(h.future)
}

// CanUndo returns true if undo is available.
func (h History[S]) CanUndo() bool {
	return len(h.past) > 0
}

// CanRedo returns true if redo is available.
func (h History[S]) CanRedo() bool {
	return len(h.future) > 0
}

// Reset keeps the present and clears past and future.
func (h History[S]) Reset() History[S] {
	return History[S]{present: h.present}
}

// ResetTo replaces the present and clears past and future.
func (h History[S]) ResetTo(state S) History[S] {
	return History[S]{present: state}
}

// Patch replaces the present without creating a checkpoint.
// The future is cleared; the past is untouched.
func (h History[S]) Patch(state S) History[S] {
	return History[S]{
		past:    h.past,
		present: state,
	}
}

// Insert pushes the present onto the past and makes state the present.
// The future is cleared.
func (h History[S]) Insert(state S) History[S] {
	return History[S]{
		past:    append(slices.Clip(h.past), h.present),
		present: state,
	}
}

// Undo moves back one state.
// When there is no past the history is returned unchanged with ErrNothingToUndo.
func (h History[S]) Undo() (History[S], error) {
	n := len(h.past)
	if n == 0 {
		return h, ErrNothingToUndo
	}

	future := make([]S, 0, len(h.future)+1)
	future = append(future, h.present)
	future = append(future, h.future...)

	return History[S]{
		past:    slices.Clip(h.past[:n-1]),
		present: h.past[n-1],
		future:  future,
	}, nil
}

// Redo moves forward one state.
// When there is no future the history is returned unchanged with ErrNothingToRedo.
func (h History[S]) Redo() (History[S], error) {
	if len(h.future) == 0 {
		return h, ErrNothingToRedo
	}

	return History[S]{
		past:    append(slices.Clip(h.past), h.present),
		present: h.future[0],
		future:  h.future[1:],
	}, nil
}

// Jump moves steps states at once; negative steps go back.
// Jumping further than the available history returns the history unchanged
// with an error wrapping ErrJumpOutOfRange.
func (h History[S]) Jump(steps int) (History[S], error) {
	switch {
	case steps == 0:
		return h, nil
	case steps == -1:
		return h.Undo()
	case steps == 1:
		return h.Redo()
	case steps < 0:
		n := -steps
		if n > len(h.past) {
			return h, fmt.Errorf("%w: back %d with %d past states", ErrJumpOutOfRange, n, len(h.past))
		}
		cut := len(h.past) - n

		// past[cut] becomes present; everything after it, then the old
		// present, then the old future, becomes the new future.
		future := make([]S, 0, n+len(h.future))
		future = append(future, h.past[cut+1:]...)
		future = append(future, h.present)
		future = append(future, h.future...)

		return History[S]{
			past:    slices.Clip(h.past[:cut]),
			present: h.past[cut],
			future:  future,
		}, nil
	default:
		if steps > len(h.future) {
			return h, fmt.Errorf("%w: forward %d with %d future states", ErrJumpOutOfRange, steps, len(h.future))
		}

		past := make([]S, 0, len(h.past)+steps)
		past = append(past, h.past...)
		past = append(past, h.present)
		past = append(past, h.future[:steps-1]...)

		return History[S]{
			past:    past,
			present: h.future[steps-1],
			future:  h.future[steps:],
		}, nil
	}
}
