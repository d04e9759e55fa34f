// Package history provides a linear undo/redo history for a single state
// value.
//
// A History holds the present state together with the states before it
// (past, oldest first) and the states that can be redone (future, soonest
// first). Histories are values: every operation returns a new History and
// leaves the receiver untouched, so a caller can keep an old History around
// and compare states by identity.
//
//	h := history.New(initial)
//	h = h.Insert(next)      // undoable checkpoint
//	h = h.Patch(tweaked)    // replaces present, no checkpoint
//
//	h, err := h.Undo()      // ErrNothingToUndo when past is empty
//	h, err = h.Redo()       // ErrNothingToRedo when future is empty
//
// # Jumping
//
// Jump(n) moves n steps at once: negative n walks into the past, positive n
// into the future. It is exactly equivalent to |n| single Undo or Redo
// calls and fails with ErrJumpOutOfRange rather than clamping.
package history
