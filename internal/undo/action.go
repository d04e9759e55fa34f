package undo

import (
	"fmt"
	"sync/atomic"
)

// Key identifies a section of the store.
type Key string

// Type identifies the kind of an action.
type Type string

// Control action types handled by the Manager instead of section reducers.
const (
	TypeUndo     Type = "@@undo/UNDO"
	TypeRedo     Type = "@@undo/REDO"
	TypeJump     Type = "@@undo/JUMP"
	TypeTransact Type = "@@undo/TRANSACT"
	TypeCommit   Type = "@@undo/COMMIT"
	TypeAbort    Type = "@@undo/ABORT"
)

// Store initialization action types. Both reset history by default.
const (
	TypeInit      Type = "@@INIT"
	TypeReduxInit Type = "@@redux/INIT"
)

// IsControl reports whether t is one of the control action types.
func (t Type) IsControl() bool {
	switch t {
	case TypeUndo, TypeRedo, TypeJump, TypeTransact, TypeCommit, TypeAbort:
		return true
	}
	return false
}

// Action is a dispatched action.
type Action struct {
	Type    Type
	Payload any

	// Steps is the jump distance for TypeJump actions.
	Steps int

	// Undoable marks the state change as an undoable checkpoint.
	Undoable bool
	// UndoPurge clears all history before the change is applied.
	UndoPurge bool

	// Seq is the action's sequence number. Zero means unsequenced:
	// the Manager never deduplicates such actions.
	Seq uint64
}

var lastSeq atomic.Uint64

// NextSeq returns a new, never before returned sequence number.
func NextSeq() uint64 {
	return lastSeq.Add(1)
}

// NewAction creates a sequenced action.
func NewAction(t Type, payload any) Action {
	return Action{Type: t, Payload: payload, Seq: NextSeq()}
}

// Sequenced returns a with a sequence number, assigning one if it has none.
func (a Action) Sequenced() Action {
	if a.Seq == 0 {
		a.Seq = NextSeq()
	}
	return a
}

// String returns a short description used in logs.
func (a Action) String() string {
	return fmt.Sprintf("%s#%d", a.Type, a.Seq)
}

// NewUndo creates an undo action.
func NewUndo() Action { return NewAction(TypeUndo, nil) }

// NewRedo creates a redo action.
func NewRedo() Action { return NewAction(TypeRedo, nil) }

// NewJump creates a jump action moving steps through history.
func NewJump(steps int) Action {
	a := NewAction(TypeJump, nil)
	a.Steps = steps
	return a
}

// NewTransact creates an action opening a transaction.
func NewTransact() Action { return NewAction(TypeTransact, nil) }

// NewCommit creates an action committing the innermost transaction.
func NewCommit() Action { return NewAction(TypeCommit, nil) }

// NewAbort creates an action aborting the innermost transaction.
func NewAbort() Action { return NewAction(TypeAbort, nil) }

// MakeUndoable marks a as an undoable change.
func MakeUndoable(a Action) Action {
	a.Undoable = true
	return a
}

// MakePurging marks a as clearing all history.
func MakePurging(a Action) Action {
	a.UndoPurge = true
	return a
}
