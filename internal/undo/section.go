package undo

import (
	"errors"
	"fmt"

	"github.com/dshills/undocore/internal/logging"
	"github.com/dshills/undocore/internal/undo/history"
)

// Section is one independently reduced part of the store as seen by the
// Manager. SectionManager is the standard implementation.
type Section interface {
	// InsertState records state as an undoable change and reports whether
	// a history checkpoint was created.
	InsertState(state any, a Action) bool
	// PatchState records state as a non-undoable change.
	PatchState(state any, a Action)

	Undo()
	Redo()
	Jump(steps int) error

	Transact(a Action)
	// Commit closes the innermost transaction and reports whether the
	// outermost commit created a history checkpoint.
	Commit(a Action) bool
	Abort(a Action)
	InTransaction() bool
	// CanRedo reports whether the section has a redo chain.
	CanRedo() bool

	// Purge drops past and future, keeping the current state.
	Purge()
}

// SectionManager adds nested transactions to the linear history of one
// section.
type SectionManager[S any] struct {
	history history.History[S]

	txDepth   int
	txState   S
	txFailure bool

	equal  func(a, b any) bool
	logger *logging.Logger
}

var _ Section = (*SectionManager[int])(nil)

// NewSectionManager creates a section manager with initial as the present.
func NewSectionManager[S any](initial S, opts ...Option) *SectionManager[S] {
	o := buildOptions(opts)
	return &SectionManager[S]{
		history: history.New(initial),
		equal:   o.equal,
		logger:  o.logger,
	}
}

// CurrentState returns the staged state inside a transaction and the
// present otherwise.
func (m *SectionManager[S]) CurrentState() S {
	if m.txDepth > 0 {
		return m.txState
	}
	return m.history.Present()
}

// Present returns the last committed state, even inside a transaction.
func (m *SectionManager[S]) Present() S {
	return m.history.Present()
}

// Past returns the committed states before the present, oldest first.
func (m *SectionManager[S]) Past() []S {
	return m.history.Past()
}

// Future returns the states that can be redone, soonest first.
func (m *SectionManager[S]) Future() []S {
	return m.history.Future()
}

// History returns the underlying history value.
func (m *SectionManager[S]) History() history.History[S] {
	return m.history
}

// InTransaction reports whether a transaction is open.
func (m *SectionManager[S]) InTransaction() bool {
	return m.txDepth > 0
}

// Depth returns the number of nested open transactions.
func (m *SectionManager[S]) Depth() int {
	return m.txDepth
}

// CanRedo reports whether there is a future to redo.
func (m *SectionManager[S]) CanRedo() bool {
	return m.history.CanRedo()
}

// Patch records a non-undoable change. Inside a transaction it is staged.
func (m *SectionManager[S]) Patch(state S, a Action) {
	m.logger.Debug("patch (not undoable) %s", a)

	if m.txDepth > 0 {
		m.txState = state
		return
	}
	m.history = m.history.Patch(state)
}

// Insert records an undoable change and reports whether a checkpoint was
// created. A state identical to the present is ignored, even inside a
// transaction. Otherwise inside a transaction the state is staged until
// the outermost commit.
func (m *SectionManager[S]) Insert(state S, a Action) bool {
	if m.equal(state, m.history.Present()) {
		return false
	}

	if m.txDepth > 0 {
		m.logger.Debug("insert %s: staging (depth %d)", a, m.txDepth)
		m.txState = state
		return false
	}

	m.logger.Debug("insert %s", a)
	m.history = m.history.Insert(state)
	return true
}

// InsertState implements Section. It panics if state is not an S.
func (m *SectionManager[S]) InsertState(state any, a Action) bool {
	return m.Insert(m.assert(state), a)
}

// PatchState implements Section. It panics if state is not an S.
func (m *SectionManager[S]) PatchState(state any, a Action) {
	m.Patch(m.assert(state), a)
}

func (m *SectionManager[S]) assert(state any) S {
	s, ok := state.(S)
	if !ok && state != nil {
		var zero S
		panic(fmt.Errorf("%w: got %T, want %T", ErrStateType, state, zero))
	}
	return s
}

// Undo moves the section back one checkpoint and leaves any transaction.
func (m *SectionManager[S]) Undo() {
	m.logger.Debug("undo")
	h, err := m.history.Undo()
	if err != nil {
		m.logger.Warn("undo: %v", err)
	}
	m.history = h
	m.resetTransaction()
}

// Redo moves the section forward one checkpoint and leaves any transaction.
func (m *SectionManager[S]) Redo() {
	m.logger.Debug("redo")
	h, err := m.history.Redo()
	if err != nil {
		m.logger.Warn("redo: %v", err)
	}
	m.history = h
	m.resetTransaction()
}

// Jump moves the section steps checkpoints and leaves any transaction.
// Out of range jumps leave the history unchanged and return the error, but
// still end the transaction.
func (m *SectionManager[S]) Jump(steps int) error {
	m.logger.Debug("jump %d", steps)
	h, err := m.history.Jump(steps)
	m.history = h
	m.resetTransaction()

	switch {
	case err == nil:
		return nil
	case errors.Is(err, history.ErrJumpOutOfRange):
		return err
	default:
		m.logger.Warn("jump %d: %v", steps, err)
		return nil
	}
}

// Purge drops past and future, keeping the current state as the present.
func (m *SectionManager[S]) Purge() {
	m.history = m.history.ResetTo(m.CurrentState())
}

// Transact opens a (possibly nested) transaction. The staged state starts
// from the current state so nested transactions layer on the outer one.
func (m *SectionManager[S]) Transact(a Action) {
	m.txState = m.CurrentState()
	m.txDepth++
	m.logger.Debug("transact %s (depth %d)", a, m.txDepth)
}

// Commit closes the innermost transaction. Only the outermost commit of a
// group without aborts inserts the staged state into history.
func (m *SectionManager[S]) Commit(a Action) bool {
	if m.txDepth == 0 {
		m.logger.Warn("commit %s called outside transaction", a)
		return false
	}

	m.txDepth--
	if m.txDepth > 0 {
		m.logger.Debug("commit %s: nested (depth %d)", a, m.txDepth)
		return false
	}

	inserted := false
	if m.txFailure {
		m.logger.Debug("commit %s: group aborted, discarding", a)
	} else {
		staged := m.txState
		inserted = m.Insert(staged, a)
		m.logger.Debug("commit %s: all transactions complete (inserted=%t)", a, inserted)
	}
	m.resetTransaction()
	return inserted
}

// Abort closes the innermost transaction and poisons the group: the
// outermost commit will not insert. The present is never changed.
func (m *SectionManager[S]) Abort(a Action) {
	if m.txDepth == 0 {
		m.logger.Warn("abort %s called outside transaction", a)
		return
	}

	m.txFailure = true
	m.txDepth--
	m.logger.Debug("abort %s (depth %d)", a, m.txDepth)

	if m.txDepth == 0 {
		m.resetTransaction()
	}
}

func (m *SectionManager[S]) resetTransaction() {
	var zero S
	m.txDepth = 0
	m.txState = zero
	m.txFailure = false
}
