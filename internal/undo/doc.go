// Package undo implements transactional, multi-section undo/redo for a
// redux-style store.
//
// State is split into sections, each reduced independently and identified
// by a Key. Three layers cooperate:
//
//   - SectionManager wraps one section's linear history (package history)
//     and adds nested transactions: while a transaction is open, changes are
//     staged and only the outermost commit turns them into a single
//     undoable checkpoint. An abort anywhere in a nested group poisons the
//     whole group.
//
//   - Manager coordinates every registered section. It records which
//     sections changed together for each user action, so one Undo or Redo
//     moves all of them at once, and it fans transaction control out to
//     every section.
//
//   - Enhancer wraps a plain reducer so it takes part in the system without
//     knowing about it: control actions (undo, redo, transact, ...) are
//     routed to the Manager, other actions are reduced and recorded as an
//     undoable insert or a non-undoable patch.
//
// # Actions
//
// Every Action carries a sequence number assigned by NewAction or the
// control constructors. The same action reaches every enhanced reducer of a
// store, so the Manager applies each control operation at most once per
// sequence number and each data operation at most once per sequence number
// and section.
//
//	m := undo.NewManager()
//	e := undo.NewEnhancer(m, undo.EnhancerConfig{})
//	reduce, section, err := undo.Enhance(e, "counter", initial, counterReducer)
//
//	state = reduce(state, undo.MakeUndoable(increment(5)))
//	state = reduce(state, undo.NewUndo())
//
// None of the types in this package are safe for concurrent use; a store
// dispatches from a single goroutine.
package undo
