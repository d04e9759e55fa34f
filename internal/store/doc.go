// Package store is a small redux-style host for undoable sections.
//
// A Store combines reducers enhanced by package undo under one root State,
// dispatches actions through them in registration order, and keeps an
// undo summary section (SummaryKey) describing the shared history. Each
// Store owns its own undo.Manager, so several stores in one process never
// share history.
//
// A Store is driven from a single goroutine. Dispatching from inside a
// reducer or listener is rejected with ErrReentrantDispatch.
package store
