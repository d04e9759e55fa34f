package store

import "errors"

// Errors returned by Store operations.
var (
	// ErrReentrantDispatch indicates Dispatch was called while another
	// dispatch was running.
	ErrReentrantDispatch = errors.New("dispatch called while dispatching")

	// ErrReservedKey indicates a section registered under SummaryKey.
	ErrReservedKey = errors.New("section key is reserved")
)
