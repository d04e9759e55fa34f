package undo

import (
	"errors"

	"github.com/dshills/undocore/internal/undo/history"
)

// Errors returned by undo operations.
var (
	// ErrNoTransaction indicates a commit or abort with no open transaction.
	ErrNoTransaction = errors.New("no transaction in progress")

	// ErrJumpUnsupported indicates a multi-step jump across sections.
	ErrJumpUnsupported = errors.New("jump is not supported across sections")

	// ErrDuplicateSection indicates a key registered twice.
	ErrDuplicateSection = errors.New("section already registered")

	// ErrUnknownSection indicates a key that was never registered.
	ErrUnknownSection = errors.New("unknown section")

	// ErrStateType indicates a state value of the wrong type for a section.
	ErrStateType = errors.New("state type mismatch")

	// ErrEmptyKey indicates a section registered without a key.
	ErrEmptyKey = errors.New("section key is required")
)

// History navigation errors, shared with package history.
var (
	ErrNothingToUndo = history.ErrNothingToUndo
	ErrNothingToRedo = history.ErrNothingToRedo
)
