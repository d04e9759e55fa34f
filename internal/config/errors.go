package config

import "errors"

// Errors returned by configuration operations.
var (
	// ErrInvalidConfig indicates a setting with an unusable value or an
	// unknown setting.
	ErrInvalidConfig = errors.New("invalid configuration")
)
