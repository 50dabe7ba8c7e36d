package render

import "errors"

var (
	// ErrConfigFileNotFound is returned when a target file does not exist.
	ErrConfigFileNotFound = errors.New("config file not found")
	// ErrConfigFileAccessDenied is returned when a target file cannot be read or written.
	ErrConfigFileAccessDenied = errors.New("config file access denied")
	// ErrMissingRequiredConfig is returned when a placeholder has neither an environment value nor a default.
	ErrMissingRequiredConfig = errors.New("missing required config")
	// ErrUnrenderedToken is returned by Check when a declared token is still present after rendering.
	ErrUnrenderedToken = errors.New("unrendered placeholder token")
	// ErrInvalidTarget is returned when a target or its placeholder map is malformed.
	ErrInvalidTarget = errors.New("invalid target")
)
