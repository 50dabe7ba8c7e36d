// Package exitcodes maps bootstrap failures to process exit statuses so the
// container supervisor can tell configuration problems apart.
package exitcodes

import (
	"errors"

	"github.com/eugenenazirov/proxy-bootstrap/internal/config"
	"github.com/eugenenazirov/proxy-bootstrap/internal/launch"
	"github.com/eugenenazirov/proxy-bootstrap/internal/render"
)

const (
	// Success indicates the configuration was rendered and the server handed off or exited cleanly.
	Success = 0

	// GeneralError indicates an unclassified failure.
	GeneralError = 1

	// InvalidArgs indicates bad flags or a malformed manifest.
	InvalidArgs = 2

	// MissingRequiredConfig indicates a required environment variable had no value.
	MissingRequiredConfig = 3

	// ConfigFileNotFound indicates a target file does not exist.
	ConfigFileNotFound = 4

	// ConfigFileAccessDenied indicates a target file could not be read or written.
	ConfigFileAccessDenied = 5

	// UnrenderedToken indicates a token survived rendering.
	UnrenderedToken = 6

	// ProcessLaunchFailure indicates the server executable could not be run.
	// Matches the shell convention for "command not found".
	ProcessLaunchFailure = 127
)

// CodeForError returns the exit status for err. A supervised server's own
// status is passed through unchanged.
func CodeForError(err error) int {
	if err == nil {
		return Success
	}

	var exitErr *launch.ExitError
	switch {
	case errors.As(err, &exitErr):
		return exitErr.Code
	case errors.Is(err, config.ErrInvalidConfig), errors.Is(err, render.ErrInvalidTarget):
		return InvalidArgs
	case errors.Is(err, render.ErrMissingRequiredConfig):
		return MissingRequiredConfig
	case errors.Is(err, render.ErrConfigFileNotFound):
		return ConfigFileNotFound
	case errors.Is(err, render.ErrConfigFileAccessDenied):
		return ConfigFileAccessDenied
	case errors.Is(err, render.ErrUnrenderedToken):
		return UnrenderedToken
	case errors.Is(err, launch.ErrProcessLaunchFailure):
		return ProcessLaunchFailure
	default:
		return GeneralError
	}
}
