//go:build !unix

package launch

import (
	"errors"
	"os/exec"
)

const execSupported = false

var execFunc = func(argv0 string, argv []string, envv []string) error {
	return errors.ErrUnsupported
}

func exitStatus(exitErr *exec.ExitError) int {
	if code := exitErr.ExitCode(); code >= 0 {
		return code
	}
	return 1
}
