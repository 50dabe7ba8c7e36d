//go:build unix

package launch

import (
	"os/exec"
	"syscall"
)

const execSupported = true

var execFunc = syscall.Exec

// exitStatus follows the shell convention: a child killed by signal n
// reports 128+n.
func exitStatus(exitErr *exec.ExitError) int {
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return exitErr.ExitCode()
}
