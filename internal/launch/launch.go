package launch

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"
)

// ErrProcessLaunchFailure is returned when the server executable cannot be found or started.
var ErrProcessLaunchFailure = errors.New("process launch failure")

// ExitError carries the exit status of a supervised server that exited non-zero.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("server exited with status %d", e.Code)
}

// Launcher transfers control to argv. A successful exec-style launch never returns.
type Launcher interface {
	Launch(argv []string, env []string) error
}

var (
	lookPath     = exec.LookPath
	startCommand = (*exec.Cmd).Start
	signalNotify = signal.Notify
	signalStop   = signal.Stop
)

// forwardedSignals are relayed to a supervised child.
var forwardedSignals = []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT}

// New picks the exec launcher where the platform supports it, unless supervise is set.
func New(logger *zap.Logger, supervise bool) Launcher {
	if supervise || !execSupported {
		return NewSupervisor(logger)
	}
	return NewExec(logger)
}

// Exec replaces the current process with the server.
type Exec struct {
	logger *zap.Logger
}

// NewExec creates an exec-style launcher.
func NewExec(logger *zap.Logger) *Exec {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exec{logger: logger}
}

// Launch resolves argv[0] on PATH and replaces the current process with it.
// It only returns on failure, always wrapping ErrProcessLaunchFailure.
func (l *Exec) Launch(argv []string, env []string) error {
	path, err := resolve(argv)
	if err != nil {
		return err
	}

	l.logger.Info("handing off to server",
		zap.String("path", path),
		zap.String("command", strings.Join(argv, " ")),
	)
	// Nothing after exec runs, so flush now.
	_ = l.logger.Sync()

	if err := execFunc(path, argv, env); err != nil {
		return fmt.Errorf("%w: exec %s: %w", ErrProcessLaunchFailure, path, err)
	}
	return nil
}

// Supervisor runs the server as a child process and relays signals to it.
type Supervisor struct {
	logger *zap.Logger
}

// NewSupervisor creates a supervising launcher.
func NewSupervisor(logger *zap.Logger) *Supervisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Supervisor{logger: logger}
}

// Launch starts argv with inherited stdio and blocks until it exits.
// A non-zero exit is reported as *ExitError.
func (s *Supervisor) Launch(argv []string, env []string) error {
	path, err := resolve(argv)
	if err != nil {
		return err
	}

	cmd := exec.Command(path, argv[1:]...)
	cmd.Env = env
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	// Subscribe before Start so a signal arriving meanwhile is queued for the child.
	sigs := make(chan os.Signal, 1)
	signalNotify(sigs, forwardedSignals...)
	defer signalStop(sigs)

	if err := startCommand(cmd); err != nil {
		return fmt.Errorf("%w: start %s: %w", ErrProcessLaunchFailure, path, err)
	}
	s.logger.Info("server started",
		zap.Int("pid", cmd.Process.Pid),
		zap.String("command", strings.Join(argv, " ")),
	)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case sig := <-sigs:
				s.logger.Info("forwarding signal", zap.String("signal", sig.String()))
				if err := cmd.Process.Signal(sig); err != nil {
					s.logger.Warn("signal forwarding failed", zap.Error(err))
				}
			case <-done:
				return
			}
		}
	}()

	err = cmd.Wait()
	close(done)
	if err == nil {
		s.logger.Info("server exited")
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitStatus(exitErr)
		s.logger.Info("server exited", zap.Int("status", code))
		return &ExitError{Code: code}
	}
	return fmt.Errorf("wait for %s: %w", path, err)
}

func resolve(argv []string) (string, error) {
	if len(argv) == 0 || argv[0] == "" {
		return "", fmt.Errorf("%w: empty command", ErrProcessLaunchFailure)
	}
	path, err := lookPath(argv[0])
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrProcessLaunchFailure, err)
	}
	return path, nil
}
