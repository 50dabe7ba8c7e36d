package launch

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// TestHelperProcess is not a real test; supervised launches re-exec the test
// binary into it.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	if len(args) < 2 {
		os.Exit(2)
	}
	switch args[1] {
	case "exit":
		if len(args) < 3 {
			os.Exit(2)
		}
		code, _ := strconv.Atoi(args[2])
		os.Exit(code)
	case "sleep":
		time.Sleep(30 * time.Second)
		os.Exit(0)
	}
	os.Exit(2)
}

func helperCommand(t *testing.T, args ...string) ([]string, []string) {
	t.Helper()
	self, err := os.Executable()
	require.NoError(t, err)
	argv := append([]string{self, "-test.run=TestHelperProcess", "--"}, args...)
	env := append(os.Environ(), "GO_WANT_HELPER_PROCESS=1")
	return argv, env
}

func TestExecHandsOffResolvedPath(t *testing.T) {
	origExec, origLook := execFunc, lookPath
	t.Cleanup(func() {
		execFunc, lookPath = origExec, origLook
	})

	lookPath = func(file string) (string, error) {
		require.Equal(t, "nginx", file)
		return "/usr/sbin/nginx", nil
	}
	var gotPath string
	var gotArgv, gotEnv []string
	execFunc = func(argv0 string, argv []string, envv []string) error {
		gotPath, gotArgv, gotEnv = argv0, argv, envv
		return nil
	}

	argv := []string{"nginx", "-g", "daemon off;"}
	env := []string{"PORT=80"}
	require.NoError(t, NewExec(zaptest.NewLogger(t)).Launch(argv, env))
	require.Equal(t, "/usr/sbin/nginx", gotPath)
	require.Equal(t, argv, gotArgv)
	require.Equal(t, env, gotEnv)
}

func TestExecFailure(t *testing.T) {
	origExec := execFunc
	t.Cleanup(func() { execFunc = origExec })
	execFunc = func(string, []string, []string) error { return syscall.EACCES }

	self, err := os.Executable()
	require.NoError(t, err)
	err = NewExec(nil).Launch([]string{self}, nil)
	require.ErrorIs(t, err, ErrProcessLaunchFailure)
	require.ErrorIs(t, err, syscall.EACCES)
}

func TestLaunchMissingExecutable(t *testing.T) {
	for name, l := range map[string]Launcher{"exec": NewExec(nil), "supervise": NewSupervisor(nil)} {
		t.Run(name, func(t *testing.T) {
			err := l.Launch([]string{"definitely-not-a-real-binary-7f3a"}, nil)
			require.ErrorIs(t, err, ErrProcessLaunchFailure)
			require.ErrorIs(t, err, exec.ErrNotFound)

			err = l.Launch(nil, nil)
			require.ErrorIs(t, err, ErrProcessLaunchFailure)
		})
	}
}

func TestSupervisorPropagatesExitStatus(t *testing.T) {
	s := NewSupervisor(zaptest.NewLogger(t))

	argv, env := helperCommand(t, "exit", "0")
	require.NoError(t, s.Launch(argv, env))

	argv, env = helperCommand(t, "exit", "7")
	err := s.Launch(argv, env)
	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr), "got %v", err)
	require.Equal(t, 7, exitErr.Code)
	require.Equal(t, "server exited with status 7", exitErr.Error())
}

func TestSupervisorForwardsSignals(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("SIGTERM cannot be delivered to a child on windows")
	}
	origNotify, origStop := signalNotify, signalStop
	t.Cleanup(func() {
		signalNotify, signalStop = origNotify, origStop
	})

	signalNotify = func(ch chan<- os.Signal, sig ...os.Signal) {
		go func() {
			ch <- syscall.SIGTERM
		}()
	}
	signalStop = func(chan<- os.Signal) {}

	argv, env := helperCommand(t, "sleep")
	done := make(chan error, 1)
	go func() {
		done <- NewSupervisor(zaptest.NewLogger(t)).Launch(argv, env)
	}()

	select {
	case err := <-done:
		var exitErr *ExitError
		require.True(t, errors.As(err, &exitErr), "got %v", err)
		require.Equal(t, 128+int(syscall.SIGTERM), exitErr.Code)
	case <-time.After(10 * time.Second):
		require.FailNow(t, "expected supervised child to stop after forwarded signal")
	}
}

func TestSupervisorSubscribesBeforeStart(t *testing.T) {
	origNotify, origStop, origStart := signalNotify, signalStop, startCommand
	t.Cleanup(func() {
		signalNotify, signalStop, startCommand = origNotify, origStop, origStart
	})

	var calls []string
	signalNotify = func(chan<- os.Signal, ...os.Signal) { calls = append(calls, "notify") }
	signalStop = func(chan<- os.Signal) { calls = append(calls, "stop") }
	startCommand = func(cmd *exec.Cmd) error {
		calls = append(calls, "start")
		return origStart(cmd)
	}

	argv, env := helperCommand(t, "exit", "0")
	require.NoError(t, NewSupervisor(zaptest.NewLogger(t)).Launch(argv, env))
	require.Equal(t, []string{"notify", "start", "stop"}, calls)
}

func TestSupervisorStartFailureReleasesSignals(t *testing.T) {
	origNotify, origStop, origStart := signalNotify, signalStop, startCommand
	t.Cleanup(func() {
		signalNotify, signalStop, startCommand = origNotify, origStop, origStart
	})

	var stopped bool
	signalNotify = func(chan<- os.Signal, ...os.Signal) {}
	signalStop = func(chan<- os.Signal) { stopped = true }
	startCommand = func(*exec.Cmd) error { return syscall.EACCES }

	argv, env := helperCommand(t, "exit", "0")
	err := NewSupervisor(nil).Launch(argv, env)
	require.ErrorIs(t, err, ErrProcessLaunchFailure)
	require.ErrorIs(t, err, syscall.EACCES)
	require.True(t, stopped)
}

func TestNewSelectsLauncher(t *testing.T) {
	_, ok := New(nil, true).(*Supervisor)
	require.True(t, ok)

	l := New(nil, false)
	if execSupported {
		_, ok = l.(*Exec)
	} else {
		_, ok = l.(*Supervisor)
	}
	require.True(t, ok, fmt.Sprintf("unexpected launcher %T", l))
}
