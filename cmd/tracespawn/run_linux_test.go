package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/criyle/go-tracespawn/pkg/forkexec"
	"github.com/criyle/go-tracespawn/pkg/procstate"
	"github.com/criyle/go-tracespawn/runner"
	"github.com/criyle/go-tracespawn/tracespawn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func skipWithoutPtrace(t *testing.T) {
	t.Helper()
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	c, err := tracespawn.Spawn(&forkexec.Runner{Args: []string{"/bin/true"}})
	var se *tracespawn.Error
	if errors.As(err, &se) && se.Op == tracespawn.OpStart && errors.Is(err, unix.EPERM) {
		t.Skipf("ptrace unavailable: %v", err)
	}
	require.NoError(t, err)
	require.NoError(t, c.Kill())
	_, _, err = c.Wait()
	require.NoError(t, err)
}

// readResult returns the fields of the result line
func readResult(t *testing.T, name string) []string {
	t.Helper()
	b, err := os.ReadFile(name)
	require.NoError(t, err)
	return strings.Fields(string(b))
}

func TestSignalStatus(t *testing.T) {
	assert.Equal(t, runner.StatusTimeLimitExceeded, signalStatus(unix.SIGXCPU))
	assert.Equal(t, runner.StatusOutputLimitExceeded, signalStatus(unix.SIGXFSZ))
	assert.Equal(t, runner.StatusDisallowedSyscall, signalStatus(unix.SIGSYS))
	assert.Equal(t, runner.StatusSignalled, signalStatus(unix.SIGKILL))
}

func TestExecute(t *testing.T) {
	skipWithoutPtrace(t)
	dir := t.TempDir()
	res := filepath.Join(dir, "result")
	outFile := filepath.Join(dir, "out")

	for _, launcher := range []string{"forkexec", "exec"} {
		t.Run(launcher, func(t *testing.T) {
			o := &options{
				Profile: Profile{Launcher: launcher, Stdout: outFile},
				result:  res,
			}
			require.NoError(t, o.complete(newRootCmd().Flags(), []string{"echo", "hello"}))
			require.NoError(t, execute(o, zerolog.Nop()))

			b, err := os.ReadFile(outFile)
			require.NoError(t, err)
			assert.Equal(t, "hello\n", string(b))

			b, err = os.ReadFile(res)
			require.NoError(t, err)
			fields := strings.Fields(string(b))
			require.Len(t, fields, 4)
			assert.Equal(t, "1", fields[0])
			assert.Equal(t, "0", fields[3])
		})
	}
}

func TestExecute_DeniedTraceRequest(t *testing.T) {
	skipWithoutPtrace(t)
	var logs bytes.Buffer
	res := filepath.Join(t.TempDir(), "result")
	o := &options{
		Profile: Profile{Launcher: "forkexec", DenySyscalls: []string{"ptrace"}},
		result:  res,
	}
	require.NoError(t, o.complete(newRootCmd().Flags(), []string{"/bin/true"}))
	err := execute(o, zerolog.New(&logs))
	assert.ErrorIs(t, err, unix.EPERM)

	b, err := os.ReadFile(res)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "7 "), "got %q", b)
}

func TestExecute_CaptureStderr(t *testing.T) {
	skipWithoutPtrace(t)
	var logs bytes.Buffer
	o := &options{
		Profile:       Profile{Launcher: "forkexec"},
		result:        filepath.Join(t.TempDir(), "result"),
		captureStderr: 4,
	}
	require.NoError(t, o.complete(newRootCmd().Flags(), []string{"sh", "-c", "echo oops-truncated >&2"}))
	require.NoError(t, execute(o, zerolog.New(&logs)))
	assert.Contains(t, logs.String(), `"truncated":true`)
	assert.Contains(t, logs.String(), "stderr: oops")
	assert.NotContains(t, logs.String(), "oops-")
}

func TestExecute_Hold(t *testing.T) {
	skipWithoutPtrace(t)
	res := filepath.Join(t.TempDir(), "result")
	o := &options{
		Profile: Profile{Launcher: "forkexec"},
		result:  res,
		hold:    true,
	}
	require.NoError(t, o.complete(newRootCmd().Flags(), []string{"/bin/true"}))
	require.NoError(t, execute(o, zerolog.Nop()))

	fields := readResult(t, res)
	require.Len(t, fields, 1)
	pid, err := strconv.Atoi(fields[0])
	require.NoError(t, err)
	defer func() {
		var ws unix.WaitStatus
		unix.Kill(pid, unix.SIGKILL)
		unix.Wait4(pid, &ws, 0, nil)
	}()

	// SIGSTOP is delivered once the detached child runs again
	assert.Eventually(t, func() bool {
		stopped, err := procstate.IsStopped(context.Background(), pid)
		return err == nil && stopped
	}, 2*time.Second, 10*time.Millisecond)
}

func TestExecute_Wall(t *testing.T) {
	skipWithoutPtrace(t)
	res := filepath.Join(t.TempDir(), "result")
	o := &options{
		Profile: Profile{Launcher: "forkexec", Wall: 100 * time.Millisecond},
		result:  res,
	}
	require.NoError(t, o.complete(newRootCmd().Flags(), []string{"sleep", "10"}))

	start := time.Now()
	require.NoError(t, execute(o, zerolog.Nop()))
	assert.Less(t, time.Since(start), 5*time.Second)

	fields := readResult(t, res)
	require.Len(t, fields, 4)
	assert.Equal(t, strconv.Itoa(int(runner.StatusTimeLimitExceeded)), fields[0])
}

func TestExecute_TTY(t *testing.T) {
	skipWithoutPtrace(t)
	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skipf("pty unavailable: %v", err)
	}
	ptmx.Close()
	tty.Close()

	for _, launcher := range []string{"forkexec", "exec"} {
		t.Run(launcher, func(t *testing.T) {
			var out bytes.Buffer
			res := filepath.Join(t.TempDir(), "result")
			o := &options{
				Profile: Profile{Launcher: launcher},
				result:  res,
				tty:     true,
				ttyOut:  &out,
			}
			require.NoError(t, o.complete(newRootCmd().Flags(), []string{"echo", "hello-tty"}))
			require.NoError(t, execute(o, zerolog.Nop()))

			assert.Contains(t, out.String(), "hello-tty")
			fields := readResult(t, res)
			require.Len(t, fields, 4)
			assert.Equal(t, "1", fields[0])
		})
	}
}
