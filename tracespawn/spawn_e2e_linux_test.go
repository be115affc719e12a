package tracespawn

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"testing"

	"github.com/criyle/go-tracespawn/pkg/forkexec"
	"github.com/criyle/go-tracespawn/pkg/procstate"
	"github.com/criyle/go-tracespawn/pkg/seccomp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func lookPath(t *testing.T, name string) string {
	t.Helper()
	p, err := exec.LookPath(name)
	if err != nil {
		t.Skipf("%s not found: %v", name, err)
	}
	return p
}

// skipWithoutPtrace skips when the environment refuses PTRACE_TRACEME
// (e.g. a seccomp profile of the container)
func skipWithoutPtrace(t *testing.T) {
	t.Helper()
	c, err := Spawn(&forkexec.Runner{Args: []string{lookPath(t, "true")}})
	var se *Error
	if errors.As(err, &se) && se.Op == OpStart && errors.Is(err, unix.EPERM) {
		t.Skipf("ptrace unavailable: %v", err)
	}
	require.NoError(t, err)
	require.NoError(t, c.Kill())
	_, _, err = c.Wait()
	require.NoError(t, err)
}

// runToExit checks the exec stop and resumes the child until it exits
func runToExit(t *testing.T, c *Child) {
	t.Helper()
	stopped, err := procstate.IsStopped(context.Background(), c.Pid())
	require.NoError(t, err)
	assert.True(t, stopped)

	require.NoError(t, c.Continue(0))
	st, ru, err := c.Wait()
	require.NoError(t, err)
	assert.Equal(t, Status{Kind: KindExited, Pid: c.Pid()}, st)
	assert.NotNil(t, ru)
}

func TestSpawn_Runner(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	skipWithoutPtrace(t)

	c, err := Spawn(&forkexec.Runner{Args: []string{lookPath(t, "true")}})
	require.NoError(t, err)
	assert.Equal(t, unix.SIGTRAP, c.StopStatus().Signal)
	runToExit(t, c)
}

func TestSpawn_ExecCmd(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	skipWithoutPtrace(t)

	c, err := Spawn(ExecCmd(exec.Command(lookPath(t, "true"))))
	require.NoError(t, err)
	runToExit(t, c)
}

func TestSpawn_Kill(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	skipWithoutPtrace(t)

	c, err := Spawn(&forkexec.Runner{Args: []string{lookPath(t, "sleep"), "10"}})
	require.NoError(t, err)
	require.NoError(t, c.Kill())
	st, _, err := c.Wait()
	require.NoError(t, err)
	assert.Equal(t, Status{Kind: KindSignaled, Pid: c.Pid(), Signal: unix.SIGKILL}, st)
}

func TestSpawn_NotExist(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	skipWithoutPtrace(t)

	for name, l := range map[string]Launcher{
		"Runner":  &forkexec.Runner{Args: []string{"/nonexistent/program"}},
		"ExecCmd": ExecCmd(exec.Command("/nonexistent/program")),
	} {
		t.Run(name, func(t *testing.T) {
			w := &countingWaiter{}
			_, err := (&Spawner{Waiter: w}).Spawn(l)
			assert.ErrorIs(t, err, unix.ENOENT)
			assert.Zero(t, w.calls)

			var se *Error
			require.ErrorAs(t, err, &se)
			assert.Equal(t, OpStart, se.Op)
			assert.Zero(t, se.Pid)
		})
	}
}

func TestSpawn_TraceRequestDenied(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	skipWithoutPtrace(t)

	b := seccomp.Builder{Deny: []string{"ptrace"}}
	filter, err := b.Build()
	require.NoError(t, err)

	w := &countingWaiter{}
	_, err = (&Spawner{Waiter: w}).Spawn(&forkexec.Runner{
		Args:    []string{lookPath(t, "true")},
		Seccomp: filter.SockFprog(),
	})
	assert.Zero(t, w.calls)
	assert.ErrorIs(t, err, unix.EPERM)

	var ce forkexec.ChildError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, forkexec.LocPtraceMe, ce.Location)
}
