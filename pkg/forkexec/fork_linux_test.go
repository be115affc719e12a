package forkexec

import (
	"errors"
	"io"
	"os"
	"runtime"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func reap(t *testing.T, pid int) unix.WaitStatus {
	t.Helper()
	var ws unix.WaitStatus
	_, err := unix.Wait4(pid, &ws, 0, nil)
	for err == unix.EINTR {
		_, err = unix.Wait4(pid, &ws, 0, nil)
	}
	require.NoError(t, err)
	return ws
}

func copyEcho(t *testing.T) *os.File {
	t.Helper()
	f, err := os.CreateTemp("", "")
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(f.Name()) })
	require.NoError(t, f.Chmod(0777))

	echo, err := os.Open("/bin/echo")
	require.NoError(t, err)
	defer echo.Close()

	_, err = io.Copy(f, echo)
	require.NoError(t, err)
	return f
}

func TestFork_OK(t *testing.T) {
	t.Parallel()
	f := copyEcho(t)
	f.Close()

	r := Runner{
		Args: []string{f.Name()},
	}
	pid, err := r.Start()
	require.NoError(t, err)
	ws := reap(t, pid)
	assert.True(t, ws.Exited())
	assert.Equal(t, 0, ws.ExitStatus())
}

func TestFork_ETXTBSY(t *testing.T) {
	t.Parallel()
	f := copyEcho(t)
	defer f.Close()

	r := Runner{
		Args:     []string{f.Name()},
		ExecFile: f.Fd(),
	}
	_, err := r.Start()
	assert.True(t, errors.Is(err, syscall.ETXTBSY), "got %v", err)
}

func TestFork_NotExist(t *testing.T) {
	t.Parallel()
	r := Runner{
		Args: []string{"/nonexistent/program"},
	}
	pid, err := r.Start()
	assert.Zero(t, pid)

	var childErr ChildError
	require.True(t, errors.As(err, &childErr), "got %v", err)
	assert.Equal(t, LocExecve, childErr.Location)
	assert.True(t, errors.Is(err, syscall.ENOENT))
	assert.Equal(t, "execve: no such file or directory", err.Error())
}

func TestFork_WorkDirNotExist(t *testing.T) {
	t.Parallel()
	r := Runner{
		Args:    []string{"/bin/true"},
		WorkDir: "/nonexistent/dir",
	}
	_, err := r.Start()

	var childErr ChildError
	require.True(t, errors.As(err, &childErr), "got %v", err)
	assert.Equal(t, LocChdir, childErr.Location)
	assert.Equal(t, syscall.ENOENT, childErr.Err)
}

func TestFork_EmptyArgs(t *testing.T) {
	t.Parallel()
	_, err := (&Runner{}).Start()
	assert.Equal(t, syscall.EINVAL, err)
}

func TestFork_Ptrace(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	r := Runner{
		Args: []string{"/bin/true"},
	}
	r.SetPtrace()
	pid, err := r.Start()
	require.NoError(t, err)

	ws := reap(t, pid)
	require.True(t, ws.Stopped(), "status %v", ws)
	assert.Equal(t, unix.SIGTRAP, ws.StopSignal())

	require.NoError(t, unix.PtraceCont(pid, 0))
	ws = reap(t, pid)
	assert.True(t, ws.Exited())
	assert.Equal(t, 0, ws.ExitStatus())
}

func TestFork_Files(t *testing.T) {
	t.Parallel()
	out, err := os.CreateTemp("", "")
	require.NoError(t, err)
	defer os.Remove(out.Name())
	defer out.Close()

	r := Runner{
		Args:  []string{"/bin/echo", "hello"},
		Files: []uintptr{0, out.Fd(), 2},
	}
	pid, err := r.Start()
	require.NoError(t, err)
	reap(t, pid)

	b, err := os.ReadFile(out.Name())
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(b))
}

func TestErrorLocation_String(t *testing.T) {
	assert.Equal(t, "ptrace_me", LocPtraceMe.String())
	assert.Equal(t, "clone", LocClone.String())
	assert.Equal(t, "unknown", ErrorLocation(0).String())
	assert.Equal(t, "unknown", ErrorLocation(100).String())

	e := ChildError{Err: syscall.EPERM, Location: LocSetRlimit, Index: 2}
	assert.Equal(t, "setrlimit(2): operation not permitted", e.Error())
}
