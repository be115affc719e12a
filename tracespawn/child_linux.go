package tracespawn

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// Child is a process verified to be stopped by SIGTRAP right after execve.
//
// The caller owns the process. It must resume, detach or kill it and reap
// it afterwards, from the same locked OS thread that spawned it
type Child struct {
	pid  int
	stop Status
}

// Pid returns the pid of the traced child
func (c *Child) Pid() int {
	return c.pid
}

// StopStatus returns the status observed by the verifying wait
func (c *Child) StopStatus() Status {
	return c.stop
}

// Continue resumes the child, delivering sig unless it is 0
func (c *Child) Continue(sig unix.Signal) error {
	return ptrace(syscall.PTRACE_CONT, c.pid, 0, uintptr(sig))
}

// Detach releases the child from tracing and delivers sig unless it is 0.
// Detaching with SIGSTOP leaves the child stopped for another tracer to attach
func (c *Child) Detach(sig unix.Signal) error {
	return ptrace(syscall.PTRACE_DETACH, c.pid, 0, uintptr(sig))
}

// Kill sends SIGKILL to the child
func (c *Child) Kill() error {
	return unix.Kill(c.pid, unix.SIGKILL)
}

// Wait waits for the next status change of the child and returns it
// together with the resource usage when the child terminated
func (c *Child) Wait() (Status, *unix.Rusage, error) {
	var (
		ws   unix.WaitStatus
		ru   unix.Rusage
		wpid int
		err  error
	)
	for {
		wpid, err = unix.Wait4(c.pid, &ws, 0, &ru)
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		return Status{}, nil, err
	}
	return Classify(wpid, ws), &ru, nil
}
