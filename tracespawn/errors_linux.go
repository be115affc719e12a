package tracespawn

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Op is the protocol step that failed
type Op string

// Protocol steps reported by Error
const (
	OpStart  Op = "start"
	OpWait   Op = "wait"
	OpVerify Op = "verify"
)

var (
	// ErrChildState is returned when the wait succeeded but the child is not
	// stopped by SIGTRAP
	ErrChildState = errors.New("child state not correct")

	// ErrUnknownTraceRequest is returned when the launch failed with an error
	// that carries no OS error code
	ErrUnknownTraceRequest = errors.New("unknown PTRACE_TRACEME error")
)

// Error is the error returned by Spawn.
// Pid is set once a process was created. That process is not cleaned up and
// the caller is responsible to kill and reap it
type Error struct {
	Op     Op
	Pid    int
	Status Status // reported status for OpVerify
	Err    error
}

func (e *Error) Error() string {
	switch e.Op {
	case OpVerify:
		return fmt.Sprintf("tracespawn: %s pid %d: %v: %v", e.Op, e.Pid, e.Err, e.Status)
	case OpWait:
		return fmt.Sprintf("tracespawn: %s pid %d: %v", e.Op, e.Pid, e.Err)
	default:
		return fmt.Sprintf("tracespawn: %s: %v", e.Op, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errno returns the OS error code carried by the error, if any
func (e *Error) Errno() (unix.Errno, bool) {
	var errno unix.Errno
	if errors.As(e.Err, &errno) {
		return errno, true
	}
	return 0, false
}

// startError keeps errors carrying an errno and marks the others unknown
func startError(err error) error {
	var errno unix.Errno
	if errors.As(err, &errno) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUnknownTraceRequest, err)
}
