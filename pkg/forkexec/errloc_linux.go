package forkexec

import (
	"errors"
	"fmt"
	"syscall"
)

// ErrorLocation defines the location where child process failed to exec
type ErrorLocation int

// ChildError defines the specific error and location where it failed.
// It is written as is on the socket pair so it must stay a fixed size value
type ChildError struct {
	Err      syscall.Errno
	Location ErrorLocation
	Index    int
}

// Location constants
const (
	LocClone ErrorLocation = iota + 1
	LocCloseWrite
	LocDup3
	LocFcntl
	LocSetSid
	LocIoctl
	LocChdir
	LocSetRlimit
	LocSetNoNewPrivs
	LocSeccomp
	LocPtraceMe
	LocExecve
)

var locToString = []string{
	"unknown",
	"clone",
	"close_write",
	"dup3",
	"fcntl",
	"setsid",
	"ioctl",
	"chdir",
	"setrlimit",
	"set_no_new_privs",
	"seccomp",
	"ptrace_me",
	"execve",
}

// ErrChildNoStatus is returned when the child closed the status channel
// without replacing its image and without reporting a failing step
var ErrChildNoStatus = errors.New("forkexec: child exited without reporting status")

func (e ErrorLocation) String() string {
	if e >= LocClone && e <= LocExecve {
		return locToString[e]
	}
	return "unknown"
}

func (e ChildError) Error() string {
	if e.Index > 0 {
		return fmt.Sprintf("%s(%d): %s", e.Location.String(), e.Index, e.Err.Error())
	}
	return fmt.Sprintf("%s: %s", e.Location.String(), e.Err.Error())
}

// Unwrap returns the errno so errors.Is(err, syscall.EPERM) matches
func (e ChildError) Unwrap() error {
	return e.Err
}
