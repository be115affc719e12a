package tracespawn

import (
	"golang.org/x/sys/unix"
)

// Waiter blocks until the status of pid changes and returns the pid
// the status was reported for
type Waiter interface {
	Wait(pid int) (int, unix.WaitStatus, error)
}

// WaitFunc adapts a function to Waiter
type WaitFunc func(pid int) (int, unix.WaitStatus, error)

// Wait calls f(pid)
func (f WaitFunc) Wait(pid int) (int, unix.WaitStatus, error) {
	return f(pid)
}

// Wait4 calls wait4(pid, &status, 0, NULL).
// EINTR is not a status report so the syscall is issued again
var Wait4 Waiter = WaitFunc(wait4)

func wait4(pid int) (int, unix.WaitStatus, error) {
	var ws unix.WaitStatus
	for {
		wpid, err := unix.Wait4(pid, &ws, 0, nil)
		if err != unix.EINTR {
			return wpid, ws, err
		}
	}
}
