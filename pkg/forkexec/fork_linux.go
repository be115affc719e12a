package forkexec

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Start will fork, apply the launch configuration, request ptrace if set
// and execve. It returns only after execve succeeded (or failed) in the child.
// Return pid and potential error. When Ptrace is set, the child is stopped
// by SIGTRAP once Start returns and it is up to the caller to wait for it.
// The runtime OS thread must be locked before calling this function
// if ptrace is set to true
func (r *Runner) Start() (int, error) {
	if len(r.Args) == 0 {
		return 0, syscall.EINVAL
	}
	argv0, argv, env, err := prepareExec(r.Args, r.Env)
	if err != nil {
		return 0, err
	}

	// prepare work dir
	workdir, err := syscallStringFromString(r.WorkDir)
	if err != nil {
		return 0, err
	}

	// socketpair p is used by the child to report the failing step.
	// Both ends are close_on_exec so a successful execve closes the child end.
	// p[0] is used by parent and p[1] is used by child
	p, err := syscall.Socketpair(syscall.AF_LOCAL, syscall.SOCK_STREAM|syscall.SOCK_CLOEXEC, 0)
	if err != nil {
		return 0, err
	}

	// fork in child
	pid, err1 := forkAndExecInChild(r, argv0, argv, env, workdir, p)

	// restore all signals
	afterFork()
	syscall.ForkLock.Unlock()

	return syncWithChild(p, int(pid), err1)
}

func syncWithChild(p [2]int, pid int, err1 syscall.Errno) (int, error) {
	unix.Close(p[1])

	// clone syscall failed
	if err1 != 0 {
		unix.Close(p[0])
		return 0, ChildError{Err: err1, Location: LocClone}
	}

	// EOF means execve succeeded, otherwise child reports the failed step
	err := readChildStatus(p[0])
	unix.Close(p[0])
	if err != nil {
		handleChildFailed(pid)
		return 0, err
	}
	return pid, nil
}

// readChildStatus reads the status reported by child until EOF
func readChildStatus(fd int) error {
	var (
		childErr ChildError
		r1       uintptr
		err1     syscall.Errno
	)
	for {
		r1, _, err1 = syscall.RawSyscall(syscall.SYS_READ, uintptr(fd), uintptr(unsafe.Pointer(&childErr)), unsafe.Sizeof(childErr))
		if err1 != syscall.EINTR {
			break
		}
	}
	switch {
	case err1 != 0:
		return err1
	case r1 == 0:
		return nil
	case r1 == unsafe.Sizeof(childErr) && childErr.Err != 0:
		return childErr
	default:
		return ErrChildNoStatus
	}
}

func handleChildFailed(pid int) {
	var wstatus syscall.WaitStatus
	// make sure not blocked
	syscall.Kill(pid, syscall.SIGKILL)
	// child failed; wait for it to exit, to make sure the zombies don't accumulate
	_, err := syscall.Wait4(pid, &wstatus, 0, nil)
	for err == syscall.EINTR {
		_, err = syscall.Wait4(pid, &wstatus, 0, nil)
	}
}
