package forkexec

import (
	"syscall"

	"github.com/criyle/go-tracespawn/pkg/rlimit"
)

// Runner is the launch configuration including the exec path, argv
// and resource limits. It creates the tracee for a ptrace-based tracer.
type Runner struct {
	// argv and env for execve syscall for the child process
	Args []string
	Env  []string

	// if exec_fd is defined, then at the end, execveat(fd, "", AT_EMPTY_PATH) is called
	ExecFile uintptr

	// POSIX Resource limit set by prlimit
	RLimits []rlimit.RLimit

	// file descriptors map for new process, from 0 to len - 1
	Files []uintptr

	// work path set by chdir(dir) (current working directory for child)
	WorkDir string

	// seccomp syscall filter applied to child right before ptrace(PTRACE_TRACEME).
	// Filters must allow execve / execveat, and must not use SECCOMP_RET_TRACE
	// since PTRACE_O_TRACESECCOMP is never set on the tracee
	Seccomp *syscall.SockFprog

	// no_new_privs calls prctl(PR_SET_NO_NEW_PRIVS) to disable calls to
	// setuid processes. It is automatically enabled when seccomp filter is provided
	NoNewPrivs bool

	// CTTY specifies if set the fd 0 as controlling TTY
	CTTY bool

	// ptrace controls child process to call ptrace(PTRACE_TRACEME) as the last
	// step before execve, so that the child stops with SIGTRAP once execve succeeded.
	// runtime.LockOSThread is required for tracer to call ptrace syscalls
	Ptrace bool
}

// SetPtrace enables the ptrace(PTRACE_TRACEME) request before execve
func (r *Runner) SetPtrace() {
	r.Ptrace = true
}
