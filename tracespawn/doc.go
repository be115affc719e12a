// Package tracespawn spawns a child process under ptrace and returns it only
// once it is verified to be stopped by SIGTRAP right after execve, before the
// first instruction of the new program runs.
//
// # Protocol
//
// Spawn attaches the ptrace(PTRACE_TRACEME) request to the launch
// configuration, starts the process, performs exactly one blocking wait4 on
// its pid and classifies the reported status:
//
//	Unstarted -> Created -> WaitedOn -> VerifiedStopped | Rejected
//
// Only a stop by SIGTRAP for the spawned pid yields a Child. Every other
// status is rejected with ErrChildState and the process is left as is: its
// pid is carried by the returned *Error and it is up to the caller to kill and
// reap it. There is no timeout; a caller needing one kills the pid from a
// watchdog.
//
// # Threads
//
// ptrace relationships belong to the OS thread that forked the tracee. The
// caller must call runtime.LockOSThread before Spawn and keep the goroutine
// locked while it uses the Child.
package tracespawn
