// Package forkexec provides interface to start a subprocess with rlimit,
// seccomp filter and ptrace(PTRACE_TRACEME) applied between fork and execve.
//
// The child performs all setup with raw syscalls and reports the first
// failing step to the parent through a close-on-exec socket pair, so that
// Start either returns a pid whose image has been replaced, or an error.
//
// seccomp requires kernel >= 3.5
// execveat requires kernel >= 3.19
// prlimit64 requires kernel >= 2.6.36
package forkexec
