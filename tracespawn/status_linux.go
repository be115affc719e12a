package tracespawn

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Kind classifies a status reported by wait4
type Kind int

// Kind of status report
const (
	// KindOther is a status that is none of the below (e.g. continued)
	KindOther Kind = iota
	// KindStopped means the process is stopped by a signal
	KindStopped
	// KindExited means the process exited with an exit code
	KindExited
	// KindSignaled means the process was terminated by a signal
	KindSignaled
)

var kindString = [...]string{
	"other",
	"stopped",
	"exited",
	"signaled",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindString) {
		return kindString[k]
	}
	return kindString[KindOther]
}

// Status is a classified status report of a process
type Status struct {
	Kind Kind
	Pid  int
	// Signal is the stop signal for KindStopped and the terminating signal
	// for KindSignaled
	Signal unix.Signal
	// ExitCode is valid for KindExited
	ExitCode int
}

// Classify converts the raw wait status reported for pid
func Classify(pid int, ws unix.WaitStatus) Status {
	switch {
	case ws.Stopped():
		return Status{Kind: KindStopped, Pid: pid, Signal: ws.StopSignal()}
	case ws.Exited():
		return Status{Kind: KindExited, Pid: pid, ExitCode: ws.ExitStatus()}
	case ws.Signaled():
		return Status{Kind: KindSignaled, Pid: pid, Signal: ws.Signal()}
	default:
		return Status{Kind: KindOther, Pid: pid}
	}
}

// IsExecStop reports whether the status is the SIGTRAP stop of pid
func (s Status) IsExecStop(pid int) bool {
	return s.Kind == KindStopped && s.Pid == pid && s.Signal == unix.SIGTRAP
}

func (s Status) String() string {
	switch s.Kind {
	case KindStopped:
		return fmt.Sprintf("stopped(%v, %d)", s.Signal, s.Pid)
	case KindExited:
		return fmt.Sprintf("exited(%d, %d)", s.Pid, s.ExitCode)
	case KindSignaled:
		return fmt.Sprintf("signaled(%d, %v)", s.Pid, s.Signal)
	default:
		return fmt.Sprintf("other(%d)", s.Pid)
	}
}
