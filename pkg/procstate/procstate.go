// Package procstate reads the scheduler state of a process from procfs,
// used to observe that a spawned tracee is parked in its exec stop.
package procstate

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/process"
)

// State returns the process states reported by procfs (e.g. "stop", "sleep")
func State(ctx context.Context, pid int) ([]string, error) {
	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return nil, fmt.Errorf("procstate: %d: %w", pid, err)
	}
	st, err := p.StatusWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("procstate: %d status: %w", pid, err)
	}
	return st, nil
}

// IsStopped reports whether the process is in a stopped or tracing stop state
func IsStopped(ctx context.Context, pid int) (bool, error) {
	st, err := State(ctx, pid)
	if err != nil {
		return false, err
	}
	for _, s := range st {
		if s == process.Stop {
			return true, nil
		}
	}
	return false, nil
}
