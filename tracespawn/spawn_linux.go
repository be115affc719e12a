package tracespawn

import (
	"time"

	"github.com/rs/zerolog"
)

// Spawner runs the spawn-and-verify protocol
type Spawner struct {
	// Waiter performs the single status wait, Wait4 if nil
	Waiter Waiter

	// Logger receives debug events for each protocol step, disabled if nil
	Logger *zerolog.Logger
}

var defaultSpawner Spawner

// Spawn spawns l with the default Spawner
func Spawn(l Launcher) (*Child, error) {
	return defaultSpawner.Spawn(l)
}

// Spawn enables ptrace on l, starts it and waits exactly once for the new
// pid. It returns the Child only if the wait reports a stop by SIGTRAP for
// that pid.
//
// Errors are *Error:
//   - OpStart: the launch failed and no process is left behind. The error
//     keeps its errno, or wraps ErrUnknownTraceRequest if it has none
//   - OpWait: wait4 failed, the errno is kept
//   - OpVerify: ErrChildState with the observed Status
//
// For OpWait and OpVerify the process is not cleaned up.
func (s *Spawner) Spawn(l Launcher) (*Child, error) {
	logger := s.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	waiter := s.Waiter
	if waiter == nil {
		waiter = Wait4
	}

	l.SetPtrace()
	t := time.Now()
	pid, err := l.Start()
	if err != nil {
		logger.Debug().Err(err).Msg("tracespawn: start failed")
		return nil, &Error{Op: OpStart, Err: startError(err)}
	}
	logger.Debug().Int("pid", pid).Dur("setup", time.Since(t)).Msg("tracespawn: created")

	wpid, ws, err := waiter.Wait(pid)
	if err != nil {
		logger.Debug().Int("pid", pid).Err(err).Msg("tracespawn: wait failed")
		return nil, &Error{Op: OpWait, Pid: pid, Err: err}
	}
	st := Classify(wpid, ws)
	logger.Debug().Int("pid", pid).Stringer("status", st).Msg("tracespawn: waited")

	switch st.Kind {
	case KindStopped:
		if st.IsExecStop(pid) {
			logger.Debug().Int("pid", pid).Stringer("status", st).Msg("tracespawn: verified")
			return &Child{pid: pid, stop: st}, nil
		}
	case KindExited, KindSignaled, KindOther:
		// rejected below
	}
	logger.Debug().Int("pid", pid).Stringer("status", st).Msg("tracespawn: rejected")
	return nil, &Error{Op: OpVerify, Pid: pid, Status: st, Err: ErrChildState}
}
