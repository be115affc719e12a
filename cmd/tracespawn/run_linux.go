package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/creack/pty"
	"github.com/criyle/go-tracespawn/pkg/forkexec"
	"github.com/criyle/go-tracespawn/pkg/memfd"
	"github.com/criyle/go-tracespawn/pkg/pipe"
	"github.com/criyle/go-tracespawn/pkg/procstate"
	"github.com/criyle/go-tracespawn/pkg/rlimit"
	"github.com/criyle/go-tracespawn/pkg/seccomp"
	"github.com/criyle/go-tracespawn/runner"
	"github.com/criyle/go-tracespawn/tracespawn"
	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

func execute(o *options, logger zerolog.Logger) error {
	out, closeOut, err := openResult(o.result)
	if err != nil {
		return err
	}
	defer closeOut()

	// ptrace requests must come from the thread that spawned the tracee
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	rt, err := start(o, out, logger)
	if rt == nil {
		return err
	}
	logger.Debug().Stringer("result", rt).Msg("finished")
	if err == nil && rt.Status == runner.StatusRunnerError {
		err = errors.New(rt.Error)
	}
	fmt.Fprintf(out, "%d %d %d %d\n", int(rt.Status), int(rt.Time/time.Millisecond), rt.Memory.KiB(), rt.ExitStatus)
	return err
}

// start returns nil result when the program was held for another tracer
func start(o *options, out io.Writer, logger zerolog.Logger) (*runner.Result, error) {
	files, err := prepareFiles(o.Stdin, o.Stdout, o.Stderr)
	if err != nil {
		return failed(fmt.Errorf("failed to prepare files: %w", err))
	}
	defer closeFiles(files)

	var stderr *pipe.Buffer
	if o.captureStderr > 0 && files[2] == nil {
		if stderr, err = pipe.NewBuffer(int64(o.captureStderr)); err != nil {
			return failed(fmt.Errorf("failed to create stderr pipe: %w", err))
		}
		files[2] = stderr.W
	}

	var (
		tty     *os.File
		ttyDone chan struct{}
	)
	if o.tty {
		var ptmx *os.File
		if ptmx, tty, err = pty.Open(); err != nil {
			return failed(fmt.Errorf("failed to open pty: %w", err))
		}
		defer ptmx.Close()
		defer tty.Close()
		for i := range files {
			if files[i] == nil {
				files[i] = tty
			}
		}
		ttyOut := o.ttyOut
		if ttyOut == nil {
			ttyOut = os.Stdout
		}
		// ends with EIO once every copy of the tty end is closed
		ttyDone = make(chan struct{})
		go func() {
			defer close(ttyDone)
			io.Copy(ttyOut, ptmx)
		}()
		go io.Copy(ptmx, os.Stdin)
	}

	l, cleanup, err := newLauncher(o, stdFiles(files), logger)
	if err != nil {
		return failed(err)
	}
	defer cleanup()

	sp := tracespawn.Spawner{Logger: &logger}
	sTime := time.Now()
	c, err := sp.Spawn(l)
	if err != nil {
		var se *tracespawn.Error
		if errors.As(err, &se) && se.Pid > 0 {
			killAndReap(se.Pid)
		}
		return failed(err)
	}
	rTime := time.Now()
	if tty != nil {
		tty.Close()
	}

	if st, err := procstate.State(context.Background(), c.Pid()); err == nil {
		logger.Debug().Int("pid", c.Pid()).Strs("state", st).Msg("exec stop")
	}

	if o.hold {
		if err := c.Detach(unix.SIGSTOP); err != nil {
			c.Kill()
			c.Wait()
			return failed(fmt.Errorf("detach: %w", err))
		}
		logger.Info().Int("pid", c.Pid()).Msg("held stopped")
		fmt.Fprintln(out, c.Pid())
		return nil, nil
	}

	rt, err := follow(c, o.Wall, logger)
	rt.SetUpTime = rTime.Sub(sTime)
	rt.RunningTime = time.Since(rTime)
	if ttyDone != nil {
		<-ttyDone
	}
	if stderr != nil {
		stderr.Wait()
		logger.Info().Bool("truncated", stderr.Truncated()).Msgf("stderr: %s", stderr.Bytes())
	}
	return &rt, err
}

func failed(err error) (*runner.Result, error) {
	return &runner.Result{Status: runner.StatusRunnerError, Error: err.Error()}, err
}

// newLauncher creates the launcher and the cleanup for its resources
func newLauncher(o *options, files []*os.File, logger zerolog.Logger) (tracespawn.Launcher, func(), error) {
	args := append([]string(nil), o.Args...)
	if !strings.Contains(args[0], "/") {
		p, err := exec.LookPath(args[0])
		if err != nil {
			return nil, nil, err
		}
		args[0] = p
	}

	if o.Launcher == "exec" {
		cmd := exec.Command(args[0], args[1:]...)
		cmd.Env = o.Env
		cmd.Dir = o.WorkDir
		cmd.Stdin, cmd.Stdout, cmd.Stderr = files[0], files[1], files[2]
		cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true, Setctty: o.tty}
		return tracespawn.ExecCmd(cmd), func() {}, nil
	}

	var (
		execFile uintptr
		cleanup  = func() {}
	)
	if o.Memfd {
		f, err := memfd.DupFile(args[0])
		if err != nil {
			return nil, nil, err
		}
		cleanup = func() { f.Close() }
		execFile = f.Fd()
		logger.Debug().Uint64("fd", uint64(execFile)).Msg("memfd")
	}

	rlims := rlimit.RLimits{
		CPU:          o.CPU,
		AddressSpace: o.Memory.Byte(),
		FileSize:     o.FileSize.Byte(),
		Stack:        o.Stack.Byte(),
		OpenFile:     o.NoFile,
		DisableCore:  true,
	}
	logger.Debug().Stringer("rlimit", rlims).Msg("resource limits")

	var filter *syscall.SockFprog
	if len(o.DenySyscalls) > 0 {
		b := seccomp.Builder{Deny: o.DenySyscalls}
		f, err := b.Build()
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		filter = f.SockFprog()
	}

	fds := make([]uintptr, len(files))
	for i, f := range files {
		fds[i] = f.Fd()
	}
	return &forkexec.Runner{
		Args:     args,
		Env:      o.Env,
		ExecFile: execFile,
		RLimits:  rlims.PrepareRLimit(),
		Files:    fds,
		WorkDir:  o.WorkDir,
		Seccomp:  filter,
		CTTY:     o.tty,
	}, cleanup, nil
}

// follow resumes the child and forwards signal-delivery stops until it
// terminates. The child is killed on interrupt or when wall time is exceeded
func follow(c *tracespawn.Child, wall time.Duration, logger zerolog.Logger) (runner.Result, error) {
	var (
		timedOut    atomic.Bool
		interrupted atomic.Bool
	)
	if wall > 0 {
		t := time.AfterFunc(wall, func() {
			timedOut.Store(true)
			c.Kill()
		})
		defer t.Stop()
	}

	// gracefully shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, unix.SIGTERM)
	defer signal.Stop(sigCh)
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-sigCh:
			interrupted.Store(true)
			c.Kill()
		case <-done:
		}
	}()

	var sig unix.Signal
	for {
		if err := c.Continue(sig); err != nil && !errors.Is(err, unix.ESRCH) {
			c.Kill()
			c.Wait()
			return runner.Result{Status: runner.StatusRunnerError, Error: err.Error()}, err
		}
		st, ru, err := c.Wait()
		if err != nil {
			return runner.Result{Status: runner.StatusRunnerError, Error: err.Error()}, err
		}
		logger.Debug().Stringer("status", st).Msg("wait")

		switch st.Kind {
		case tracespawn.KindStopped:
			sig = st.Signal
			// a later execve in the tracee reports SIGTRAP again
			if sig == unix.SIGTRAP {
				sig = 0
			}
			continue
		case tracespawn.KindOther:
			sig = 0
			continue
		case tracespawn.KindExited, tracespawn.KindSignaled:
		}

		rt := runner.Result{
			Time:   time.Duration(ru.Utime.Nano()),
			Memory: runner.Size(ru.Maxrss) << 10,
		}
		switch {
		case interrupted.Load():
			rt.Status = runner.StatusRunnerError
			rt.Error = "interrupted"
		case timedOut.Load():
			rt.Status = runner.StatusTimeLimitExceeded
		case st.Kind == tracespawn.KindExited:
			rt.ExitStatus = st.ExitCode
			rt.Status = runner.StatusNormal
			if st.ExitCode != 0 {
				rt.Status = runner.StatusNonzeroExitStatus
			}
		default:
			rt.ExitStatus = int(st.Signal)
			rt.Status = signalStatus(st.Signal)
		}
		return rt, nil
	}
}

func signalStatus(sig unix.Signal) runner.Status {
	switch sig {
	case unix.SIGXCPU:
		return runner.StatusTimeLimitExceeded
	case unix.SIGXFSZ:
		return runner.StatusOutputLimitExceeded
	case unix.SIGSYS:
		return runner.StatusDisallowedSyscall
	default:
		return runner.StatusSignalled
	}
}

func killAndReap(pid int) {
	var ws unix.WaitStatus
	unix.Kill(pid, unix.SIGKILL)
	for {
		if _, err := unix.Wait4(pid, &ws, 0, nil); err != unix.EINTR {
			return
		}
	}
}
