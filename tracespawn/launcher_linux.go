package tracespawn

import (
	"os/exec"
	"syscall"

	"github.com/criyle/go-tracespawn/pkg/forkexec"
)

// Launcher is the launch configuration consumed by one Spawn call
type Launcher interface {
	// SetPtrace attaches the PTRACE_TRACEME request to run in the child after
	// fork and before execve. If the request fails in the child, Start
	// must fail with that error
	SetPtrace()

	// Start creates the process and returns its pid once the new program
	// image replaced the child
	Start() (int, error)
}

var _ Launcher = (*forkexec.Runner)(nil)

// ExecCmd adapts an unstarted exec.Cmd to Launcher.
//
// Stdin, Stdout and Stderr should be *os.File, otherwise the copying
// goroutines of exec.Cmd only finish after the process terminates and the
// caller calls cmd.Wait
func ExecCmd(cmd *exec.Cmd) Launcher {
	return &execCmd{cmd: cmd}
}

type execCmd struct {
	cmd *exec.Cmd
}

func (c *execCmd) SetPtrace() {
	if c.cmd.SysProcAttr == nil {
		c.cmd.SysProcAttr = new(syscall.SysProcAttr)
	}
	c.cmd.SysProcAttr.Ptrace = true
}

func (c *execCmd) Start() (int, error) {
	if err := c.cmd.Start(); err != nil {
		return 0, err
	}
	return c.cmd.Process.Pid, nil
}
