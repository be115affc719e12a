package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/criyle/go-tracespawn/runner"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type options struct {
	Profile

	config        string
	tty           bool
	hold          bool
	result        string
	verbose       bool
	captureStderr runner.Size

	// ttyOut receives the pty output, os.Stdout if nil
	ttyOut io.Writer
}

func newRootCmd() *cobra.Command {
	o := new(options)
	cmd := &cobra.Command{
		Use:   "tracespawn [flags] -- <program> [args...]",
		Short: "Start a program stopped by ptrace right after execve",
		Long: `tracespawn starts a program with ptrace enabled and verifies that it is
stopped by SIGTRAP after execve, before its first instruction. The program is
then resumed until it exits, or left stopped for another tracer with --hold.

The result line is "<status> <time ms> <memory KiB> <exit status>".`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(o.verbose)
			if err := o.complete(cmd.Flags(), args); err != nil {
				logger.Error().Err(err).Msg("invalid arguments")
				return err
			}
			if err := execute(o, logger); err != nil {
				logger.Error().Err(err).Msg("tracespawn failed")
				return err
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.config, "config", "", "launch profile (.yaml, .yml or .toml), flags take precedence")
	f.StringArrayVar(&o.Env, "env", nil, "environment variable KEY=VALUE (repeatable)")
	f.StringVar(&o.WorkDir, "work-dir", "", "working directory of the program")
	f.StringVar(&o.Stdin, "in", "", "input file name")
	f.StringVar(&o.Stdout, "out", "", "output file name")
	f.StringVar(&o.Stderr, "err", "", "error file name")
	f.BoolVar(&o.Memfd, "memfd", false, "execute a sealed memfd copy of the program")
	f.StringVar(&o.Launcher, "launcher", "forkexec", "process launcher (forkexec, exec)")
	f.Uint64Var(&o.CPU, "cpu", 0, "CPU time limit in seconds (0 for none)")
	f.DurationVar(&o.Wall, "wall", 0, "kill the program after this wall time (0 for none)")
	f.Var(&o.Memory, "memory", "address space limit (e.g. 256m)")
	f.Var(&o.FileSize, "fsize", "output file size limit (e.g. 64m)")
	f.Var(&o.Stack, "stack", "stack size limit (e.g. 8m)")
	f.Uint64Var(&o.NoFile, "nofile", 0, "open file limit (0 for none)")
	f.StringArrayVar(&o.DenySyscalls, "deny-syscall", nil, "syscall failing with EPERM (repeatable)")
	f.BoolVar(&o.tty, "tty", false, "run the program on a new pseudo terminal")
	f.BoolVar(&o.hold, "hold", false, "detach leaving the program stopped and print its pid")
	f.Var(&o.captureStderr, "capture-stderr", "log at most this size of the program stderr when --err is not set")
	f.StringVar(&o.result, "result", "stdout", "result output (stdout, stderr or file name)")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "show debug logs")
	return cmd
}

var errNoProgram = errors.New("no program to run")

// complete merges the profile into options, explicitly set flags win
func (o *options) complete(flags *pflag.FlagSet, args []string) error {
	if o.config != "" {
		p, err := loadProfile(o.config)
		if err != nil {
			return err
		}
		o.merge(p, flags.Changed)
	}
	if len(args) > 0 {
		o.Args = args
	}
	if len(o.Args) == 0 {
		return errNoProgram
	}
	switch o.Launcher {
	case "forkexec":
	case "exec":
		if o.Memfd || o.CPU > 0 || o.Memory > 0 || o.FileSize > 0 || o.Stack > 0 || o.NoFile > 0 || len(o.DenySyscalls) > 0 {
			return fmt.Errorf("launcher exec does not support memfd, resource limits or seccomp")
		}
	default:
		return fmt.Errorf("invalid launcher: %q", o.Launcher)
	}
	if len(o.Env) == 0 {
		o.Env = []string{pathEnv}
	}
	return nil
}

func (o *options) merge(p *Profile, changed func(string) bool) {
	str := func(flag string, dst *string, v string) {
		if !changed(flag) && v != "" {
			*dst = v
		}
	}
	u64 := func(flag string, dst *uint64, v uint64) {
		if !changed(flag) && v != 0 {
			*dst = v
		}
	}
	list := func(flag string, dst *[]string, v []string) {
		if !changed(flag) && len(v) > 0 {
			*dst = v
		}
	}
	o.Args = p.Args
	list("env", &o.Env, p.Env)
	str("work-dir", &o.WorkDir, p.WorkDir)
	str("in", &o.Stdin, p.Stdin)
	str("out", &o.Stdout, p.Stdout)
	str("err", &o.Stderr, p.Stderr)
	str("launcher", &o.Launcher, p.Launcher)
	if !changed("memfd") && p.Memfd {
		o.Memfd = true
	}
	u64("cpu", &o.CPU, p.CPU)
	if !changed("wall") && p.Wall != 0 {
		o.Wall = p.Wall
	}
	u64("memory", (*uint64)(&o.Memory), uint64(p.Memory))
	u64("fsize", (*uint64)(&o.FileSize), uint64(p.FileSize))
	u64("stack", (*uint64)(&o.Stack), uint64(p.Stack))
	u64("nofile", &o.NoFile, p.NoFile)
	list("deny-syscall", &o.DenySyscalls, p.DenySyscalls)
}
