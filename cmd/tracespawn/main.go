// Command tracespawn starts a program stopped under ptrace right after
// execve, then either resumes it until exit or hands it over to another
// tracer.
package main

import (
	"os"
)

const (
	pathEnv = "PATH=/usr/local/bin:/usr/bin:/bin"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
