// Package ports defines the interfaces plugmirror uses to reach the outside
// world: the network, the HTML parser, subprocesses, and the log sink.
package ports

import (
	"context"
)

// CommandResult is the outcome of one subprocess invocation.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success returns true if the command exited with code 0.
func (r CommandResult) Success() bool {
	return r.ExitCode == 0
}

// CommandCall records a command invocation.
type CommandCall struct {
	Command string
	Args    []string
}

// CommandRunner executes external programs.
// A non-zero exit is reported through CommandResult, not as an error;
// errors mean the program could not be run at all.
type CommandRunner interface {
	Run(ctx context.Context, command string, args ...string) (CommandResult, error)
}
