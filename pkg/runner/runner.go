// Package runner provides a narrow capability for invoking external
// command-line tools: run a command, capture stdout, stderr, and the exit
// code. Packages that orchestrate external binaries (git, snap, unsquashfs)
// take a Runner so tests can substitute a fake and assert on the exact
// argument lists without spawning processes.
package runner

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// Result holds the captured output of a finished command.
//
// A non-zero ExitCode is not reported as an error by Run; callers decide
// what a failed invocation means for them.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Output returns the most useful diagnostic text from the result: stderr
// when the command wrote any, otherwise stdout.
func (r Result) Output() string {
	if r.Stderr != "" {
		return r.Stderr
	}
	return r.Stdout
}

type Runner interface {
	// Run executes name with args and blocks until it exits. An error is
	// returned only when the command could not be started (for example the
	// binary is not installed); command failure is conveyed via ExitCode.
	Run(ctx context.Context, name string, args ...string) (Result, error)

	// RunInput is Run with data supplied on the command's stdin.
	RunInput(ctx context.Context, input []byte, name string, args ...string) (Result, error)
}

// Exec returns a Runner that spawns real processes.
func Exec() Runner {
	return execRunner{}
}

type execRunner struct{}

var _ Runner = execRunner{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	return run(ctx, nil, name, args)
}

func (execRunner) RunInput(ctx context.Context, input []byte, name string, args ...string) (Result, error) {
	return run(ctx, input, name, args)
}

func run(ctx context.Context, input []byte, name string, args []string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if input != nil {
		cmd.Stdin = bytes.NewReader(input)
	}

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, err
	}
	return res, nil
}
