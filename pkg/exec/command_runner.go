package exec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	osexec "os/exec"
	"strings"
)

// CommandRunner exposes the contract for executing console/shell commands for the specified runArgs
type CommandRunner interface {
	Run(ctx context.Context, args RunArgs) (RunResult, error)
}

// NewCommandRunner creates a new default instance of the CommandRunner.
func NewCommandRunner() CommandRunner {
	return &commandRunner{}
}

// commandRunner is the default private implementation of the CommandRunner interface.
// This implementation executes actual commands on the underlying console/shell.
type commandRunner struct{}

// Run runs the command specified in 'args'.
//
// Returns a RunResult that is the result of the command. If the underlying command exits
// unsuccessfully, *ExitError is returned. Other possible errors would likely be I/O errors or
// context cancellation.
func (r *commandRunner) Run(ctx context.Context, args RunArgs) (RunResult, error) {
	cmd := osexec.CommandContext(ctx, args.Cmd, args.Args...)
	cmd.Dir = args.Cwd

	if len(args.Env) > 0 {
		cmd.Env = append(cmd.Environ(), args.Env...)
	}

	if args.StdIn != nil {
		cmd.Stdin = args.StdIn
	} else {
		cmd.Stdin = new(bytes.Buffer)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if args.Stdout != nil {
		cmd.Stdout = io.MultiWriter(args.Stdout, &stdout)
	}

	if args.Stderr != nil {
		cmd.Stderr = io.MultiWriter(args.Stderr, &stderr)
	}

	if err := cmd.Start(); err != nil {
		return RunResult{}, fmt.Errorf("starting '%s': %w", args.Cmd, err)
	}

	err := cmd.Wait()

	result := RunResult{
		ExitCode: cmd.ProcessState.ExitCode(),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}

	log.Printf("run exec: '%s %s', exit code: %d", args.Cmd, strings.Join(args.Args, " "), result.ExitCode)

	var exitErr *osexec.ExitError
	if errors.As(err, &exitErr) {
		err = newExitError(exitErr, args.Cmd, strings.TrimSpace(result.Stderr))
	} else if err != nil {
		err = fmt.Errorf("running '%s': %w", args.Cmd, err)
	}

	return result, err
}
