package exec

import (
	"io"
)

// RunArgs exposes the command, arguments and other options when running console/shell commands
type RunArgs struct {
	Cmd  string
	Args []string
	Cwd  string
	Env  []string

	// Stdout will receive a copy of the text written to stdout by the command.
	// NOTE: RunResult.Stdout will still contain stdout output.
	Stdout io.Writer

	// Stderr will receive a copy of the text written to stderr by the command.
	// NOTE: RunResult.Stderr will still contain stderr output.
	Stderr io.Writer

	// When set will call the command with the specified StdIn
	StdIn io.Reader
}

// NewRunArgs creates a new instance with the specified cmd and args
func NewRunArgs(cmd string, args ...string) RunArgs {
	return RunArgs{
		Cmd:  cmd,
		Args: args,
	}
}

// AppendParams appends additional command params
func (b RunArgs) AppendParams(params ...string) RunArgs {
	b.Args = append(b.Args, params...)
	return b
}

// WithCwd updates the current working directory (cwd) for the command
func (b RunArgs) WithCwd(cwd string) RunArgs {
	b.Cwd = cwd
	return b
}

// WithEnv updates the environment variables used for the command
func (b RunArgs) WithEnv(env []string) RunArgs {
	b.Env = env
	return b
}

// WithStdIn updates the stdin reader that will be used while invoking the command
func (b RunArgs) WithStdIn(stdIn io.Reader) RunArgs {
	b.StdIn = stdIn
	return b
}

// WithStdOut updates the writer that receives a copy of stdout while invoking the command
func (b RunArgs) WithStdOut(stdout io.Writer) RunArgs {
	b.Stdout = stdout
	return b
}

// WithStdErr updates the writer that receives a copy of stderr while invoking the command
func (b RunArgs) WithStdErr(stderr io.Writer) RunArgs {
	b.Stderr = stderr
	return b
}
