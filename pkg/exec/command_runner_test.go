package exec

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCapturesOutput(t *testing.T) {
	runner := NewCommandRunner()

	res, err := runner.Run(context.Background(), NewRunArgs("sh", "-c", "echo hello"))
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "hello", strings.TrimSpace(res.Stdout))
}

func TestRunStdIn(t *testing.T) {
	runner := NewCommandRunner()

	args := NewRunArgs("sh", "-c", "cat").WithStdIn(strings.NewReader("from stdin"))
	res, err := runner.Run(context.Background(), args)
	require.NoError(t, err)
	assert.Equal(t, "from stdin", res.Stdout)
}

func TestRunExitError(t *testing.T) {
	runner := NewCommandRunner()

	res, err := runner.Run(context.Background(), NewRunArgs("sh", "-c", "echo oops >&2; exit 3"))
	require.Error(t, err)
	assert.Equal(t, 3, res.ExitCode)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.ExitCode)
	assert.Equal(t, "oops", exitErr.StderrOutput())
}

func TestRunArgsBuilder(t *testing.T) {
	args := NewRunArgs("docker", "build").
		AppendParams("-t", "img:latest").
		WithCwd("/src").
		WithEnv([]string{"FOO=bar"})

	assert.Equal(t, "docker", args.Cmd)
	assert.Equal(t, []string{"build", "-t", "img:latest"}, args.Args)
	assert.Equal(t, "/src", args.Cwd)
	assert.Equal(t, []string{"FOO=bar"}, args.Env)
}
