package docker

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devscraper/fleet/pkg/exec"
)

type recordingRunner struct {
	calls []exec.RunArgs
}

func (r *recordingRunner) Run(ctx context.Context, args exec.RunArgs) (exec.RunResult, error) {
	r.calls = append(r.calls, args)
	return exec.NewRunResult(0, "", ""), nil
}

func TestLoginSendsPasswordOverStdin(t *testing.T) {
	runner := &recordingRunner{}
	d := NewDocker(runner)

	err := d.Login(context.Background(), "scraperacr123.azurecr.io", "scraperacr123", "hunter2")
	require.NoError(t, err)
	require.Len(t, runner.calls, 1)

	call := runner.calls[0]
	assert.Equal(t, "docker", call.Cmd)
	assert.Equal(t, []string{
		"login", "--username", "scraperacr123", "--password-stdin", "scraperacr123.azurecr.io",
	}, call.Args)
	assert.NotContains(t, call.Args, "hunter2")

	stdin, err := io.ReadAll(call.StdIn)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", string(stdin))
}

func TestPush(t *testing.T) {
	runner := &recordingRunner{}
	d := NewDocker(runner)

	err := d.Push(context.Background(), ".", "scraperacr123.azurecr.io/scraper-worker:latest")
	require.NoError(t, err)
	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{"push", "scraperacr123.azurecr.io/scraper-worker:latest"}, runner.calls[0].Args)
}

func TestBuildArgs(t *testing.T) {
	runner := &recordingRunner{}
	d := NewDocker(runner)

	// the --iidfile read fails since nothing ran docker, but the issued args are still recorded
	_, err := d.Build(context.Background(), ".", "./Dockerfile", "", ".", "scraper-worker:latest", nil)
	require.Error(t, err)
	require.Len(t, runner.calls, 1)

	args := runner.calls[0].Args
	assert.Equal(t, "build", args[0])
	assert.Contains(t, args, "--platform")
	assert.Contains(t, args, DefaultPlatform)
	assert.Contains(t, args, "-t")
	assert.Contains(t, args, "scraper-worker:latest")
}
