package docker

import (
	"context"
	"fmt"
	"io"
	"os"
	osexec "os/exec"
	"path/filepath"
	"strings"

	"github.com/devscraper/fleet/pkg/exec"
)

const DefaultPlatform string = "linux/amd64"

// Docker wraps the docker CLI for the local build-and-push image flow.
type Docker interface {
	Login(ctx context.Context, loginServer string, username string, password string) error
	Build(
		ctx context.Context,
		cwd string,
		dockerFilePath string,
		platform string,
		buildContext string,
		tagName string,
		buildProgress io.Writer,
	) (string, error)
	Push(ctx context.Context, cwd string, tag string) error
	CheckInstalled(ctx context.Context) error
}

func NewDocker(commandRunner exec.CommandRunner) Docker {
	return &docker{
		commandRunner: commandRunner,
	}
}

type docker struct {
	commandRunner exec.CommandRunner
}

// Login authenticates against the registry. The password travels over stdin so it never
// appears in the process table.
func (d *docker) Login(ctx context.Context, loginServer string, username string, password string) error {
	runArgs := exec.NewRunArgs(
		"docker", "login",
		"--username", username,
		"--password-stdin",
		loginServer,
	).WithStdIn(strings.NewReader(password))

	_, err := d.commandRunner.Run(ctx, runArgs)
	if err != nil {
		return fmt.Errorf("failed logging into docker: %w", err)
	}

	return nil
}

// Build runs a docker build for a given Dockerfile, writing the output of docker build to
// buildProgress when it is not nil. If the platform is not specified (empty) it defaults to
// amd64. If the build is successful, the function returns the image id of the built image.
func (d *docker) Build(
	ctx context.Context,
	cwd string,
	dockerFilePath string,
	platform string,
	buildContext string,
	tagName string,
	buildProgress io.Writer,
) (string, error) {
	if strings.TrimSpace(platform) == "" {
		platform = DefaultPlatform
	}

	tmpFolder, err := os.MkdirTemp(os.TempDir(), "fleet-docker-build")
	defer func() {
		// fail to remove tmp files is not so bad as the OS will delete it
		// eventually
		_ = os.RemoveAll(tmpFolder)
	}()

	if err != nil {
		return "", fmt.Errorf("building image: %w", err)
	}
	imgIdFile := filepath.Join(tmpFolder, "imgId")

	args := []string{
		"build",
		"-f", dockerFilePath,
		"--platform", platform,
	}

	if tagName != "" {
		args = append(args, "-t", tagName)
	}

	args = append(args, buildContext)

	// create a file with the docker img id
	args = append(args, "--iidfile", imgIdFile)

	runArgs := exec.NewRunArgs("docker", args...).WithCwd(cwd)

	if buildProgress != nil {
		// setting stderr and stdout both, as it's been noticed
		// that docker log goes to stderr on macOS, but stdout on Ubuntu.
		runArgs = runArgs.WithStdOut(buildProgress).WithStdErr(buildProgress)
	}

	_, err = d.commandRunner.Run(ctx, runArgs)
	if err != nil {
		return "", fmt.Errorf("building image: %w", err)
	}

	imgId, err := os.ReadFile(imgIdFile)
	if err != nil {
		return "", fmt.Errorf("building image: %w", err)
	}
	return strings.TrimSpace(string(imgId)), nil
}

func (d *docker) Push(ctx context.Context, cwd string, tag string) error {
	runArgs := exec.NewRunArgs("docker", "push", tag).WithCwd(cwd)

	_, err := d.commandRunner.Run(ctx, runArgs)
	if err != nil {
		return fmt.Errorf("pushing image: %w", err)
	}

	return nil
}

func (d *docker) CheckInstalled(ctx context.Context) error {
	if _, err := osexec.LookPath("docker"); err != nil {
		return fmt.Errorf("docker is not installed or not on PATH: %w", err)
	}

	return nil
}
