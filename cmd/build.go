package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/containerregistry/armcontainerregistry"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/devscraper/fleet/pkg/containerregistry"
	"github.com/devscraper/fleet/pkg/exec"
	"github.com/devscraper/fleet/pkg/fleet"
	"github.com/devscraper/fleet/pkg/output"
	"github.com/devscraper/fleet/pkg/tools/docker"
)

type buildFlags struct {
	remote       bool
	buildContext string
	dockerfile   string
}

func (f *buildFlags) Bind(local *pflag.FlagSet) {
	local.BoolVar(&f.remote, "remote", false,
		"Build in the registry with ACR Tasks instead of running docker locally.")
	local.StringVar(&f.buildContext, "context", ".", "Docker build context directory.")
	local.StringVar(&f.dockerfile, "dockerfile", "", "Path to the Dockerfile. Defaults to <context>/Dockerfile.")
}

func newBuildCmd(global *globalFlags) *cobra.Command {
	flags := &buildFlags{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the worker image and push it to the registry",
		Long: `Build the scraper worker image and make it available in the provisioned registry.

By default the image is built with the local docker daemon and pushed. With --remote the
build context is uploaded and built inside the registry (ACR Tasks), which avoids needing
docker installed locally.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, global, flags)
		},
	}

	flags.Bind(cmd.Flags())
	return cmd
}

func runBuild(cmd *cobra.Command, global *globalFlags, flags *buildFlags) error {
	ctx := cmd.Context()
	stdout := cmd.OutOrStdout()

	session, err := newSession(ctx, global)
	if err != nil {
		return err
	}
	env := &session.env

	// Resolve both paths up front: the packer and the docker invocation below each
	// interpret paths against their own base directory.
	buildContext, err := filepath.Abs(flags.buildContext)
	if err != nil {
		return fmt.Errorf("resolving build context %s: %w", flags.buildContext, err)
	}

	dockerfile := flags.dockerfile
	if dockerfile == "" {
		dockerfile = filepath.Join(buildContext, "Dockerfile")
	} else if !filepath.IsAbs(dockerfile) {
		dockerfile, err = filepath.Abs(dockerfile)
		if err != nil {
			return fmt.Errorf("resolving dockerfile %s: %w", flags.dockerfile, err)
		}
	}

	image := fleet.Image(env)

	if flags.remote {
		return runRemoteBuild(cmd, session, buildContext, dockerfile)
	}

	cli := docker.NewDocker(exec.NewCommandRunner())
	if err := cli.CheckInstalled(ctx); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Logging in to %s...\n", env.RegistryLoginServer())
	err = cli.Login(ctx, env.RegistryLoginServer(), env.RegistryUsername(), env.RegistryPassword())
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Building %s...\n", image)
	_, err = cli.Build(ctx, buildContext, dockerfile, docker.DefaultPlatform, buildContext, image, stdout)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Pushing %s...\n", image)
	if err := cli.Push(ctx, buildContext, image); err != nil {
		return err
	}

	fmt.Fprintln(stdout, output.WithSuccessFormat("Image pushed: %s", image))
	fmt.Fprintf(stdout, "Deploy workers with %s\n", output.WithHighLightFormat("fleet deploy"))
	return nil
}

func runRemoteBuild(cmd *cobra.Command, session *session, buildContext string, dockerfile string) error {
	ctx := cmd.Context()
	stdout := cmd.OutOrStdout()
	env := &session.env

	builder := containerregistry.NewRemoteBuildManager(env.SubscriptionId(), session.credential, session.armOptions)

	fmt.Fprintf(stdout, "Packing build context %s...\n", buildContext)
	archive, dockerfilePath, err := containerregistry.PackRemoteBuildSource(ctx, buildContext, dockerfile)
	if archive != "" {
		defer os.Remove(archive)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Uploading build context to %s...\n", env.ContainerRegistry())
	source, err := builder.UploadBuildSource(ctx, env.ResourceGroup(), env.ContainerRegistry(), archive)
	if err != nil {
		return err
	}

	imageName := fmt.Sprintf("%s:%s", fleet.ImageName, fleet.ImageTag)
	buildRequest := &armcontainerregistry.DockerBuildRequest{
		DockerFilePath: to.Ptr(dockerfilePath),
		ImageNames:     []*string{to.Ptr(imageName)},
		IsPushEnabled:  to.Ptr(true),
		SourceLocation: source.RelativePath,
		Platform: &armcontainerregistry.PlatformProperties{
			OS:           to.Ptr(armcontainerregistry.OSLinux),
			Architecture: to.Ptr(armcontainerregistry.ArchitectureAmd64),
		},
	}

	fmt.Fprintln(stdout, "Building in the registry...")
	err = builder.RunDockerBuildRequestWithLogs(ctx, env.ResourceGroup(), env.ContainerRegistry(), buildRequest, stdout)
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, output.WithSuccessFormat("Image pushed: %s", fleet.Image(env)))
	fmt.Fprintf(stdout, "Deploy workers with %s\n", output.WithHighLightFormat("fleet deploy"))
	return nil
}
