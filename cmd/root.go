// Package cmd wires the fleet CLI: provisioning, image builds, worker deployment and
// teardown for the Azure scraper fleet.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/spf13/cobra"

	"github.com/devscraper/fleet/pkg/azapi"
	"github.com/devscraper/fleet/pkg/environment"
	"github.com/devscraper/fleet/pkg/output"
)

type globalFlags struct {
	configPath string
	debug      bool
}

// NewRootCmd builds the fleet command tree.
func NewRootCmd() *cobra.Command {
	global := &globalFlags{}

	root := &cobra.Command{
		Use:   "fleet",
		Short: "Provision Azure infrastructure and run a fleet of scraper workers on Container Instances",
		Long: `fleet orchestrates a scraper worker fleet on Azure Container Instances.

The typical workflow is:

	$ fleet provision
	$ fleet build
	$ fleet queue
	$ fleet deploy --count 20
	$ fleet results

Provisioning writes a flat key=value configuration file (azure/config.env by default) that
every other command reads. The file contains credentials; keep it out of source control.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			if !global.debug {
				log.SetOutput(io.Discard)
			}
		},
	}

	root.PersistentFlags().StringVar(
		&global.configPath, "config", filepath.Join("azure", "config.env"),
		"Path to the fleet configuration file.")
	root.PersistentFlags().BoolVar(&global.debug, "debug", false, "Enable debug logging.")

	root.AddCommand(
		newProvisionCmd(global),
		newBuildCmd(global),
		newDeployCmd(global),
		newDownCmd(global),
		newStatusCmd(global),
		newQueueCmd(global),
		newResultsCmd(global),
	)

	return root
}

// Execute runs the CLI, printing the failing step's error and exiting non-zero on the
// first failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, output.WithErrorFormat("ERROR: %v", err))
		os.Exit(1)
	}
}

// session is the shared state every post-provision command needs: the configuration
// record, a verified credential and ARM client options.
type session struct {
	env        environment.Environment
	credential azcore.TokenCredential
	armOptions *arm.ClientOptions
}

func newSession(ctx context.Context, global *globalFlags) (*session, error) {
	env, err := environment.Load(global.configPath)
	if err != nil {
		return nil, err
	}

	cred, err := azapi.NewCredential()
	if err != nil {
		return nil, err
	}

	if err := azapi.EnsureLoggedIn(ctx, cred); err != nil {
		return nil, err
	}

	return &session{
		env:        env,
		credential: cred,
		armOptions: &arm.ClientOptions{},
	}, nil
}

func (s *session) containerService() *azapi.ContainerService {
	return azapi.NewContainerService(
		s.env.SubscriptionId(),
		s.env.ResourceGroup(),
		s.env.Location(),
		s.credential,
		s.armOptions,
	)
}
