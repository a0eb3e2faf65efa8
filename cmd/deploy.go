package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/devscraper/fleet/pkg/azapi"
	"github.com/devscraper/fleet/pkg/fleet"
	"github.com/devscraper/fleet/pkg/output"
)

type deployFlags struct {
	count   int
	cpu     float64
	memory  float64
	stagger time.Duration
}

func (f *deployFlags) Bind(local *pflag.FlagSet) {
	local.IntVarP(&f.count, "count", "c", fleet.DefaultWorkerCount, "Number of workers to deploy.")
	f.bindSizing(local)
}

func (f *deployFlags) bindSizing(local *pflag.FlagSet) {
	local.Float64Var(&f.cpu, "cpu", fleet.DefaultSizing.CPU, "CPU cores per worker.")
	local.Float64Var(&f.memory, "memory", fleet.DefaultSizing.MemoryGB, "Memory in GB per worker.")
	local.DurationVar(&f.stagger, "stagger", fleet.DefaultStagger, "Pause between launch requests.")
}

func (f *deployFlags) sizing() fleet.Sizing {
	return fleet.Sizing{CPU: f.cpu, MemoryGB: f.memory}
}

func newDeployCmd(global *globalFlags) *cobra.Command {
	flags := &deployFlags{}

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Launch a fleet of queue-driven scraper workers",
		Long: `Launch a fleet of identical workers, each pulling jobs from the provisioned queue.

Workers are named scraper-worker-1 through scraper-worker-N. Launch requests are issued
concurrently with a stagger between starts; the command waits for every request to be
accepted but does not wait for containers to reach a running state. A rejected launch does
not stop the others.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := newSession(cmd.Context(), global)
			if err != nil {
				return err
			}

			specs := fleet.Plan(&session.env, flags.count, flags.sizing())
			return runDeploy(cmd, session, flags.stagger, specs)
		},
	}

	flags.Bind(cmd.Flags())
	cmd.AddCommand(newDeployForumsCmd(global))
	return cmd
}

type deployForumsFlags struct {
	deployFlags
	devforumWorkers int
	redditWorkers   int
	devforumPages   int
	redditPages     int
}

func (f *deployForumsFlags) Bind(local *pflag.FlagSet) {
	local.IntVar(&f.devforumWorkers, "devforum-workers", 2, "Workers in the devforum pool.")
	local.IntVar(&f.redditWorkers, "reddit-workers", 2, "Workers in the reddit pool.")
	local.IntVar(&f.devforumPages, "devforum-pages", 50, "Pages per category for devforum workers.")
	local.IntVar(&f.redditPages, "reddit-pages", 50, "Pages per category for reddit workers.")
	f.bindSizing(local)
}

func newDeployForumsCmd(global *globalFlags) *cobra.Command {
	flags := &deployForumsFlags{}

	cmd := &cobra.Command{
		Use:   "forums",
		Short: "Launch the two fixed forum-scraper pools (devforum and reddit)",
		Long: `Launch two independently sized worker pools, one per forum source. Each pool's
workers carry SOURCE and PAGES so the image scrapes the right place, alongside the shared
queue and results configuration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := newSession(cmd.Context(), global)
			if err != nil {
				return err
			}

			pools := []fleet.Pool{
				{Source: "devforum", Workers: flags.devforumWorkers, Pages: flags.devforumPages},
				{Source: "reddit", Workers: flags.redditWorkers, Pages: flags.redditPages},
			}

			specs := fleet.PoolPlan(&session.env, pools, flags.sizing())
			return runDeploy(cmd, session, flags.stagger, specs)
		},
	}

	flags.Bind(cmd.Flags())
	return cmd
}

func runDeploy(cmd *cobra.Command, session *session, stagger time.Duration, specs []azapi.ContainerLaunchSpec) error {
	stdout := cmd.OutOrStdout()

	deployer := fleet.NewDeployer(session.containerService(), stagger, stdout)
	if err := deployer.Deploy(cmd.Context(), specs); err != nil {
		return err
	}

	fmt.Fprintln(stdout, output.WithSuccessFormat("%d launch requests accepted.", len(specs)))
	fmt.Fprintln(stdout, "Launch acceptance does not mean the containers are running yet.")
	fmt.Fprintf(stdout, "Check on the fleet with %s and tear it down with %s\n",
		output.WithHighLightFormat("fleet status"), output.WithHighLightFormat("fleet down"))
	return nil
}
