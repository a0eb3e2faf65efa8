package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/devscraper/fleet/pkg/azapi"
	"github.com/devscraper/fleet/pkg/fleet"
	"github.com/devscraper/fleet/pkg/output"
)

func newDownCmd(global *globalFlags) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Delete every scraper worker container",
		Long: `Delete every container instance whose name starts with scraper-worker-, waiting for the
deletions to finish. Workers are deleted whether mid-job or idle; there is no confirmation.
With --all, the entire resource group is deleted afterwards, removing the storage account,
queue, results and registry as well.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			stdout := cmd.OutOrStdout()

			session, err := newSession(ctx, global)
			if err != nil {
				return err
			}

			terminator := fleet.NewTerminator(session.containerService(), stdout)
			n, err := terminator.Teardown(ctx)
			if err != nil {
				return err
			}

			if n > 0 {
				fmt.Fprintln(stdout, output.WithSuccessFormat("Deleted %d workers.", n))
			}

			if !all {
				return nil
			}

			fmt.Fprintf(stdout, "Deleting resource group %s...\n", session.env.ResourceGroup())
			resources := azapi.NewResourceService(session.env.SubscriptionId(), session.credential, session.armOptions)
			if err := resources.DeleteResourceGroup(ctx, session.env.ResourceGroup()); err != nil {
				return err
			}

			fmt.Fprintln(stdout, output.WithSuccessFormat("Resource group deleted."))
			fmt.Fprintf(stdout, "The configuration file %s now refers to deleted resources; re-run %s to start over.\n",
				global.configPath, output.WithHighLightFormat("fleet provision"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Also delete the resource group and everything in it.")
	return cmd
}
