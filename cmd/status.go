package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/devscraper/fleet/pkg/fleet"
)

func newStatusCmd(global *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the fleet's containers and their states",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			stdout := cmd.OutOrStdout()

			session, err := newSession(ctx, global)
			if err != nil {
				return err
			}

			groups, err := session.containerService().List(ctx)
			if err != nil {
				return err
			}

			workers := groups[:0]
			for _, g := range groups {
				if strings.HasPrefix(g.Name, fleet.WorkerPrefix) {
					workers = append(workers, g)
				}
			}

			if len(workers) == 0 {
				fmt.Fprintln(stdout, "No workers deployed.")
				return nil
			}

			w := tabwriter.NewWriter(stdout, 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPROVISIONING\tSTATE")
			for _, g := range workers {
				state := g.State
				if state == "" {
					state = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", g.Name, g.ProvisioningState, state)
			}
			return w.Flush()
		},
	}
}
