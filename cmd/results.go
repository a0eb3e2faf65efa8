package cmd

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/devscraper/fleet/pkg/environment"
	"github.com/devscraper/fleet/pkg/output"
	"github.com/devscraper/fleet/pkg/storage"
)

type resultsFlags struct {
	prefix      string
	outputDir   string
	analyzeOnly bool
}

func (f *resultsFlags) Bind(local *pflag.FlagSet) {
	local.StringVar(&f.prefix, "prefix", "problems/", "Blob prefix to download.")
	local.StringVarP(&f.outputDir, "output", "o", filepath.Join("data", "azure_results"), "Local output directory.")
	local.BoolVarP(&f.analyzeOnly, "analyze-only", "a", false, "Only summarize already-downloaded results.")
}

func newResultsCmd(global *globalFlags) *cobra.Command {
	flags := &resultsFlags{}

	cmd := &cobra.Command{
		Use:   "results",
		Short: "Download scrape results from the results container",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResults(cmd, global, flags)
		},
	}

	flags.Bind(cmd.Flags())
	return cmd
}

func runResults(cmd *cobra.Command, global *globalFlags, flags *resultsFlags) error {
	ctx := cmd.Context()
	stdout := cmd.OutOrStdout()

	env, err := environment.Load(global.configPath)
	if err != nil {
		return err
	}

	if !flags.analyzeOnly {
		results, err := storage.NewResultsService(env.StorageConnection(), env.ResultsContainer())
		if err != nil {
			return err
		}

		fmt.Fprintf(stdout, "Downloading %s from %s...\n", flags.prefix, env.ResultsContainer())
		n, err := results.Download(ctx, flags.prefix, flags.outputDir, stdout)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, output.WithSuccessFormat("Downloaded %d blobs to %s.", n, flags.outputDir))
	}

	summary, err := storage.Summarize(flags.outputDir)
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, "\n=== Results ===")
	fmt.Fprintf(stdout, "Total files: %d\n", summary.TotalFiles)
	fmt.Fprintf(stdout, "With transcripts: %d\n", summary.WithTranscript)
	fmt.Fprintf(stdout, "Total views: %d\n", summary.TotalViews)

	if len(summary.BySource) > 0 {
		sources := make([]string, 0, len(summary.BySource))
		for s := range summary.BySource {
			sources = append(sources, s)
		}
		sort.Strings(sources)

		fmt.Fprintln(stdout, "\nBy source:")
		for _, s := range sources {
			fmt.Fprintf(stdout, "  %s: %d\n", s, summary.BySource[s])
		}
	}

	return nil
}
