package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/devscraper/fleet/pkg/environment"
	"github.com/devscraper/fleet/pkg/exec"
	"github.com/devscraper/fleet/pkg/output"
	"github.com/devscraper/fleet/pkg/storage"
)

type queueFlags struct {
	count       int
	minViews    int64
	perQuery    int
	queriesFile string
}

func (f *queueFlags) Bind(local *pflag.FlagSet) {
	local.IntVarP(&f.count, "count", "c", 10000, "Target number of videos to queue.")
	local.Int64VarP(&f.minViews, "min-views", "v", 1000, "Minimum view count per video.")
	local.IntVarP(&f.perQuery, "per-query", "p", 100, "Search results requested per query.")
	local.StringVar(&f.queriesFile, "queries", "",
		"File with one search query per line, replacing the built-in list.")
}

func newQueueCmd(global *globalFlags) *cobra.Command {
	flags := &queueFlags{}

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Search YouTube and queue video scrape jobs for the workers",
		Long: `Search YouTube with yt-dlp across a set of queries and queue one job per unique video
into the provisioned work queue. Run this before deploying workers so the fleet has
something to drain.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueue(cmd, global, flags)
		},
	}

	flags.Bind(cmd.Flags())
	return cmd
}

func readQueriesFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading queries file: %w", err)
	}
	defer f.Close()

	var queries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		queries = append(queries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading queries file: %w", err)
	}

	return queries, nil
}

func runQueue(cmd *cobra.Command, global *globalFlags, flags *queueFlags) error {
	ctx := cmd.Context()
	stdout := cmd.OutOrStdout()

	env, err := environment.Load(global.configPath)
	if err != nil {
		return err
	}

	var queries []string
	if flags.queriesFile != "" {
		queries, err = readQueriesFile(flags.queriesFile)
		if err != nil {
			return err
		}
	}

	queue, err := storage.NewQueueService(env.StorageConnection(), env.QueueName())
	if err != nil {
		return err
	}

	searcher := storage.NewYouTubeSearcher(exec.NewCommandRunner())
	loader := storage.NewLoader(searcher, queue, stdout)

	fmt.Fprintf(stdout, "Target: %d videos with %d+ views\n", flags.count, flags.minViews)

	queued, err := loader.Run(ctx, storage.LoadOptions{
		Count:    flags.count,
		MinViews: flags.minViews,
		PerQuery: flags.perQuery,
		Queries:  queries,
		Pause:    300 * time.Millisecond,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, output.WithSuccessFormat("Queued %d videos into %s.", queued, env.QueueName()))
	fmt.Fprintf(stdout, "Deploy workers with %s\n", output.WithHighLightFormat("fleet deploy --count 20"))
	return nil
}
