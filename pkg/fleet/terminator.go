package fleet

import (
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/devscraper/fleet/pkg/azapi"
)

// ContainerController lists and deletes the container groups the terminator operates on.
type ContainerController interface {
	List(ctx context.Context) ([]azapi.ContainerGroup, error)
	Delete(ctx context.Context, name string) error
}

// Terminator tears down every worker container whose name matches the fleet prefix.
type Terminator struct {
	containers ContainerController
	prefix     string
	out        io.Writer
}

func NewTerminator(containers ContainerController, out io.Writer) *Terminator {
	return &Terminator{
		containers: containers,
		prefix:     WorkerPrefix,
		out:        out,
	}
}

// Teardown enumerates the resource group's container groups, keeps only those matching
// the worker prefix, and deletes them concurrently, waiting for all deletions to finish.
// Termination is unconditional: workers are deleted whether mid-job or idle, with no
// confirmation. A fleet with zero matching containers is a successful no-op. Returns the
// number of containers deleted.
func (t *Terminator) Teardown(ctx context.Context) (int, error) {
	groups, err := t.containers.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("enumerating fleet: %w", err)
	}

	var matched []string
	for _, g := range groups {
		if strings.HasPrefix(g.Name, t.prefix) {
			matched = append(matched, g.Name)
		}
	}

	if len(matched) == 0 {
		fmt.Fprintln(t.out, "No workers to delete.")
		return 0, nil
	}

	var eg errgroup.Group
	for _, name := range matched {
		name := name
		fmt.Fprintf(t.out, "Deleting %s...\n", name)
		eg.Go(func() error {
			return t.containers.Delete(ctx, name)
		})
	}

	if err := eg.Wait(); err != nil {
		return len(matched), err
	}

	return len(matched), nil
}
