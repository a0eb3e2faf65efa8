package fleet

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/devscraper/fleet/pkg/azapi"
)

// DefaultStagger is the pause between launch requests, throttling the rate of calls
// against the ACI control plane.
const DefaultStagger = 2 * time.Second

// Launcher issues a single container-create request.
type Launcher interface {
	Launch(ctx context.Context, spec azapi.ContainerLaunchSpec) error
}

// Deployer launches a fleet of worker containers.
type Deployer struct {
	launcher Launcher
	stagger  time.Duration
	out      io.Writer
}

func NewDeployer(launcher Launcher, stagger time.Duration, out io.Writer) *Deployer {
	return &Deployer{
		launcher: launcher,
		stagger:  stagger,
		out:      out,
	}
}

// Deploy issues one launch per spec. Launches run concurrently: each request is fired on
// its own goroutine with a fixed stagger between starts, and Deploy blocks until every
// request has returned. A failed launch does not stop or roll back its siblings; all
// launch errors are collected and returned combined after the join. The stagger loop
// itself stops early if ctx is cancelled, but requests already in flight are not aborted
// and any launch errors collected by then are still reported alongside ctx.Err().
func (d *Deployer) Deploy(ctx context.Context, specs []azapi.ContainerLaunchSpec) error {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var launchErrs error

	for i, spec := range specs {
		if i > 0 {
			select {
			case <-ctx.Done():
				wg.Wait()
				return multierr.Append(launchErrs, ctx.Err())
			case <-time.After(d.stagger):
			}
		}

		fmt.Fprintf(d.out, "Launching %s...\n", spec.Name)

		wg.Add(1)
		go func(spec azapi.ContainerLaunchSpec) {
			defer wg.Done()
			if err := d.launcher.Launch(ctx, spec); err != nil {
				mu.Lock()
				launchErrs = multierr.Append(launchErrs, err)
				mu.Unlock()
			}
		}(spec)
	}

	wg.Wait()

	if launchErrs != nil {
		return fmt.Errorf("%d of %d launches failed: %w", len(multierr.Errors(launchErrs)), len(specs), launchErrs)
	}

	return nil
}
