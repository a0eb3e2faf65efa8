package fleet

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devscraper/fleet/pkg/azapi"
)

type fakeLauncher struct {
	mu       sync.Mutex
	launched []string
	failFor  map[string]bool
	onLaunch func(name string)
}

func (f *fakeLauncher) Launch(ctx context.Context, spec azapi.ContainerLaunchSpec) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.launched = append(f.launched, spec.Name)
	if f.onLaunch != nil {
		f.onLaunch(spec.Name)
	}
	if f.failFor[spec.Name] {
		return fmt.Errorf("launch %s: simulated control plane rejection", spec.Name)
	}
	return nil
}

func TestDeployIssuesOneLaunchPerWorker(t *testing.T) {
	for _, count := range []int{0, 1, 10} {
		launcher := &fakeLauncher{}
		deployer := NewDeployer(launcher, 0, &bytes.Buffer{})

		err := deployer.Deploy(context.Background(), Plan(testEnv(), count, DefaultSizing))
		require.NoError(t, err)
		assert.Len(t, launcher.launched, count)

		seen := map[string]bool{}
		for _, name := range launcher.launched {
			assert.False(t, seen[name])
			seen[name] = true
		}
	}
}

func TestDeployFailedLaunchDoesNotStopSiblings(t *testing.T) {
	launcher := &fakeLauncher{failFor: map[string]bool{WorkerName(2): true}}
	deployer := NewDeployer(launcher, 0, &bytes.Buffer{})

	err := deployer.Deploy(context.Background(), Plan(testEnv(), 5, DefaultSizing))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 5 launches failed")

	// every sibling launch was still issued
	assert.Len(t, launcher.launched, 5)
}

func TestDeployCancellationKeepsCollectedErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The first launch fails and cancels the deployment; the stagger is long enough that
	// cancellation always wins the race against the second launch.
	launcher := &fakeLauncher{
		failFor:  map[string]bool{WorkerName(1): true},
		onLaunch: func(string) { cancel() },
	}
	deployer := NewDeployer(launcher, time.Minute, &bytes.Buffer{})

	err := deployer.Deploy(ctx, Plan(testEnv(), 3, DefaultSizing))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "simulated control plane rejection")
	assert.Len(t, launcher.launched, 1)
}

func TestDeployReportsAllFailures(t *testing.T) {
	launcher := &fakeLauncher{failFor: map[string]bool{WorkerName(1): true, WorkerName(3): true}}
	deployer := NewDeployer(launcher, 0, &bytes.Buffer{})

	err := deployer.Deploy(context.Background(), Plan(testEnv(), 3, DefaultSizing))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 3 launches failed")
}
