package fleet

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devscraper/fleet/pkg/azapi"
)

type fakeController struct {
	mu      sync.Mutex
	groups  []azapi.ContainerGroup
	deleted []string
}

func (f *fakeController) List(ctx context.Context) ([]azapi.ContainerGroup, error) {
	return f.groups, nil
}

func (f *fakeController) Delete(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, name)
	return nil
}

func TestTeardownDeletesOnlyPrefixMatches(t *testing.T) {
	controller := &fakeController{
		groups: []azapi.ContainerGroup{
			{Name: "scraper-worker-1"},
			{Name: "scraper-worker-2"},
			{Name: "scraper-worker-devforum-1"},
			{Name: "unrelated-app"},
			{Name: "scraper"},
		},
	}

	terminator := NewTerminator(controller, &bytes.Buffer{})
	n, err := terminator.Teardown(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	sort.Strings(controller.deleted)
	assert.Equal(t, []string{
		"scraper-worker-1",
		"scraper-worker-2",
		"scraper-worker-devforum-1",
	}, controller.deleted)
}

func TestTeardownEmptyFleetIsNoOp(t *testing.T) {
	controller := &fakeController{
		groups: []azapi.ContainerGroup{{Name: "unrelated-app"}},
	}

	terminator := NewTerminator(controller, &bytes.Buffer{})
	n, err := terminator.Teardown(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, controller.deleted)
}
