package fleet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devscraper/fleet/pkg/azapi"
	"github.com/devscraper/fleet/pkg/environment"
)

func testEnv() *environment.Environment {
	env := environment.Empty("")
	env.SetResourceGroup("scraper-rg")
	env.SetLocation("eastus")
	env.SetStorageAccount("scraperstore123")
	env.SetStorageConnection("DefaultEndpointsProtocol=https;AccountName=scraperstore123;AccountKey=key")
	env.SetContainerRegistry("scraperacr123")
	env.SetRegistryPassword("hunter2")
	env.SetQueueName("scraper-jobs")
	env.SetResultsContainer("scraper-results")
	env.SetSubscriptionId("00000000-0000-0000-0000-000000000000")
	return &env
}

func envValue(t *testing.T, spec azapi.ContainerLaunchSpec, name string) azapi.ContainerEnvVar {
	t.Helper()
	for _, v := range spec.Env {
		if v.Name == name {
			return v
		}
	}
	t.Fatalf("spec %s has no env var %s", spec.Name, name)
	return azapi.ContainerEnvVar{}
}

func TestPlanNamesAreDistinctAndNumbered(t *testing.T) {
	for _, count := range []int{0, 1, 10, 25} {
		specs := Plan(testEnv(), count, DefaultSizing)
		require.Len(t, specs, count)

		seen := map[string]bool{}
		for i, spec := range specs {
			assert.Equal(t, WorkerName(i+1), spec.Name)
			assert.False(t, seen[spec.Name], "duplicate worker name %s", spec.Name)
			seen[spec.Name] = true
		}
	}
}

func TestPlanWorkerEnvironment(t *testing.T) {
	env := testEnv()
	specs := Plan(env, 2, Sizing{CPU: 2, MemoryGB: 4})

	for _, spec := range specs {
		assert.Equal(t, "scraperacr123.azurecr.io/scraper-worker:latest", spec.Image)
		assert.Equal(t, 2.0, spec.CPU)
		assert.Equal(t, 4.0, spec.MemoryGB)
		assert.Equal(t, "scraperacr123.azurecr.io", spec.RegistryServer)
		assert.Equal(t, "scraperacr123", spec.RegistryUsername)
		assert.Equal(t, "hunter2", spec.RegistryPassword)

		conn := envValue(t, spec, environment.StorageConnectionEnvVarName)
		assert.True(t, conn.Secure, "storage connection must be passed as a secure value")
		assert.Equal(t, env.StorageConnection(), conn.Value)

		assert.Equal(t, spec.Name, envValue(t, spec, "WORKER_ID").Value)
		assert.Equal(t, "scraper-jobs", envValue(t, spec, environment.QueueNameEnvVarName).Value)
		assert.Equal(t, "scraper-results", envValue(t, spec, environment.ResultsContainerEnvVarName).Value)
	}
}

func TestPoolPlan(t *testing.T) {
	pools := []Pool{
		{Source: "devforum", Workers: 2, Pages: 50},
		{Source: "reddit", Workers: 3, Pages: 25},
	}

	specs := PoolPlan(testEnv(), pools, DefaultSizing)
	require.Len(t, specs, 5)

	assert.Equal(t, "scraper-worker-devforum-1", specs[0].Name)
	assert.Equal(t, "scraper-worker-devforum-2", specs[1].Name)
	assert.Equal(t, "scraper-worker-reddit-1", specs[2].Name)

	for _, spec := range specs[:2] {
		assert.Equal(t, "devforum", envValue(t, spec, "SOURCE").Value)
		assert.Equal(t, "50", envValue(t, spec, "PAGES").Value)
	}
	for _, spec := range specs[2:] {
		assert.Equal(t, "reddit", envValue(t, spec, "SOURCE").Value)
		assert.Equal(t, "25", envValue(t, spec, "PAGES").Value)
	}
}

func TestPoolWorkerNamesKeepFleetPrefix(t *testing.T) {
	assert.Equal(t, "scraper-worker-3", WorkerName(3))
	assert.Equal(t, "scraper-worker-devforum-1", PoolWorkerName("devforum", 1))
}
