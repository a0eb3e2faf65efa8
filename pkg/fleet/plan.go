// Package fleet plans, deploys and tears down the set of scraper worker containers.
package fleet

import (
	"fmt"

	"github.com/devscraper/fleet/pkg/azapi"
	"github.com/devscraper/fleet/pkg/environment"
)

// WorkerPrefix is the naming convention shared by the deployer and terminator. Every
// container the fleet owns starts with this prefix; the terminator deletes nothing else.
const WorkerPrefix = "scraper-worker-"

// ImageName is the worker image repository name within the registry.
const ImageName = "scraper-worker"

// ImageTag is the tag built, pushed and deployed by default.
const ImageTag = "latest"

// Sizing holds the per-worker resource sizing.
type Sizing struct {
	CPU      float64
	MemoryGB float64
}

// DefaultSizing matches the original operational choice of 1 CPU / 1 GB per worker.
var DefaultSizing = Sizing{CPU: 1, MemoryGB: 1}

// DefaultWorkerCount is the default homogeneous fleet size.
const DefaultWorkerCount = 10

// Pool is one independently parameterized group of source-bound workers.
type Pool struct {
	// Source identifies the scrape source, e.g. "devforum" or "reddit".
	Source string
	// Workers is the number of containers in the pool.
	Workers int
	// Pages is how many pages each worker in the pool scrapes per category.
	Pages int
}

// WorkerName returns the deterministic name of the i-th worker (1-based).
func WorkerName(i int) string {
	return fmt.Sprintf("%s%d", WorkerPrefix, i)
}

// PoolWorkerName returns the deterministic name of the i-th worker (1-based) of a source pool.
func PoolWorkerName(source string, i int) string {
	return fmt.Sprintf("%s%s-%d", WorkerPrefix, source, i)
}

// Image returns the fully qualified worker image reference for the provisioned registry.
func Image(env *environment.Environment) string {
	return fmt.Sprintf("%s/%s:%s", env.RegistryLoginServer(), ImageName, ImageTag)
}

func baseSpec(env *environment.Environment, name string, sizing Sizing) azapi.ContainerLaunchSpec {
	return azapi.ContainerLaunchSpec{
		Name:             name,
		Image:            Image(env),
		CPU:              sizing.CPU,
		MemoryGB:         sizing.MemoryGB,
		RegistryServer:   env.RegistryLoginServer(),
		RegistryUsername: env.RegistryUsername(),
		RegistryPassword: env.RegistryPassword(),
		Env: []azapi.ContainerEnvVar{
			{Name: environment.StorageConnectionEnvVarName, Value: env.StorageConnection(), Secure: true},
			{Name: environment.QueueNameEnvVarName, Value: env.QueueName()},
			{Name: environment.ResultsContainerEnvVarName, Value: env.ResultsContainer()},
			{Name: "WORKER_ID", Value: name},
		},
	}
}

// Plan builds the launch specs for a homogeneous fleet of count queue-driven workers.
// Workers are numbered 1..count; every spec is identical apart from its name and WORKER_ID.
func Plan(env *environment.Environment, count int, sizing Sizing) []azapi.ContainerLaunchSpec {
	specs := make([]azapi.ContainerLaunchSpec, 0, count)
	for i := 1; i <= count; i++ {
		specs = append(specs, baseSpec(env, WorkerName(i), sizing))
	}
	return specs
}

// PoolPlan builds the launch specs for a set of source-bound pools. Each pool's workers
// additionally carry SOURCE and PAGES so the image scrapes the right place.
func PoolPlan(env *environment.Environment, pools []Pool, sizing Sizing) []azapi.ContainerLaunchSpec {
	var specs []azapi.ContainerLaunchSpec
	for _, pool := range pools {
		for i := 1; i <= pool.Workers; i++ {
			spec := baseSpec(env, PoolWorkerName(pool.Source, i), sizing)
			spec.Env = append(spec.Env,
				azapi.ContainerEnvVar{Name: "SOURCE", Value: pool.Source},
				azapi.ContainerEnvVar{Name: "PAGES", Value: fmt.Sprintf("%d", pool.Pages)},
			)
			specs = append(specs, spec)
		}
	}
	return specs
}
