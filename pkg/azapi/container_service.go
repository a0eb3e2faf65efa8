package azapi

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/containerinstance/armcontainerinstance/v2"
)

// ContainerEnvVar is a single environment variable passed to a worker container. Secure
// values are delivered to the container but never surfaced by the ACI API afterwards.
type ContainerEnvVar struct {
	Name   string
	Value  string
	Secure bool
}

// ContainerLaunchSpec describes one container group to create.
type ContainerLaunchSpec struct {
	Name     string
	Image    string
	CPU      float64
	MemoryGB float64
	Env      []ContainerEnvVar

	RegistryServer   string
	RegistryUsername string
	RegistryPassword string
}

// ContainerGroup is a summary of a deployed container group.
type ContainerGroup struct {
	Name              string
	ProvisioningState string
	State             string
}

// ContainerService manages worker container instances.
type ContainerService struct {
	subscriptionId   string
	resourceGroup    string
	location         string
	credential       azcore.TokenCredential
	armClientOptions *arm.ClientOptions
}

func NewContainerService(
	subscriptionId string,
	resourceGroup string,
	location string,
	credential azcore.TokenCredential,
	armClientOptions *arm.ClientOptions,
) *ContainerService {
	return &ContainerService{
		subscriptionId:   subscriptionId,
		resourceGroup:    resourceGroup,
		location:         location,
		credential:       credential,
		armClientOptions: armClientOptions,
	}
}

// Launch creates a single-container group for the given spec. It returns once the create
// request is accepted by the control plane; it does not wait for the container to reach a
// running state, so a nil error only means the launch was accepted.
func (cs *ContainerService) Launch(ctx context.Context, spec ContainerLaunchSpec) error {
	client, err := cs.createContainerGroupsClient()
	if err != nil {
		return err
	}

	env := make([]*armcontainerinstance.EnvironmentVariable, 0, len(spec.Env))
	for _, v := range spec.Env {
		ev := &armcontainerinstance.EnvironmentVariable{Name: to.Ptr(v.Name)}
		if v.Secure {
			ev.SecureValue = to.Ptr(v.Value)
		} else {
			ev.Value = to.Ptr(v.Value)
		}
		env = append(env, ev)
	}

	group := armcontainerinstance.ContainerGroup{
		Location: to.Ptr(cs.location),
		Properties: &armcontainerinstance.ContainerGroupPropertiesProperties{
			OSType:        to.Ptr(armcontainerinstance.OperatingSystemTypesLinux),
			RestartPolicy: to.Ptr(armcontainerinstance.ContainerGroupRestartPolicyNever),
			ImageRegistryCredentials: []*armcontainerinstance.ImageRegistryCredential{
				{
					Server:   to.Ptr(spec.RegistryServer),
					Username: to.Ptr(spec.RegistryUsername),
					Password: to.Ptr(spec.RegistryPassword),
				},
			},
			Containers: []*armcontainerinstance.Container{
				{
					Name: to.Ptr(spec.Name),
					Properties: &armcontainerinstance.ContainerProperties{
						Image:                to.Ptr(spec.Image),
						EnvironmentVariables: env,
						Resources: &armcontainerinstance.ResourceRequirements{
							Requests: &armcontainerinstance.ResourceRequests{
								CPU:        to.Ptr(spec.CPU),
								MemoryInGB: to.Ptr(spec.MemoryGB),
							},
						},
					},
				},
			},
		},
	}

	_, err = client.BeginCreateOrUpdate(ctx, cs.resourceGroup, spec.Name, group, nil)
	if err != nil {
		return fmt.Errorf("launching container group %s: %w", spec.Name, err)
	}

	return nil
}

// List returns a summary of every container group in the fleet's resource group.
func (cs *ContainerService) List(ctx context.Context) ([]ContainerGroup, error) {
	client, err := cs.createContainerGroupsClient()
	if err != nil {
		return nil, err
	}

	groups := []ContainerGroup{}
	pager := client.NewListByResourceGroupPager(cs.resourceGroup, nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing container groups: %w", err)
		}

		for _, g := range page.Value {
			group := ContainerGroup{Name: *g.Name}
			if g.Properties != nil {
				if g.Properties.ProvisioningState != nil {
					group.ProvisioningState = *g.Properties.ProvisioningState
				}
				if g.Properties.InstanceView != nil && g.Properties.InstanceView.State != nil {
					group.State = *g.Properties.InstanceView.State
				}
			}
			groups = append(groups, group)
		}
	}

	return groups, nil
}

// Delete removes a container group, waiting for the deletion to complete.
func (cs *ContainerService) Delete(ctx context.Context, name string) error {
	client, err := cs.createContainerGroupsClient()
	if err != nil {
		return err
	}

	poller, err := client.BeginDelete(ctx, cs.resourceGroup, name, nil)
	if err != nil {
		return fmt.Errorf("deleting container group %s: %w", name, err)
	}

	_, err = poller.PollUntilDone(ctx, nil)
	if err != nil {
		return fmt.Errorf("waiting for deletion of container group %s: %w", name, err)
	}

	return nil
}

func (cs *ContainerService) createContainerGroupsClient() (*armcontainerinstance.ContainerGroupsClient, error) {
	client, err := armcontainerinstance.NewContainerGroupsClient(cs.subscriptionId, cs.credential, cs.armClientOptions)
	if err != nil {
		return nil, fmt.Errorf("creating ContainerGroups client: %w", err)
	}

	return client, nil
}
