package azapi

import (
	"context"
	"errors"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
)

// ResourceService manages resource group lifecycle for the fleet.
type ResourceService struct {
	subscriptionId   string
	credential       azcore.TokenCredential
	armClientOptions *arm.ClientOptions
}

func NewResourceService(
	subscriptionId string,
	credential azcore.TokenCredential,
	armClientOptions *arm.ClientOptions,
) *ResourceService {
	return &ResourceService{
		subscriptionId:   subscriptionId,
		credential:       credential,
		armClientOptions: armClientOptions,
	}
}

func (rs *ResourceService) CreateOrUpdateResourceGroup(
	ctx context.Context,
	resourceGroupName string,
	location string,
) error {
	client, err := rs.createResourceGroupClient()
	if err != nil {
		return err
	}

	_, err = client.CreateOrUpdate(ctx, resourceGroupName, armresources.ResourceGroup{
		Location: &location,
	}, nil)
	if err != nil {
		return fmt.Errorf("creating resource group %s: %w", resourceGroupName, err)
	}

	return nil
}

func (rs *ResourceService) DeleteResourceGroup(ctx context.Context, resourceGroupName string) error {
	client, err := rs.createResourceGroupClient()
	if err != nil {
		return err
	}

	poller, err := client.BeginDelete(ctx, resourceGroupName, nil)
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) && respErr.StatusCode == 404 { // Resource group is already deleted
		return nil
	}

	if err != nil {
		return fmt.Errorf("beginning resource group deletion: %w", err)
	}

	_, err = poller.PollUntilDone(ctx, nil)
	if err != nil {
		return fmt.Errorf("deleting resource group: %w", err)
	}

	return nil
}

func (rs *ResourceService) createResourceGroupClient() (*armresources.ResourceGroupsClient, error) {
	client, err := armresources.NewResourceGroupsClient(rs.subscriptionId, rs.credential, rs.armClientOptions)
	if err != nil {
		return nil, fmt.Errorf("creating ResourceGroup client: %w", err)
	}

	return client, nil
}
