package azapi

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/containerregistry/armcontainerregistry"
)

// RegistryService manages the container registry that holds worker images.
type RegistryService struct {
	subscriptionId   string
	credential       azcore.TokenCredential
	armClientOptions *arm.ClientOptions
}

func NewRegistryService(
	subscriptionId string,
	credential azcore.TokenCredential,
	armClientOptions *arm.ClientOptions,
) *RegistryService {
	return &RegistryService{
		subscriptionId:   subscriptionId,
		credential:       credential,
		armClientOptions: armClientOptions,
	}
}

// CreateRegistry creates a Basic SKU registry with the admin user enabled, blocking until
// the registry is ready. The admin user is what lets both docker and ACI authenticate with
// the registry name and a password, without service principals.
func (rs *RegistryService) CreateRegistry(
	ctx context.Context,
	resourceGroupName string,
	registryName string,
	location string,
) error {
	client, err := rs.createRegistriesClient()
	if err != nil {
		return err
	}

	poller, err := client.BeginCreate(ctx, resourceGroupName, registryName, armcontainerregistry.Registry{
		Location: &location,
		SKU: &armcontainerregistry.SKU{
			Name: to.Ptr(armcontainerregistry.SKUNameBasic),
		},
		Properties: &armcontainerregistry.RegistryProperties{
			AdminUserEnabled: to.Ptr(true),
		},
	}, nil)
	if err != nil {
		return fmt.Errorf("creating container registry %s: %w", registryName, err)
	}

	_, err = poller.PollUntilDone(ctx, nil)
	if err != nil {
		return fmt.Errorf("waiting for container registry %s: %w", registryName, err)
	}

	return nil
}

// AdminPassword returns the registry admin password.
func (rs *RegistryService) AdminPassword(
	ctx context.Context,
	resourceGroupName string,
	registryName string,
) (string, error) {
	client, err := rs.createRegistriesClient()
	if err != nil {
		return "", err
	}

	creds, err := client.ListCredentials(ctx, resourceGroupName, registryName, nil)
	if err != nil {
		return "", fmt.Errorf("listing credentials for registry %s: %w", registryName, err)
	}

	if len(creds.Passwords) == 0 || creds.Passwords[0].Value == nil {
		return "", fmt.Errorf("registry %s returned no admin passwords", registryName)
	}

	return *creds.Passwords[0].Value, nil
}

func (rs *RegistryService) createRegistriesClient() (*armcontainerregistry.RegistriesClient, error) {
	client, err := armcontainerregistry.NewRegistriesClient(rs.subscriptionId, rs.credential, rs.armClientOptions)
	if err != nil {
		return nil, fmt.Errorf("creating Registries client: %w", err)
	}

	return client, nil
}
