package azapi

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/storage/armstorage"
)

// StorageService manages the storage account backing the job queue and results container.
type StorageService struct {
	subscriptionId   string
	credential       azcore.TokenCredential
	armClientOptions *arm.ClientOptions
}

func NewStorageService(
	subscriptionId string,
	credential azcore.TokenCredential,
	armClientOptions *arm.ClientOptions,
) *StorageService {
	return &StorageService{
		subscriptionId:   subscriptionId,
		credential:       credential,
		armClientOptions: armClientOptions,
	}
}

// CreateAccount creates a Standard_LRS StorageV2 account and blocks until it is usable.
// The account must exist before keys can be listed or data-plane resources created.
func (ss *StorageService) CreateAccount(
	ctx context.Context,
	resourceGroupName string,
	accountName string,
	location string,
) error {
	client, err := armstorage.NewAccountsClient(ss.subscriptionId, ss.credential, ss.armClientOptions)
	if err != nil {
		return fmt.Errorf("creating storage Accounts client: %w", err)
	}

	poller, err := client.BeginCreate(ctx, resourceGroupName, accountName, armstorage.AccountCreateParameters{
		Location: &location,
		Kind:     to.Ptr(armstorage.KindStorageV2),
		SKU: &armstorage.SKU{
			Name: to.Ptr(armstorage.SKUNameStandardLRS),
		},
		Properties: &armstorage.AccountPropertiesCreateParameters{
			AllowBlobPublicAccess: to.Ptr(false),
			MinimumTLSVersion:     to.Ptr(armstorage.MinimumTLSVersionTLS12),
		},
	}, nil)
	if err != nil {
		return fmt.Errorf("creating storage account %s: %w", accountName, err)
	}

	_, err = poller.PollUntilDone(ctx, nil)
	if err != nil {
		return fmt.Errorf("waiting for storage account %s: %w", accountName, err)
	}

	return nil
}

// ConnectionString lists the account keys and renders the primary key as a
// connection string, the form both the workers and the data-plane SDK clients consume.
func (ss *StorageService) ConnectionString(
	ctx context.Context,
	resourceGroupName string,
	accountName string,
) (string, error) {
	client, err := armstorage.NewAccountsClient(ss.subscriptionId, ss.credential, ss.armClientOptions)
	if err != nil {
		return "", fmt.Errorf("creating storage Accounts client: %w", err)
	}

	keys, err := client.ListKeys(ctx, resourceGroupName, accountName, nil)
	if err != nil {
		return "", fmt.Errorf("listing keys for storage account %s: %w", accountName, err)
	}

	if len(keys.Keys) == 0 || keys.Keys[0].Value == nil {
		return "", fmt.Errorf("storage account %s returned no keys", accountName)
	}

	return fmt.Sprintf(
		"DefaultEndpointsProtocol=https;AccountName=%s;AccountKey=%s;EndpointSuffix=core.windows.net",
		accountName,
		*keys.Keys[0].Value,
	), nil
}

// CreateQueue creates the job queue on the given account. Creating an existing queue is not an error.
func (ss *StorageService) CreateQueue(
	ctx context.Context,
	resourceGroupName string,
	accountName string,
	queueName string,
) error {
	client, err := armstorage.NewQueueClient(ss.subscriptionId, ss.credential, ss.armClientOptions)
	if err != nil {
		return fmt.Errorf("creating storage Queue client: %w", err)
	}

	_, err = client.Create(ctx, resourceGroupName, accountName, queueName, armstorage.Queue{}, nil)
	if err != nil {
		return fmt.Errorf("creating queue %s: %w", queueName, err)
	}

	return nil
}

// CreateBlobContainer creates the results container on the given account.
func (ss *StorageService) CreateBlobContainer(
	ctx context.Context,
	resourceGroupName string,
	accountName string,
	containerName string,
) error {
	client, err := armstorage.NewBlobContainersClient(ss.subscriptionId, ss.credential, ss.armClientOptions)
	if err != nil {
		return fmt.Errorf("creating storage BlobContainers client: %w", err)
	}

	_, err = client.Create(ctx, resourceGroupName, accountName, containerName, armstorage.BlobContainer{}, nil)
	if err != nil {
		return fmt.Errorf("creating blob container %s: %w", containerName, err)
	}

	return nil
}
