package azapi

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

// armScope is the token scope used to verify a credential can reach Azure Resource Manager.
const armScope = "https://management.azure.com/.default"

// NewCredential builds the credential chain used by every command. DefaultAzureCredential
// covers environment variables, managed identity and an existing `az login` session, which
// matches how the shell workflow relied on the operator's az CLI login.
func NewCredential() (azcore.TokenCredential, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("creating azure credential: %w", err)
	}

	return cred, nil
}

// EnsureLoggedIn acquires an ARM token to verify an Azure login is available before any
// resources are touched. A failure here aborts the command with a login hint.
func EnsureLoggedIn(ctx context.Context, cred azcore.TokenCredential) error {
	_, err := cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{armScope}})
	if err != nil {
		return fmt.Errorf("not logged in to Azure (run `az login` first): %w", err)
	}

	return nil
}
