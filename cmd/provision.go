package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/devscraper/fleet/pkg/azapi"
	"github.com/devscraper/fleet/pkg/environment"
	"github.com/devscraper/fleet/pkg/output"
)

type provisionFlags struct {
	resourceGroup    string
	location         string
	storageAccount   string
	registry         string
	queueName        string
	resultsContainer string
	subscription     string
}

func (f *provisionFlags) Bind(local *pflag.FlagSet) {
	local.StringVar(&f.resourceGroup, "resource-group", "scraper-rg", "Resource group to create.")
	local.StringVar(&f.location, "location", "eastus", "Azure region.")
	local.StringVar(&f.storageAccount, "storage-account", "",
		"Storage account name. Generated with a random suffix when empty.")
	local.StringVar(&f.registry, "registry", "",
		"Container registry name. Generated with a random suffix when empty.")
	local.StringVar(&f.queueName, "queue", "scraper-jobs", "Job queue name.")
	local.StringVar(&f.resultsContainer, "results-container", "scraper-results", "Results blob container name.")
	local.StringVar(&f.subscription, "subscription", "",
		"Subscription id. Falls back to the AZURE_SUBSCRIPTION_ID environment variable.")
}

func newProvisionCmd(global *globalFlags) *cobra.Command {
	flags := &provisionFlags{}

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Create the resource group, storage, queue and registry, and write the configuration file",
		Long: `Create the resource group, storage account, job queue, results container and container
registry the fleet runs on, then write all identifiers and credentials to the configuration
file. There is no rollback: a failure partway leaves the resources created so far in place.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProvision(cmd, global, flags)
		},
	}

	flags.Bind(cmd.Flags())
	return cmd
}

// nameSuffix generates the random suffix that keeps globally scoped resource names
// (storage accounts, registries) from colliding.
func nameSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func runProvision(cmd *cobra.Command, global *globalFlags, flags *provisionFlags) error {
	ctx := cmd.Context()
	stdout := cmd.OutOrStdout()

	subscription := flags.subscription
	if subscription == "" {
		subscription = os.Getenv("AZURE_SUBSCRIPTION_ID")
	}
	if subscription == "" {
		return fmt.Errorf("no subscription id: pass --subscription or set AZURE_SUBSCRIPTION_ID")
	}

	if !environment.IsValidResourceName(flags.resourceGroup) {
		return fmt.Errorf("invalid resource group name: %s", flags.resourceGroup)
	}

	storageAccount := flags.storageAccount
	if storageAccount == "" {
		storageAccount = "scraperstore" + nameSuffix()
	}

	registry := flags.registry
	if registry == "" {
		registry = "scraperacr" + nameSuffix()
	}

	cred, err := azapi.NewCredential()
	if err != nil {
		return err
	}
	if err := azapi.EnsureLoggedIn(ctx, cred); err != nil {
		return err
	}

	armOptions := &arm.ClientOptions{}
	resources := azapi.NewResourceService(subscription, cred, armOptions)
	storage := azapi.NewStorageService(subscription, cred, armOptions)
	registries := azapi.NewRegistryService(subscription, cred, armOptions)

	fmt.Fprintf(stdout, "Creating resource group %s in %s...\n", flags.resourceGroup, flags.location)
	if err := resources.CreateOrUpdateResourceGroup(ctx, flags.resourceGroup, flags.location); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Creating storage account %s...\n", storageAccount)
	if err := storage.CreateAccount(ctx, flags.resourceGroup, storageAccount, flags.location); err != nil {
		return err
	}

	connection, err := storage.ConnectionString(ctx, flags.resourceGroup, storageAccount)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Creating queue %s...\n", flags.queueName)
	if err := storage.CreateQueue(ctx, flags.resourceGroup, storageAccount, flags.queueName); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Creating blob container %s...\n", flags.resultsContainer)
	if err := storage.CreateBlobContainer(ctx, flags.resourceGroup, storageAccount, flags.resultsContainer); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Creating container registry %s...\n", registry)
	if err := registries.CreateRegistry(ctx, flags.resourceGroup, registry, flags.location); err != nil {
		return err
	}

	registryPassword, err := registries.AdminPassword(ctx, flags.resourceGroup, registry)
	if err != nil {
		return err
	}

	env := environment.Empty(global.configPath)
	env.SetResourceGroup(flags.resourceGroup)
	env.SetLocation(flags.location)
	env.SetStorageAccount(storageAccount)
	env.SetStorageConnection(connection)
	env.SetContainerRegistry(registry)
	env.SetRegistryPassword(registryPassword)
	env.SetQueueName(flags.queueName)
	env.SetResultsContainer(flags.resultsContainer)
	env.SetSubscriptionId(subscription)

	if err := env.Save(); err != nil {
		return err
	}

	fmt.Fprintln(stdout, output.WithSuccessFormat("\nProvisioning complete. Configuration written to %s", global.configPath))
	fmt.Fprintln(stdout, output.WithWarningFormat("The file contains credentials; keep it out of source control."))
	fmt.Fprintln(stdout, "\nNext steps:")
	fmt.Fprintf(stdout, "  %s\t# build and push the worker image\n", output.WithHighLightFormat("fleet build"))
	fmt.Fprintf(stdout, "  %s\t# queue scrape jobs\n", output.WithHighLightFormat("fleet queue"))
	fmt.Fprintf(stdout, "  %s\t# launch the workers\n", output.WithHighLightFormat("fleet deploy --count 20"))

	return nil
}
