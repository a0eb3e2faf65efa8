package environment

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/joho/godotenv"
)

// ResourceGroupEnvVarName is the name of the key used to store the resource group holding all fleet resources.
const ResourceGroupEnvVarName = "RESOURCE_GROUP"

// LocationEnvVarName is the name of the key used to store the Azure region for all fleet resources.
const LocationEnvVarName = "LOCATION"

// StorageAccountEnvVarName is the name of the key used to store the storage account backing the queue and results.
const StorageAccountEnvVarName = "STORAGE_ACCOUNT"

// StorageConnectionEnvVarName is the name of the key used to store the storage connection string. Treated as a secret.
const StorageConnectionEnvVarName = "STORAGE_CONNECTION"

// ContainerRegistryEnvVarName is the name of the key used to store the registry that holds worker images.
const ContainerRegistryEnvVarName = "CONTAINER_REGISTRY"

// RegistryPasswordEnvVarName is the name of the key used to store the registry admin password. Treated as a secret.
const RegistryPasswordEnvVarName = "ACR_PASSWORD"

// QueueNameEnvVarName is the name of the key used to store the job queue name.
const QueueNameEnvVarName = "QUEUE_NAME"

// ResultsContainerEnvVarName is the name of the key used to store the blob container that receives scrape output.
const ResultsContainerEnvVarName = "RESULTS_CONTAINER"

// SubscriptionIdEnvVarName is the name of the key used to store the subscription id the fleet is deployed under.
const SubscriptionIdEnvVarName = "SUBSCRIPTION_ID"

// RequiredKeys is the set of keys every provisioned configuration record carries. The record is
// written once by `fleet provision` and read by every other command; it is never mutated afterwards.
var RequiredKeys = []string{
	ResourceGroupEnvVarName,
	LocationEnvVarName,
	StorageAccountEnvVarName,
	StorageConnectionEnvVarName,
	ContainerRegistryEnvVarName,
	RegistryPasswordEnvVarName,
	QueueNameEnvVarName,
	ResultsContainerEnvVarName,
	SubscriptionIdEnvVarName,
}

// Environment is the flat key=value configuration record shared by all fleet commands.
type Environment struct {
	// Values is a map of setting names to values.
	Values map[string]string
	// File is a path to the file that backs this environment. If empty, the Environment
	// will not be persisted when `Save` is called. This allows the zero value to be used
	// for testing.
	File string
}

// Same restrictions as an Azure resource group name.
var resourceNameRegexp = regexp.MustCompile(`^[a-zA-Z0-9-_\.\(\)]{1,90}$`)

func IsValidResourceName(name string) bool {
	return resourceNameRegexp.MatchString(name)
}

// Empty returns an empty environment, which will be persisted
// to a given file when saved.
func Empty(file string) Environment {
	return Environment{
		File:   file,
		Values: make(map[string]string),
	}
}

// FromFile loads an environment from a file on disk. On error,
// a valid empty environment, configured to persist its contents
// to file, is returned.
func FromFile(file string) (Environment, error) {
	env := Environment{
		Values: make(map[string]string),
		File:   file,
	}

	e, err := godotenv.Read(file)
	if err != nil {
		env.Values = make(map[string]string)
		return env, fmt.Errorf("can't read %s: %w", file, err)
	}

	env.Values = e
	return env, nil
}

// Load reads the configuration record at file and verifies it carries every required key.
// Commands downstream of `fleet provision` call this so a missing or truncated record fails
// up front instead of partway through a deployment.
func Load(file string) (Environment, error) {
	env, err := FromFile(file)
	if err != nil {
		return env, err
	}

	if missing := env.MissingKeys(); len(missing) > 0 {
		return env, fmt.Errorf("%s is missing required keys: %v (re-run `fleet provision`)", file, missing)
	}

	return env, nil
}

// MissingKeys returns the required keys absent from the record, in a stable order.
func (e *Environment) MissingKeys() []string {
	var missing []string
	for _, key := range RequiredKeys {
		if e.Values[key] == "" {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	return missing
}

// If `File` is set, Save writes the current contents of the environment to
// the given file, creating it and any intermediate directories as needed.
func (e *Environment) Save() error {
	if e.File == "" {
		return nil
	}

	err := os.MkdirAll(filepath.Dir(e.File), 0755)
	if err != nil {
		return fmt.Errorf("failed to create a directory: %w", err)
	}

	err = godotenv.Write(e.Values, e.File)
	if err != nil {
		return fmt.Errorf("can't write '%s': %w", e.File, err)
	}

	return nil
}

func (e *Environment) ResourceGroup() string {
	return e.Values[ResourceGroupEnvVarName]
}

func (e *Environment) SetResourceGroup(name string) {
	e.Values[ResourceGroupEnvVarName] = name
}

func (e *Environment) Location() string {
	return e.Values[LocationEnvVarName]
}

func (e *Environment) SetLocation(location string) {
	e.Values[LocationEnvVarName] = location
}

func (e *Environment) StorageAccount() string {
	return e.Values[StorageAccountEnvVarName]
}

func (e *Environment) SetStorageAccount(name string) {
	e.Values[StorageAccountEnvVarName] = name
}

func (e *Environment) StorageConnection() string {
	return e.Values[StorageConnectionEnvVarName]
}

func (e *Environment) SetStorageConnection(connection string) {
	e.Values[StorageConnectionEnvVarName] = connection
}

func (e *Environment) ContainerRegistry() string {
	return e.Values[ContainerRegistryEnvVarName]
}

func (e *Environment) SetContainerRegistry(name string) {
	e.Values[ContainerRegistryEnvVarName] = name
}

func (e *Environment) RegistryPassword() string {
	return e.Values[RegistryPasswordEnvVarName]
}

func (e *Environment) SetRegistryPassword(password string) {
	e.Values[RegistryPasswordEnvVarName] = password
}

func (e *Environment) QueueName() string {
	return e.Values[QueueNameEnvVarName]
}

func (e *Environment) SetQueueName(name string) {
	e.Values[QueueNameEnvVarName] = name
}

func (e *Environment) ResultsContainer() string {
	return e.Values[ResultsContainerEnvVarName]
}

func (e *Environment) SetResultsContainer(name string) {
	e.Values[ResultsContainerEnvVarName] = name
}

func (e *Environment) SubscriptionId() string {
	return e.Values[SubscriptionIdEnvVarName]
}

func (e *Environment) SetSubscriptionId(id string) {
	e.Values[SubscriptionIdEnvVarName] = id
}

// RegistryLoginServer returns the registry's login server host name. ACR registries always
// live under azurecr.io and the admin user name matches the registry name.
func (e *Environment) RegistryLoginServer() string {
	return e.ContainerRegistry() + ".azurecr.io"
}

func (e *Environment) RegistryUsername() string {
	return e.ContainerRegistry()
}
