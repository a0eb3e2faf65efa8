package environment

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidResourceName(t *testing.T) {
	assert.True(t, IsValidResourceName("scraper-rg"))
	assert.True(t, IsValidResourceName("a-name-with-hyphens"))
	assert.True(t, IsValidResourceName("C()mPl3x_ExAmPl3.name"))

	assert.False(t, IsValidResourceName(""))
	assert.False(t, IsValidResourceName("no*allowed"))
	assert.False(t, IsValidResourceName("no spaces"))
}

func provisioned(file string) Environment {
	env := Empty(file)
	env.SetResourceGroup("scraper-rg")
	env.SetLocation("eastus")
	env.SetStorageAccount("scraperstore123")
	env.SetStorageConnection("DefaultEndpointsProtocol=https;AccountName=scraperstore123;AccountKey=key;EndpointSuffix=core.windows.net")
	env.SetContainerRegistry("scraperacr123")
	env.SetRegistryPassword("hunter2")
	env.SetQueueName("scraper-jobs")
	env.SetResultsContainer("scraper-results")
	env.SetSubscriptionId("00000000-0000-0000-0000-000000000000")
	return env
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	file := filepath.Join(t.TempDir(), "azure", "config.env")

	env := provisioned(file)
	require.NoError(t, env.Save())

	loaded, err := Load(file)
	require.NoError(t, err)

	assert.Equal(t, env.Values, loaded.Values)
	assert.Equal(t, "scraper-rg", loaded.ResourceGroup())
	assert.Equal(t, "scraper-jobs", loaded.QueueName())
	assert.Equal(t, "scraper-results", loaded.ResultsContainer())
}

func TestLoadRejectsMissingKeys(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.env")

	env := provisioned(file)
	env.SetStorageConnection("")
	require.NoError(t, env.Save())

	_, err := Load(file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), StorageConnectionEnvVarName)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.env"))
	require.Error(t, err)
}

func TestMissingKeysEmptyEnvironment(t *testing.T) {
	env := Empty("")
	assert.Len(t, env.MissingKeys(), len(RequiredKeys))
}

func TestRegistryLoginServer(t *testing.T) {
	env := Empty("")
	env.SetContainerRegistry("scraperacr123")
	assert.Equal(t, "scraperacr123.azurecr.io", env.RegistryLoginServer())
	assert.Equal(t, "scraperacr123", env.RegistryUsername())
}
