package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/formfill/pkg/storage"
)

func TestConfigDefaults(t *testing.T) {
	var cfg storage.Config
	require.NoError(t, cfg.Finalize(nil))

	assert.Equal(t, storage.ProviderLocal, cfg.Provider)
	assert.Equal(t, ".", cfg.Root)
}

func TestConfigEnvOverride(t *testing.T) {
	t.Setenv("TEST_STORAGE_PROVIDER", "azure")
	t.Setenv("TEST_STORAGE_CONNECTION_STRING", "UseDevelopmentStorage=true")

	env := &storage.Env{
		Provider:         "TEST_STORAGE_PROVIDER",
		ConnectionString: "TEST_STORAGE_CONNECTION_STRING",
	}

	var cfg storage.Config
	require.NoError(t, cfg.Finalize(env))

	assert.Equal(t, storage.ProviderAzure, cfg.Provider)
	assert.Equal(t, "UseDevelopmentStorage=true", cfg.ConnectionString)
}

func TestConfigValidation(t *testing.T) {
	azure := storage.Config{Provider: storage.ProviderAzure}
	assert.Error(t, azure.Finalize(nil), "azure without connection string")

	unknown := storage.Config{Provider: "ftp"}
	assert.ErrorIs(t, unknown.Finalize(nil), storage.ErrUnknownProvider)
}

func TestConfigMerge(t *testing.T) {
	base := storage.Config{Provider: "local", Root: "docs"}
	base.Merge(&storage.Config{Root: "other"})

	assert.Equal(t, "local", base.Provider)
	assert.Equal(t, "other", base.Root)
}
