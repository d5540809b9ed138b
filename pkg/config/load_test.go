package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://api.xero.com/api.xro/2.0", cfg.Xero.APIBaseURL)
	assert.Equal(t, "https://identity.xero.com/connect/token", cfg.Xero.TokenURL)
	assert.Equal(t, 2, cfg.Sync.Days)
	assert.Equal(t, 100, cfg.Sync.MaxOrders)
	assert.Equal(t, 100, cfg.Sync.BatchSize)
	assert.Equal(t, 50, cfg.Sync.ReferenceChunkSize)
	assert.Equal(t, 25, cfg.Sync.SKUChunkSize)
	assert.Equal(t, "200", cfg.Sync.DefaultAccountCode)
	assert.Equal(t, "NONE", cfg.Sync.DefaultTaxType)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.False(t, cfg.Trigger.Enabled)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.toml")
	content := `
[xero]
clientid = "file-client"

[sync]
days = 7
batchsize = 25

[database]
driver = "postgres"
dsn = "host=localhost dbname=books"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file-client", cfg.Xero.ClientID)
	assert.Equal(t, 7, cfg.Sync.Days)
	assert.Equal(t, 25, cfg.Sync.BatchSize)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	// untouched keys keep their defaults
	assert.Equal(t, 100, cfg.Sync.MaxOrders)
	assert.Equal(t, "https://api.xero.com/api.xro/2.0", cfg.Xero.APIBaseURL)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("BOOKS_XERO_CLIENT_ID", "env-client")
	t.Setenv("BOOKS_SYNC_BATCH_SIZE", "10")
	t.Setenv("BOOKS_TRIGGER_ENABLED", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "env-client", cfg.Xero.ClientID)
	assert.Equal(t, 10, cfg.Sync.BatchSize)
	assert.True(t, cfg.Trigger.Enabled)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}
