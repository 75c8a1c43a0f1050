package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadReadsFileAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
[database]
path = "/tmp/ledger.db"

[storage]
backend = "fs"
dir = "/tmp/blobs"
`)
	t.Setenv("HANGARLEDGER_CONFIG", path)
	t.Setenv("HANGARLEDGER_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "/tmp/ledger.db", cfg.Database.Path)
	require.Equal(t, "fs", cfg.Storage.Backend)
	require.Equal(t, "/tmp/blobs", cfg.Storage.Dir)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadRejectsGCSWithoutBucket(t *testing.T) {
	path := writeConfig(t, `
[storage]
backend = "gcs"
`)
	t.Setenv("HANGARLEDGER_CONFIG", path)

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "Bucket")
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	t.Parallel()
	cfg := Config{
		Database: DatabaseConfig{Path: "x.db"},
		Storage:  StorageConfig{Backend: "s3"},
		Log:      LogConfig{Level: "info"},
	}
	require.Error(t, Validate(cfg))
}
