package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setMinimalEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvStoreBackend, "fs")
	t.Setenv(EnvStoreContainer, t.TempDir())
}

func TestLoadDefaults(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "info", cfg.App.LogLevel)
	require.Equal(t, "contracts.json", cfg.App.ContractPath)
	require.Equal(t, "clients.csv", cfg.Layout.Clients)
	require.Equal(t, "transactions", cfg.Layout.TransactionsPrefix)
	require.Equal(t, ';', cfg.Layout.DelimiterRune())
	require.Equal(t, "account_id", cfg.Layout.Account)
	require.Equal(t, 30*time.Second, cfg.Store.OpTimeout)
	require.Equal(t, uint64(20), cfg.Quarantine.PollAttempts)
	require.False(t, cfg.Quarantine.DeleteSource)
	require.Equal(t, 2*time.Hour, cfg.Lock.TTL)
}

func TestLoadOverrides(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvQuarantineDeleteSource, "true")
	t.Setenv(EnvLayoutDelimiter, ",")
	t.Setenv(EnvRunDate, "2023-10-02")
	t.Setenv(EnvLockRedisURL, "redis://localhost:6379/0")

	cfg, err := Load()
	require.NoError(t, err)
	require.True(t, cfg.Quarantine.DeleteSource)
	require.Equal(t, ',', cfg.Layout.DelimiterRune())
	require.Equal(t, "2023-10-02", cfg.App.RunDate)
	require.Equal(t, "redis://localhost:6379/0", cfg.Lock.RedisURL)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string][2]string{
		"backend":   {EnvStoreBackend, "ftp"},
		"run date":  {EnvRunDate, "02/10/2023"},
		"delimiter": {EnvLayoutDelimiter, ";;"},
		"format":    {EnvLogFormat, "xml"},
		"push url":  {EnvMetricsPushURL, "not a url"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			setMinimalEnv(t)
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			require.Error(t, err)
			require.Contains(t, err.Error(), "invalid config")
		})
	}
}

func TestAzureNeedsConnectionString(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvStoreBackend, "azure")
	t.Setenv(EnvStoreContainer, "data")

	_, err := Load()
	require.ErrorContains(t, err, EnvStoreConnectionString)
}

func TestConnectionStringFile(t *testing.T) {
	setMinimalEnv(t)
	path := filepath.Join(t.TempDir(), "conn")
	require.NoError(t, os.WriteFile(path, []byte("DefaultEndpointsProtocol=https;AccountName=x\n"), 0o600))
	t.Setenv(EnvStoreBackend, "azure")
	t.Setenv(EnvStoreContainer, "data")
	t.Setenv(EnvStoreConnectionStringFile, path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "DefaultEndpointsProtocol=https;AccountName=x", cfg.Store.ConnectionString)
}

func TestMemoryBackendNeedsNoContainer(t *testing.T) {
	t.Setenv(EnvStoreBackend, "memory")
	t.Setenv(EnvStoreContainer, "")

	_, err := Load()
	require.NoError(t, err)
}
