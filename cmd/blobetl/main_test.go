package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wdm0006/blobetl/pkg/config"
)

const contractJSON = `{
  "clients": {"id": "int64", "account_id": "object"},
  "stores": {"id": "int64", "latlng": "object"},
  "products": {"id": "int64", "name": "object"},
  "transactions": {"date": "object", "hour": "int64", "minute": "int64", "client_id": "int64"}
}`

// workspace lays out a container directory and a contract file, and isolates
// the variables the CLI flags write to.
func workspace(t *testing.T, objects map[string]string) (string, string) {
	t.Helper()
	for _, env := range []string{
		config.EnvStoreBackend, config.EnvStoreContainer, config.EnvContractPath,
		config.EnvLogLevel, config.EnvLogFormat, config.EnvQuarantineDeleteSource,
		config.EnvRunDate, config.EnvLockRedisURL, config.EnvMetricsPushURL,
	} {
		t.Setenv(env, "")
		require.NoError(t, os.Unsetenv(env))
	}
	t.Setenv(config.EnvLogLevel, "error")

	root := t.TempDir()
	data := filepath.Join(root, "data")
	for key, body := range objects {
		p := filepath.Join(data, filepath.FromSlash(key))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	contract := filepath.Join(root, "contracts.json")
	require.NoError(t, os.WriteFile(contract, []byte(contractJSON), 0o644))
	return data, contract
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func baseObjects() map[string]string {
	return map[string]string{
		"clients.csv":                   "id;account_id\n7;ACC-7\n",
		"stores.csv":                    "id;latlng\n1;(45.1,2.3)\n",
		"products.csv":                  "id;name\n1;apple\n",
		"transactions/2023-10-02_a.csv": "date;hour;minute;client_id\n2023-10-02;14;5;7\n",
		"transactions/2023-10-02_b.csv": "date;client\n2023-10-02;7\n",
	}
}

func TestRunCommand(t *testing.T) {
	data, contract := workspace(t, baseObjects())

	out, err := execute(t, "run", "--date", "2023-10-02", "--backend", "fs", "--container", data, "--contract", contract, "--delete-source")
	require.NoError(t, err, out)
	require.Contains(t, out, "formatted/transactions/date=2023-10-02/transactions.parquet (1 rows)")
	require.Contains(t, out, "transactions/2023-10-02_b.csv -> errors/transactions/2023-10-02_b.csv (schema)")

	require.FileExists(t, filepath.Join(data, "formatted", "transactions", "date=2023-10-02", "transactions.parquet"))
	require.FileExists(t, filepath.Join(data, "errors", "transactions", "2023-10-02_b.csv"))
	require.NoFileExists(t, filepath.Join(data, "transactions", "2023-10-02_b.csv"))

	out, err = execute(t, "inspect", "formatted/transactions/date=2023-10-02/transactions.parquet", "--backend", "fs", "--container", data, "--contract", contract)
	require.NoError(t, err, out)
	require.Contains(t, out, "ACC-7")
	require.Contains(t, out, "2023-10-02 14:05:00")
}

func TestRunClientsUnavailableExitCode(t *testing.T) {
	objects := baseObjects()
	objects["clients.csv"] = "id\n7\n"
	data, contract := workspace(t, objects)
	t.Setenv(config.EnvRunDate, "2023-10-02")

	_, err := execute(t, "run", "--date", "2023-10-02", "--backend", "fs", "--container", data, "--contract", contract)
	var ee *exitError
	require.True(t, errors.As(err, &ee))
	require.Equal(t, exitClientsUnavailable, ee.code)
	require.FileExists(t, filepath.Join(data, "formatted", "stores", "date=2023-10-02", "stores.parquet"))
	require.NoDirExists(t, filepath.Join(data, "formatted", "transactions"))
}

func TestRunRejectsMalformedDate(t *testing.T) {
	data, contract := workspace(t, baseObjects())

	_, err := execute(t, "run", "--date", "2023-10-32", "--backend", "fs", "--container", data, "--contract", contract)
	require.ErrorContains(t, err, "invalid date")
	require.NoDirExists(t, filepath.Join(data, "formatted"))
}

func TestCheckCommand(t *testing.T) {
	data, contract := workspace(t, baseObjects())
	args := []string{"--backend", "fs", "--container", data, "--contract", contract}

	out, err := execute(t, append([]string{"check", "clients.csv", "--kind", "clients"}, args...)...)
	require.NoError(t, err, out)
	require.Contains(t, out, "OK")

	out, err = execute(t, append([]string{"check", "transactions/2023-10-02_b.csv", "--kind", "transactions"}, args...)...)
	require.Error(t, err)
	require.Contains(t, out, `missing column "hour"`)
	require.Contains(t, out, `unexpected column "client"`)
}

func TestVersionNeedsNoConfig(t *testing.T) {
	t.Setenv(config.EnvStoreBackend, "nonsense")
	out, err := execute(t, "version")
	require.NoError(t, err)
	require.Contains(t, out, "blobetl "+version)
}
