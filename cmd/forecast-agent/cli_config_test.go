package main

import (
	"os"
	"path/filepath"
	"testing"

	configpkg "github.com/minhyannv/forecast-agent-go/pkg/config"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("forecast-agent", pflag.ContinueOnError)
	registerFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range []string{
		configpkg.EnvAPIKey, configpkg.EnvEndpoint, configpkg.EnvDeployment, configpkg.EnvAPIVersion,
		"FORECAST_AGENT_MODE", "FORECAST_AGENT_MAX_TURNS", "FORECAST_AGENT_VERBOSE",
		"FORECAST_AGENT_WORK_DIR", "FORECAST_AGENT_INSTRUCTION",
	} {
		t.Setenv(env, "")
		require.NoError(t, os.Unsetenv(env))
	}
}

func TestLoadCLIConfigDefaults(t *testing.T) {
	clearEnv(t)
	fs := newFlagSet(t)

	cfg, err := loadCLIConfig(fs, fs.Args())
	require.NoError(t, err)
	assert.Equal(t, configpkg.ModeReact, cfg.Mode)
	assert.Equal(t, configpkg.DefaultConfig().MaxTurns, cfg.MaxTurns)
	assert.Equal(t, configpkg.DefaultInstruction, cfg.Instruction)
	assert.Empty(t, cfg.APIKey)
}

func TestLoadCLIConfigReadsAzureEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(configpkg.EnvAPIKey, "secret")
	t.Setenv(configpkg.EnvEndpoint, "https://example.openai.azure.com/")
	t.Setenv(configpkg.EnvDeployment, "gpt-4o")
	t.Setenv(configpkg.EnvAPIVersion, "2024-06-01")
	fs := newFlagSet(t)

	cfg, err := loadCLIConfig(fs, nil)
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, "https://example.openai.azure.com/", cfg.Endpoint)
	assert.Equal(t, "gpt-4o", cfg.Deployment)
	assert.Equal(t, "2024-06-01", cfg.APIVersion)
}

func TestLoadCLIConfigPrecedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "agent.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mode: functions\nmax_turns: 4\nwork_dir: from-file\n"), 0o644))
	t.Setenv("FORECAST_AGENT_MAX_TURNS", "6")

	fs := newFlagSet(t, "--config", path, "--work-dir", "from-flag")
	cfg, err := loadCLIConfig(fs, fs.Args())
	require.NoError(t, err)
	assert.Equal(t, configpkg.ModeFunctions, cfg.Mode, "config file over default")
	assert.Equal(t, 6, cfg.MaxTurns, "env over config file")
	assert.Equal(t, "from-flag", cfg.WorkDir, "flag over config file")
}

func TestLoadCLIConfigPositionalInstruction(t *testing.T) {
	clearEnv(t)
	fs := newFlagSet(t, "--plain", "Use", "'forecast_timeseries'", "on", "'data.csv, 10'")

	cfg, err := loadCLIConfig(fs, fs.Args())
	require.NoError(t, err)
	assert.True(t, cfg.Plain)
	assert.Equal(t, "Use 'forecast_timeseries' on 'data.csv, 10'", cfg.Instruction)
}

func TestLoadCLIConfigRejectsUnknownMode(t *testing.T) {
	clearEnv(t)
	fs := newFlagSet(t, "--mode", "chat")

	_, err := loadCLIConfig(fs, nil)
	assert.ErrorContains(t, err, "invalid config")
}

func TestLoadCLIConfigMissingFile(t *testing.T) {
	clearEnv(t)
	fs := newFlagSet(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := loadCLIConfig(fs, nil)
	assert.ErrorContains(t, err, "read config")
}
