package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-sim-lab/internal/domain"
	"market-sim-lab/internal/execution"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(envMap(nil))
	require.NoError(t, err)
	assert.Equal(t, execution.DefaultConfig(), cfg.Sim)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.Profile)
}

func TestFromEnv_ProfileThenOverrides(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		EnvProfile:        domain.ProfilePessimistic,
		EnvInitialBalance: "5000",
		EnvCommission:     "0.25",
		EnvSpeed:          "10",
		EnvPostgresDSN:    "postgres://x",
		EnvLogLevel:       "debug",
	}))
	require.NoError(t, err)

	assert.Equal(t, domain.ProfilePessimistic, cfg.Profile)
	assert.Equal(t, 5000.0, cfg.Sim.InitialBalance)
	assert.Equal(t, domain.ProfileConfigPessimistic.SlippageBps, cfg.Sim.SlippageBps)
	assert.Equal(t, domain.ProfileConfigPessimistic.Latency.Nanoseconds(), cfg.Sim.Latency)
	assert.Equal(t, 0.25, cfg.Sim.Commission)
	assert.Equal(t, 10.0, cfg.Speed)
	assert.Equal(t, "postgres://x", cfg.PostgresDSN)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestFromEnv_Errors(t *testing.T) {
	_, err := FromEnv(envMap(map[string]string{EnvSlippageBps: "wide"}))
	assert.Error(t, err)

	_, err = FromEnv(envMap(map[string]string{EnvLatencyNs: "1.5"}))
	assert.Error(t, err)

	_, err = FromEnv(envMap(map[string]string{EnvProfile: "heroic"}))
	assert.Error(t, err)

	_, err = FromEnv(envMap(map[string]string{EnvRiskPerTrade: "2"}))
	assert.ErrorIs(t, err, execution.ErrInvalidConfig)
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SIM_LATENCY_NS=2500\nREDIS_ADDR=localhost:6379\n"), 0o600))

	t.Setenv(EnvLatencyNs, "")
	t.Setenv(EnvRedisAddr, "")
	// godotenv does not override variables that are already set
	require.NoError(t, os.Unsetenv(EnvLatencyNs))
	require.NoError(t, os.Unsetenv(EnvRedisAddr))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), cfg.Sim.Latency)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestLoad_MissingFileIsFine(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}
