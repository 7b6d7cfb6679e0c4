// Package config loads process configuration from .env files and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"market-sim-lab/internal/domain"
	"market-sim-lab/internal/execution"
)

// Environment keys.
const (
	EnvInitialBalance = "SIM_INITIAL_BALANCE"
	EnvSlippageBps    = "SIM_SLIPPAGE_BPS"
	EnvLatencyNs      = "SIM_LATENCY_NS"
	EnvCommission     = "SIM_COMMISSION"
	EnvRiskPerTrade   = "SIM_RISK_PER_TRADE"
	EnvProfile        = "SIM_PROFILE"
	EnvSpeed          = "SIM_SPEED"
	EnvPostgresDSN    = "POSTGRES_DSN"
	EnvClickhouseDSN  = "CLICKHOUSE_DSN"
	EnvRedisAddr      = "REDIS_ADDR"
	EnvMetricsAddr    = "METRICS_ADDR"
	EnvLogLevel       = "LOG_LEVEL"
)

// Config is the process configuration shared by the commands.
type Config struct {
	Sim     execution.Config
	Profile string  // empty when Sim was not derived from a profile
	Speed   float64 // replay speed multiplier, 0 replays as fast as possible

	PostgresDSN   string
	ClickhouseDSN string
	RedisAddr     string
	MetricsAddr   string
	LogLevel      string
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Sim:      execution.DefaultConfig(),
		LogLevel: "info",
	}
}

// Load reads envPath (".env" when empty) if it exists, then the environment.
// Priority: environment > .env file > profile > defaults.
func Load(envPath string) (Config, error) {
	if envPath == "" {
		envPath = ".env"
	}
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envPath, err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a config from getenv without touching any file.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Default()

	if name := getenv(EnvProfile); name != "" {
		p, err := domain.ProfileByName(name)
		if err != nil {
			return Config{}, err
		}
		cfg.Sim = execution.ConfigFromProfile(p, cfg.Sim.InitialBalance)
		cfg.Profile = p.Name
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{EnvInitialBalance, &cfg.Sim.InitialBalance},
		{EnvSlippageBps, &cfg.Sim.SlippageBps},
		{EnvCommission, &cfg.Sim.Commission},
		{EnvRiskPerTrade, &cfg.Sim.RiskPerTrade},
		{EnvSpeed, &cfg.Speed},
	}
	for _, f := range floats {
		v := getenv(f.key)
		if v == "" {
			continue
		}
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", f.key, err)
		}
		*f.dst = parsed
	}

	if v := getenv(EnvLatencyNs); v != "" {
		ns, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", EnvLatencyNs, err)
		}
		cfg.Sim.Latency = ns
	}

	cfg.PostgresDSN = getenv(EnvPostgresDSN)
	cfg.ClickhouseDSN = getenv(EnvClickhouseDSN)
	cfg.RedisAddr = getenv(EnvRedisAddr)
	cfg.MetricsAddr = getenv(EnvMetricsAddr)
	if v := getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}

	if err := cfg.Sim.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
