package execution

import (
	"fmt"
	"math"

	"market-sim-lab/internal/domain"
)

// Config holds simulator parameters.
type Config struct {
	InitialBalance float64
	SlippageBps    float64
	Latency        int64 // ns
	Commission     float64
	RiskPerTrade   float64
}

// DefaultConfig returns the simulator defaults.
func DefaultConfig() Config {
	return Config{
		InitialBalance: 1_000_000,
		SlippageBps:    0.5,
		Latency:        1_000_000,
		Commission:     0,
		RiskPerTrade:   0.01,
	}
}

// ConfigFromProfile builds a config from an execution profile.
func ConfigFromProfile(p domain.ExecutionProfile, initialBalance float64) Config {
	cfg := DefaultConfig()
	cfg.InitialBalance = initialBalance
	cfg.SlippageBps = p.SlippageBps
	cfg.Latency = p.Latency.Nanoseconds()
	cfg.Commission = p.Commission
	return cfg
}

// Validate checks that all parameters are finite and in range.
func (c Config) Validate() error {
	switch {
	case !finite(c.InitialBalance) || c.InitialBalance < 0:
		return fmt.Errorf("%w: initial balance %v", ErrInvalidConfig, c.InitialBalance)
	case !finite(c.SlippageBps) || c.SlippageBps < 0:
		return fmt.Errorf("%w: slippage bps %v", ErrInvalidConfig, c.SlippageBps)
	case c.Latency < 0:
		return fmt.Errorf("%w: latency %d", ErrInvalidConfig, c.Latency)
	case !finite(c.Commission) || c.Commission < 0:
		return fmt.Errorf("%w: commission %v", ErrInvalidConfig, c.Commission)
	case !finite(c.RiskPerTrade) || c.RiskPerTrade < 0 || c.RiskPerTrade > 1:
		return fmt.Errorf("%w: risk per trade %v", ErrInvalidConfig, c.RiskPerTrade)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func positiveFinite(v float64) bool {
	return finite(v) && v > 0
}
