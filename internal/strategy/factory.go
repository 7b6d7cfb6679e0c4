package strategy

import (
	"errors"
	"strings"
	"time"

	"market-sim-lab/internal/backtest"
)

// Strategy types
const (
	TypeThreshold      = "THRESHOLD"
	TypeTimeExit       = "TIME_EXIT"
	TypeTrailingStop   = "TRAILING_STOP"
	TypeLiquidityGuard = "LIQUIDITY_GUARD"
)

// Factory errors
var (
	ErrUnknownStrategyType     = errors.New("unknown strategy type")
	ErrMissingHoldDuration     = errors.New("TIME_EXIT requires HoldDuration")
	ErrMissingTrailPct         = errors.New("TRAILING_STOP requires TrailPct")
	ErrMissingInitialStopPct   = errors.New("TRAILING_STOP requires InitialStopPct")
	ErrMissingMaxHoldDuration  = errors.New("TRAILING_STOP/LIQUIDITY_GUARD requires MaxHold")
	ErrMissingLiquidityDropPct = errors.New("LIQUIDITY_GUARD requires LiquidityDropPct")
)

// Config selects and parameterizes a strategy. Unused fields are ignored.
type Config struct {
	Type  string // case-insensitive
	Entry Entry

	SellAbove        float64       // THRESHOLD
	HoldDuration     time.Duration // TIME_EXIT
	TrailPct         float64       // TRAILING_STOP
	InitialStopPct   float64       // TRAILING_STOP
	MaxHold          time.Duration // TRAILING_STOP, LIQUIDITY_GUARD
	LiquidityDropPct float64       // LIQUIDITY_GUARD
}

// FromConfig creates a strategy from cfg.
// Validates required parameters per strategy type.
func FromConfig(cfg Config) (backtest.Strategy, error) {
	switch strings.ToUpper(cfg.Type) {
	case TypeThreshold:
		return backtest.NewThresholdStrategy(cfg.Entry.Symbol, cfg.Entry.Below, cfg.SellAbove, cfg.Entry.Quantity, cfg.Entry.SlackBps)
	case TypeTimeExit:
		return fromTimeExitConfig(cfg)
	case TypeTrailingStop:
		return fromTrailingStopConfig(cfg)
	case TypeLiquidityGuard:
		return fromLiquidityGuardConfig(cfg)
	default:
		return nil, ErrUnknownStrategyType
	}
}

// fromTimeExitConfig creates TimeExitStrategy from config.
func fromTimeExitConfig(cfg Config) (*TimeExitStrategy, error) {
	if cfg.HoldDuration <= 0 {
		return nil, ErrMissingHoldDuration
	}

	return NewTimeExitStrategy(cfg.Entry, cfg.HoldDuration), nil
}

// fromTrailingStopConfig creates TrailingStopStrategy from config.
func fromTrailingStopConfig(cfg Config) (*TrailingStopStrategy, error) {
	if cfg.TrailPct <= 0 {
		return nil, ErrMissingTrailPct
	}
	if cfg.InitialStopPct <= 0 {
		return nil, ErrMissingInitialStopPct
	}
	if cfg.MaxHold <= 0 {
		return nil, ErrMissingMaxHoldDuration
	}

	return NewTrailingStopStrategy(cfg.Entry, cfg.TrailPct, cfg.InitialStopPct, cfg.MaxHold), nil
}

// fromLiquidityGuardConfig creates LiquidityGuardStrategy from config.
func fromLiquidityGuardConfig(cfg Config) (*LiquidityGuardStrategy, error) {
	if cfg.LiquidityDropPct <= 0 {
		return nil, ErrMissingLiquidityDropPct
	}
	if cfg.MaxHold <= 0 {
		return nil, ErrMissingMaxHoldDuration
	}

	return NewLiquidityGuardStrategy(cfg.Entry, cfg.LiquidityDropPct, cfg.MaxHold), nil
}
