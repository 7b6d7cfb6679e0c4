package feed

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/shopspring/decimal"

	"market-sim-lab/internal/domain"
)

// SyntheticConfig describes a deterministic random-walk market.
type SyntheticConfig struct {
	Symbols    []string
	Start      int64   // first timestamp, ns
	Step       int64   // ns between ticks of one symbol
	Count      int     // ticks per symbol
	StartPrice float64 // initial last price of every symbol
	Volatility float64 // per-tick relative stddev, e.g. 0.001
	SpreadBps  float64 // quoted bid/ask spread
	Depth      int     // book levels per side, 0 for top of book only
	Seed       uint64
}

// DefaultSyntheticConfig returns a single-symbol walk good for demos and tests.
func DefaultSyntheticConfig() SyntheticConfig {
	return SyntheticConfig{
		Symbols:    []string{"AAPL"},
		Start:      1_704_067_200_000_000_000, // 2024-01-01 00:00:00 UTC
		Step:       1_000_000_000,
		Count:      1000,
		StartPrice: 150,
		Volatility: 0.001,
		SpreadBps:  2,
		Depth:      5,
		Seed:       1,
	}
}

// Validate checks the generator parameters.
func (c SyntheticConfig) Validate() error {
	switch {
	case len(c.Symbols) == 0:
		return fmt.Errorf("synthetic: no symbols")
	case c.Step <= 0:
		return fmt.Errorf("synthetic: step must be positive")
	case c.Count < 0:
		return fmt.Errorf("synthetic: negative count")
	case !(c.StartPrice > 0) || math.IsInf(c.StartPrice, 0):
		return fmt.Errorf("synthetic: start price must be positive")
	case c.Volatility < 0 || c.SpreadBps < 0 || c.Depth < 0:
		return fmt.Errorf("synthetic: negative volatility, spread or depth")
	}
	for _, s := range c.Symbols {
		if s == "" {
			return fmt.Errorf("synthetic: empty symbol")
		}
	}
	return nil
}

// Generate returns Count ticks per symbol ordered by (timestamp, symbol order).
// Equal seeds give identical output. Prices are rounded to 4 decimals.
func Generate(cfg SyntheticConfig) ([]domain.Record, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	prices := make([]float64, len(cfg.Symbols))
	for i := range prices {
		prices[i] = cfg.StartPrice
	}

	out := make([]domain.Record, 0, cfg.Count*len(cfg.Symbols))
	for n := 0; n < cfg.Count; n++ {
		ts := cfg.Start + int64(n)*cfg.Step
		for i, sym := range cfg.Symbols {
			if n > 0 {
				prices[i] *= math.Exp(rng.NormFloat64() * cfg.Volatility)
			}
			out = append(out, quoteAround(sym, ts, prices[i], cfg, rng))
		}
	}
	return out, nil
}

func quoteAround(symbol string, ts int64, price float64, cfg SyntheticConfig, rng *rand.Rand) domain.Record {
	half := price * cfg.SpreadBps / 10000 / 2
	tick := price * 0.0001

	r := domain.Record{
		Symbol:    symbol,
		Timestamp: ts,
		Price:     round4(price),
		Bid:       round4(price - half),
		Ask:       round4(price + half),
		BidSize:   float64(1 + rng.IntN(100)),
		AskSize:   float64(1 + rng.IntN(100)),
	}
	if cfg.Depth > 0 {
		r.Bids = make([]domain.Level, cfg.Depth)
		r.Asks = make([]domain.Level, cfg.Depth)
		r.Bids[0] = domain.Level{Price: r.Bid, Size: r.BidSize}
		r.Asks[0] = domain.Level{Price: r.Ask, Size: r.AskSize}
		for l := 1; l < cfg.Depth; l++ {
			off := float64(l) * tick
			r.Bids[l] = domain.Level{Price: round4(price - half - off), Size: float64(1 + rng.IntN(500))}
			r.Asks[l] = domain.Level{Price: round4(price + half + off), Size: float64(1 + rng.IntN(500))}
		}
	}
	return r
}

func round4(v float64) float64 {
	return decimal.NewFromFloat(v).Round(4).InexactFloat64()
}
