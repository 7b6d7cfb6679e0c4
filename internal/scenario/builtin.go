package scenario

import (
	"fmt"

	"market-sim-lab/internal/domain"
)

// Built-in scenario names.
const (
	PriceShock      = "price_shock"
	SpreadWiden     = "spread_widen"
	LiquidityDrain  = "liquidity_drain"
	FlashCrash      = "flash_crash"
	WideSpreadGuard = "wide_spread_guard"
)

// PriceShockTransform scales every price in the record by (1 + pct).
func PriceShockTransform(pct float64) Transform {
	return func(r domain.Record) (domain.Record, error) {
		factor := 1 + pct
		if factor <= 0 {
			return r, fmt.Errorf("price shock %.4f would make prices non-positive", pct)
		}
		r.Price *= factor
		r.Bid *= factor
		r.Ask *= factor
		for i := range r.Bids {
			r.Bids[i].Price *= factor
		}
		for i := range r.Asks {
			r.Asks[i].Price *= factor
		}
		return r, nil
	}
}

// SpreadWidenTransform moves the best bid down and the best ask up by half of
// bps of mid each. Level prices shift by the same amounts.
func SpreadWidenTransform(bps float64) Transform {
	return func(r domain.Record) (domain.Record, error) {
		mid := r.Mid()
		if mid == 0 {
			return r, nil
		}
		half := mid * bps / 10000 / 2
		if r.Bid > 0 {
			r.Bid -= half
		}
		if r.Ask > 0 {
			r.Ask += half
		}
		for i := range r.Bids {
			r.Bids[i].Price -= half
		}
		for i := range r.Asks {
			r.Asks[i].Price += half
		}
		return r, nil
	}
}

// LiquidityDrainTransform removes fraction of the displayed size on both sides.
func LiquidityDrainTransform(fraction float64) Transform {
	return func(r domain.Record) (domain.Record, error) {
		if fraction < 0 || fraction > 1 {
			return r, fmt.Errorf("liquidity drain fraction %.4f out of [0,1]", fraction)
		}
		keep := 1 - fraction
		r.BidSize *= keep
		r.AskSize *= keep
		for i := range r.Bids {
			r.Bids[i].Size *= keep
		}
		for i := range r.Asks {
			r.Asks[i].Size *= keep
		}
		return r, nil
	}
}

// PriceBelow matches records whose tick price is positive and below threshold.
func PriceBelow(threshold float64) Trigger {
	return func(r domain.Record) bool {
		p := r.TickPrice()
		return p > 0 && p < threshold
	}
}

// PriceAbove matches records whose tick price is above threshold.
func PriceAbove(threshold float64) Trigger {
	return func(r domain.Record) bool {
		return r.TickPrice() > threshold
	}
}

// SpreadAboveBps matches records quoting a spread wider than bps.
func SpreadAboveBps(bps float64) Trigger {
	return func(r domain.Record) bool {
		return r.SpreadBps() > bps
	}
}

// RegisterBuiltins registers the default static scenarios and, when the
// thresholds are positive, the dynamic ones.
func RegisterBuiltins(e *Engine, crashBelow, guardSpreadBps float64) error {
	statics := []struct {
		name string
		t    Transform
	}{
		{PriceShock, PriceShockTransform(-0.05)},
		{SpreadWiden, SpreadWidenTransform(25)},
		{LiquidityDrain, LiquidityDrainTransform(0.5)},
	}
	for _, s := range statics {
		if err := e.RegisterStatic(s.name, s.t); err != nil {
			return err
		}
	}

	if crashBelow > 0 {
		if err := e.RegisterDynamic(FlashCrash, PriceBelow(crashBelow), PriceShockTransform(-0.10)); err != nil {
			return err
		}
	}
	if guardSpreadBps > 0 {
		if err := e.RegisterDynamic(WideSpreadGuard, SpreadAboveBps(guardSpreadBps), SpreadWidenTransform(guardSpreadBps)); err != nil {
			return err
		}
	}
	return nil
}
