package backtest

import (
	"context"
	"fmt"

	"market-sim-lab/internal/domain"
	"market-sim-lab/internal/execution"
)

// ThresholdStrategy buys when price falls below BuyBelow while flat and
// sells the whole position when price rises above SellAbove.
type ThresholdStrategy struct {
	Symbol    string // empty trades every symbol
	BuyBelow  float64
	SellAbove float64
	Quantity  float64 // 0 sizes entries from View.PositionSize
	SlackBps  float64 // limit price offset past the tick so the order can cross next tick
}

// NewThresholdStrategy validates and returns a threshold strategy.
func NewThresholdStrategy(symbol string, buyBelow, sellAbove, quantity, slackBps float64) (*ThresholdStrategy, error) {
	if buyBelow <= 0 || sellAbove <= 0 || buyBelow >= sellAbove {
		return nil, fmt.Errorf("threshold strategy: need 0 < buy_below < sell_above, got %v / %v", buyBelow, sellAbove)
	}
	if quantity < 0 || slackBps < 0 {
		return nil, fmt.Errorf("threshold strategy: negative quantity or slack")
	}
	return &ThresholdStrategy{
		Symbol:    symbol,
		BuyBelow:  buyBelow,
		SellAbove: sellAbove,
		Quantity:  quantity,
		SlackBps:  slackBps,
	}, nil
}

// Name returns the strategy identifier.
func (s *ThresholdStrategy) Name() string {
	return "threshold"
}

// OnRecord emits at most one order per record and none while orders are pending.
func (s *ThresholdStrategy) OnRecord(_ context.Context, rec domain.Record, view View) ([]execution.OrderRequest, error) {
	if s.Symbol != "" && rec.Symbol != s.Symbol {
		return nil, nil
	}
	price := rec.TickPrice()
	if price <= 0 || view.Pending() > 0 {
		return nil, nil
	}

	pos, _ := view.Position(rec.Symbol)
	slack := s.SlackBps / 10000

	switch {
	case pos.IsFlat() && price < s.BuyBelow:
		qty := s.Quantity
		if qty == 0 {
			qty = view.PositionSize() / price
		}
		if qty <= 0 {
			return nil, nil
		}
		return []execution.OrderRequest{{
			Symbol:     rec.Symbol,
			Side:       domain.SideBuy,
			Quantity:   qty,
			LimitPrice: price * (1 + slack),
		}}, nil

	case pos.Quantity > 0 && price > s.SellAbove:
		return []execution.OrderRequest{{
			Symbol:     rec.Symbol,
			Side:       domain.SideSell,
			Quantity:   pos.Quantity,
			LimitPrice: price * (1 - slack),
		}}, nil
	}
	return nil, nil
}

var _ Strategy = (*ThresholdStrategy)(nil)
