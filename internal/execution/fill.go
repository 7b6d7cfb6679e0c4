package execution

import (
	"fmt"

	"market-sim-lab/internal/domain"
)

// FillEngine decides whether an eligible order crosses a tick and prices the fill.
// It holds no state besides its slippage setting.
type FillEngine struct {
	slippageBps float64
}

// NewFillEngine creates a fill engine with adverse slippage in basis points.
func NewFillEngine(slippageBps float64) *FillEngine {
	return &FillEngine{slippageBps: slippageBps}
}

// Crosses reports whether a limit order on side is marketable at tickPrice.
func (f *FillEngine) Crosses(side domain.Side, limit, tickPrice float64) bool {
	if side == domain.SideBuy {
		return tickPrice <= limit
	}
	return tickPrice >= limit
}

// ExecutionPrice applies slippage against the order: buys pay more, sells receive less.
func (f *FillEngine) ExecutionPrice(side domain.Side, tickPrice float64) float64 {
	slip := tickPrice * (f.slippageBps / 10000)
	if side == domain.SideBuy {
		return tickPrice + slip
	}
	return tickPrice - slip
}

// TryFill returns the trade produced by o at tickPrice, or nil if the order does not cross.
// A non-positive or non-finite tick or execution price is an error.
func (f *FillEngine) TryFill(o *domain.Order, tickPrice float64, ts int64) (*domain.Trade, error) {
	if !positiveFinite(tickPrice) {
		return nil, fmt.Errorf("%w: tick price %v for order %d", ErrNonFinitePrice, tickPrice, o.ID)
	}
	if !f.Crosses(o.Side, o.LimitPrice, tickPrice) {
		return nil, nil
	}

	price := f.ExecutionPrice(o.Side, tickPrice)
	if !positiveFinite(price) {
		return nil, fmt.Errorf("%w: execution price %v for order %d", ErrNonFinitePrice, price, o.ID)
	}

	return &domain.Trade{
		OrderID:   o.ID,
		Symbol:    o.Symbol,
		Side:      o.Side,
		Quantity:  o.Quantity,
		Price:     price,
		TickPrice: tickPrice,
		Timestamp: ts,
	}, nil
}
