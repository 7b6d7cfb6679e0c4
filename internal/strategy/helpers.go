package strategy

import (
	"market-sim-lab/internal/domain"
	"market-sim-lab/internal/execution"
)

// buyAt builds a buy limit slackBps above price.
func buyAt(symbol string, qty, price, slackBps float64) execution.OrderRequest {
	return execution.OrderRequest{
		Symbol:     symbol,
		Side:       domain.SideBuy,
		Quantity:   qty,
		LimitPrice: price * (1 + slackBps/10000),
	}
}

// sellAt builds a sell limit slackBps below price.
func sellAt(symbol string, qty, price, slackBps float64) execution.OrderRequest {
	return execution.OrderRequest{
		Symbol:     symbol,
		Side:       domain.SideSell,
		Quantity:   qty,
		LimitPrice: price * (1 - slackBps/10000),
	}
}

// held returns how long h has been open at ts.
func held(h *holding, ts int64) int64 {
	return ts - h.entryTs
}
