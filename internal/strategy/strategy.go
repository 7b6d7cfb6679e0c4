package strategy

import (
	"context"

	"market-sim-lab/internal/backtest"
	"market-sim-lab/internal/domain"
	"market-sim-lab/internal/execution"
)

// Exit reasons
const (
	ExitReasonTimeExit      = "TIME_EXIT"
	ExitReasonInitialStop   = "INITIAL_STOP"
	ExitReasonTrailingStop  = "TRAILING_STOP"
	ExitReasonMaxDuration   = "MAX_DURATION"
	ExitReasonLiquidityDrop = "LIQUIDITY_DROP"
)

// Entry holds the entry settings shared by the exit strategies.
// Each symbol is entered at most once.
type Entry struct {
	Symbol   string  // empty trades every symbol
	Below    float64 // enter when the tick price is below Below, 0 enters on the first tick
	Quantity float64 // 0 sizes from View.PositionSize
	SlackBps float64 // limit price offset past the tick so the order can cross next tick
}

// Exit records an exit decision.
type Exit struct {
	Symbol    string
	Timestamp int64
	Price     float64 // tick price that triggered the exit
	Reason    string
}

// holding tracks one symbol from entry to exit.
type holding struct {
	entered bool   // entry order placed
	open    bool   // entry filled
	exiting string // exit reason once an exit order was placed
	done    bool

	entryTs        int64
	entryPrice     float64
	peak           float64
	entryLiquidity float64
	minLiquidity   float64
}

// exitRule decides whether an open holding closes on rec.
type exitRule func(h *holding, rec domain.Record, price float64) (reason string, ok bool)

// base implements the entry/exit lifecycle; strategies supply the exit rule.
// Orders cancelled by the simulator are retried on the next record.
type base struct {
	entry Entry
	rule  exitRule

	// needsLiquidity restricts entries to records quoting a bid size.
	needsLiquidity bool

	holdings map[string]*holding
	exits    []Exit
}

func newBase(entry Entry, rule exitRule) base {
	return base{
		entry:    entry,
		rule:     rule,
		holdings: make(map[string]*holding),
	}
}

// Exits returns the exit decisions in the order they were taken.
func (b *base) Exits() []Exit {
	return append([]Exit(nil), b.exits...)
}

func (b *base) onRecord(_ context.Context, rec domain.Record, view backtest.View) ([]execution.OrderRequest, error) {
	if b.entry.Symbol != "" && rec.Symbol != b.entry.Symbol {
		return nil, nil
	}
	price := rec.TickPrice()
	if price <= 0 || view.Pending() > 0 {
		return nil, nil
	}

	h := b.holdings[rec.Symbol]
	if h == nil {
		h = &holding{}
		b.holdings[rec.Symbol] = h
	}
	if h.done {
		return nil, nil
	}

	pos, _ := view.Position(rec.Symbol)

	if !h.entered {
		if b.entry.Below > 0 && price >= b.entry.Below {
			return nil, nil
		}
		if b.needsLiquidity && rec.BidSize <= 0 {
			return nil, nil
		}
		qty := b.entry.Quantity
		if qty == 0 {
			qty = view.PositionSize() / price
		}
		if qty <= 0 {
			return nil, nil
		}
		h.entered = true
		return []execution.OrderRequest{buyAt(rec.Symbol, qty, price, b.entry.SlackBps)}, nil
	}

	if !h.open {
		if pos.Quantity <= 0 {
			// entry was cancelled
			h.entered = false
			return nil, nil
		}
		h.open = true
		h.entryTs = rec.Timestamp
		h.entryPrice = pos.AvgPrice
		h.peak = price
		h.entryLiquidity = rec.BidSize
		h.minLiquidity = rec.BidSize
	}

	if pos.Quantity <= 0 {
		h.done = true
		return nil, nil
	}

	if price > h.peak {
		h.peak = price
	}
	if rec.BidSize > 0 && rec.BidSize < h.minLiquidity {
		h.minLiquidity = rec.BidSize
	}

	if h.exiting == "" {
		reason, ok := b.rule(h, rec, price)
		if !ok {
			return nil, nil
		}
		h.exiting = reason
		b.exits = append(b.exits, Exit{
			Symbol:    rec.Symbol,
			Timestamp: rec.Timestamp,
			Price:     price,
			Reason:    reason,
		})
	}
	return []execution.OrderRequest{sellAt(rec.Symbol, pos.Quantity, price, b.entry.SlackBps)}, nil
}
