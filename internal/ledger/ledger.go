package ledger

import (
	"math"
	"sort"
	"sync"

	"market-sim-lab/internal/domain"
)

// Ledger holds positions, cash balance and the trade log.
// It is safe for concurrent use; its lock is independent of the order queue.
type Ledger struct {
	mu sync.RWMutex

	initialBalance  float64
	balance         float64
	commission      float64
	totalCommission float64

	positions map[string]*domain.Position
	trades    []domain.Trade
	closed    []domain.ClosedTrade
	equity    []domain.EquityPoint
}

// New creates a ledger with the given starting balance and fixed commission per fill.
func New(initialBalance, commission float64) *Ledger {
	return &Ledger{
		initialBalance: initialBalance,
		balance:        initialBalance,
		commission:     commission,
		positions:      make(map[string]*domain.Position),
		equity:         []domain.EquityPoint{{Seq: 0, Balance: initialBalance}},
	}
}

// Apply books a trade: updates the position, balance, trade log and,
// when the fill realizes PnL, the closed-trade log and equity curve.
// Returns a copy of the resulting position.
func (l *Ledger) Apply(t domain.Trade) domain.Position {
	l.mu.Lock()
	defer l.mu.Unlock()

	pos, ok := l.positions[t.Symbol]
	if !ok {
		pos = &domain.Position{Symbol: t.Symbol}
		l.positions[t.Symbol] = pos
	}

	res := applyFill(pos, t.SignedQuantity(), t.Price)

	l.balance -= l.commission
	l.totalCommission += l.commission
	l.trades = append(l.trades, t)

	if res.closedQty > 0 {
		l.balance += res.realized
		l.closed = append(l.closed, domain.ClosedTrade{
			OrderID:      t.OrderID,
			Symbol:       t.Symbol,
			Side:         t.Side,
			Quantity:     res.closedQty,
			EntryPrice:   res.entryPrice,
			ExitPrice:    t.Price,
			PnL:          res.realized - l.commission,
			BalanceAfter: l.balance,
			Timestamp:    t.Timestamp,
		})
		l.equity = append(l.equity, domain.EquityPoint{
			Seq:       len(l.equity),
			Timestamp: t.Timestamp,
			Balance:   l.balance,
		})
	}

	if !pos.IsFlat() && pos.MarkPrice > 0 {
		pos.UnrealizedPnL = pos.UnrealizedAt(pos.MarkPrice)
	}
	return *pos
}

// Mark revalues the open position in symbol at price. Prices that are not
// positive and finite are ignored, so the previous mark stands.
func (l *Ledger) Mark(symbol string, price float64) {
	if !(price > 0) || math.IsInf(price, 1) {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	pos, ok := l.positions[symbol]
	if !ok {
		return
	}
	pos.MarkPrice = price
	pos.UnrealizedPnL = pos.UnrealizedAt(price)
}

// Position returns a copy of the position in symbol.
func (l *Ledger) Position(symbol string) (domain.Position, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	pos, ok := l.positions[symbol]
	if !ok {
		return domain.Position{}, false
	}
	return *pos, true
}

// Positions returns copies of all positions ordered by symbol.
func (l *Ledger) Positions() []domain.Position {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]domain.Position, 0, len(l.positions))
	for _, p := range l.positions {
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Symbol < result[j].Symbol
	})
	return result
}

// Balance returns the current cash balance.
func (l *Ledger) Balance() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balance
}

// InitialBalance returns the starting balance.
func (l *Ledger) InitialBalance() float64 {
	return l.initialBalance
}

// TotalCommission returns the commission charged so far.
func (l *Ledger) TotalCommission() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.totalCommission
}

// PositionSize returns the capital to commit to one trade at the given risk fraction.
func (l *Ledger) PositionSize(riskPerTrade float64) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balance * riskPerTrade
}

// Trades returns a copy of the trade log in fill order.
func (l *Ledger) Trades() []domain.Trade {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]domain.Trade(nil), l.trades...)
}

// ClosedTrades returns a copy of the closed-trade log in fill order.
func (l *Ledger) ClosedTrades() []domain.ClosedTrade {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]domain.ClosedTrade(nil), l.closed...)
}

// EquityCurve returns a copy of the equity curve. The first point is the initial balance.
func (l *Ledger) EquityCurve() []domain.EquityPoint {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]domain.EquityPoint(nil), l.equity...)
}

// RealizedPnL returns the sum of realized PnL across all symbols, gross of commission.
func (l *Ledger) RealizedPnL() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var total float64
	for _, p := range l.positions {
		total += p.RealizedPnL
	}
	return total
}
