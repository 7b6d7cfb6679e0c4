package domain

// Trade is an immutable fill record.
type Trade struct {
	TradeID   string // deterministic, see idhash.ComputeTradeID
	OrderID   uint64
	Symbol    string
	Side      Side
	Quantity  float64
	Price     float64 // execution price after slippage
	TickPrice float64 // tick price the fill was taken against
	Timestamp int64   // tick timestamp, ns
}

// SignedQuantity returns the position delta produced by the trade.
func (t Trade) SignedQuantity() float64 {
	return t.Side.Sign() * t.Quantity
}

// ClosedTrade records a fill that reduced, closed or flipped a position.
type ClosedTrade struct {
	OrderID      uint64
	Symbol       string
	Side         Side    // side of the closing fill
	Quantity     float64 // quantity closed, not the fill quantity
	EntryPrice   float64
	ExitPrice    float64
	PnL          float64 // realized PnL net of the closing fill's commission
	BalanceAfter float64
	Timestamp    int64
}

// IsWin reports whether the closed trade made money.
func (c ClosedTrade) IsWin() bool {
	return c.PnL > 0
}

// EquityPoint is one sample of the account balance.
type EquityPoint struct {
	Seq       int
	Timestamp int64
	Balance   float64
}
