package domain

// Position is the net holding in one symbol.
// AvgPrice is meaningful only while Quantity is non-zero.
type Position struct {
	Symbol        string
	Quantity      float64 // signed: positive long, negative short
	AvgPrice      float64
	RealizedPnL   float64
	UnrealizedPnL float64 // as of the last mark
	MarkPrice     float64
}

// IsFlat reports whether the position holds no quantity.
func (p Position) IsFlat() bool {
	return p.Quantity == 0
}

// UnrealizedAt returns the open PnL if the position were marked at price.
func (p Position) UnrealizedAt(price float64) float64 {
	if p.IsFlat() {
		return 0
	}
	return (price - p.AvgPrice) * p.Quantity
}
