package ledger

import (
	"math"

	"market-sim-lab/internal/domain"
)

// qtyEpsilon absorbs float residue when a fill closes a position exactly.
const qtyEpsilon = 1e-9

// fillResult describes what a single fill did to a position.
type fillResult struct {
	realized   float64 // realized PnL of the closed portion
	closedQty  float64 // quantity closed; 0 for pure opens/adds
	entryPrice float64 // average price of the closed portion
}

// applyFill updates p with a signed fill of delta at price.
//
// Same-sign fills re-weight the average price. Opposite-sign fills realize
// (price - avg) * closed * sign(prior) on the closed portion; a partial reduce
// keeps the average, a close resets it and a flip opens the remainder at price.
// This differs from (price - avg) * -qty_before, which has the wrong sign for
// longs and ignores fills that only partly reduce; PnL is realized on every
// reduce, partial or not.
func applyFill(p *domain.Position, delta, price float64) fillResult {
	prev := p.Quantity
	next := prev + delta
	if math.Abs(next) < qtyEpsilon {
		next = 0
	}

	var res fillResult
	switch {
	case prev == 0:
		p.AvgPrice = price
	case sameSign(prev, delta):
		p.AvgPrice = (p.AvgPrice*math.Abs(prev) + price*math.Abs(delta)) / math.Abs(next)
	default:
		res.closedQty = math.Min(math.Abs(delta), math.Abs(prev))
		res.entryPrice = p.AvgPrice
		res.realized = (price - p.AvgPrice) * res.closedQty * sign(prev)
		p.RealizedPnL += res.realized

		switch {
		case next == 0:
			p.AvgPrice = 0
		case !sameSign(prev, next):
			p.AvgPrice = price
		}
	}

	p.Quantity = next
	if next == 0 {
		p.UnrealizedPnL = 0
	}
	return res
}

func sameSign(a, b float64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
