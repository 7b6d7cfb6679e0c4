package metrics

import (
	"math"
	"sort"

	"market-sim-lab/internal/domain"
)

// Input is everything the reporter reads from a finished or running simulation.
type Input struct {
	InitialBalance float64
	FinalBalance   float64
	Commission     float64
	Trades         []domain.Trade
	Closed         []domain.ClosedTrade // chronological
	Equity         []domain.EquityPoint // chronological, first point is the initial balance
	Orders         []domain.Order
}

// Compute builds a report from the ledger and order state.
// With no fills the report has NoData set and all ratios zero.
func Compute(in Input) Report {
	r := Report{
		InitialBalance: in.InitialBalance,
		FinalBalance:   in.FinalBalance,
		Commission:     in.Commission,
		Fills:          len(in.Trades),
	}
	countOrders(&r, in.Orders)

	if len(in.Trades) == 0 {
		r.NoData = true
		return r
	}

	n := len(in.Closed)
	pnls := make([]float64, n)
	for i, c := range in.Closed {
		pnls[i] = c.PnL
		if c.IsWin() {
			r.Wins++
		} else {
			r.Losses++
		}
	}
	// Gross of commission: balance moves only through realized PnL and commission.
	r.RealizedPnL = in.FinalBalance - in.InitialBalance + in.Commission

	r.TotalTrades = n
	r.WinRate = computeWinRate(r.Wins, n)
	r.LossRate = computeWinRate(r.Losses, n)
	r.ProfitFactor = computeProfitFactor(r.Wins, r.Losses)

	sorted := make([]float64, n)
	copy(sorted, pnls)
	sort.Float64s(sorted)

	r.PnLMean = computeMean(pnls)
	r.PnLMedian = computePercentile(sorted, 0.50)
	r.PnLStddev = computeStddev(pnls, r.PnLMean)
	r.MaxDrawdown = computeMaxDrawdown(in.Equity)
	r.MaxConsecutiveLosses = computeMaxConsecutiveLosses(in.Closed)

	return r
}

func countOrders(r *Report, orders []domain.Order) {
	r.OrdersSubmitted = len(orders)
	for _, o := range orders {
		switch o.Status {
		case domain.OrderFilled:
			r.OrdersFilled++
		case domain.OrderPending:
			r.OrdersPending++
		case domain.OrderCancelled:
			switch o.CancelReason {
			case domain.CancelReasonNotCrossed:
				r.OrdersDropped++
			case domain.CancelReasonFillError:
				r.OrdersFailed++
			default:
				r.OrdersCancelled++
			}
		}
	}
}

// computeWinRate calculates win rate as wins / total.
func computeWinRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total)
}

// computeProfitFactor is the ratio of winning to losing closed trades.
// Infinite when there are wins and no losses, zero when there are neither.
func computeProfitFactor(wins, losses int) ProfitFactor {
	if losses == 0 {
		if wins == 0 {
			return ProfitFactor{}
		}
		return ProfitFactor{Infinite: true}
	}
	return ProfitFactor{Value: float64(wins) / float64(losses)}
}

// computeMean calculates arithmetic mean.
func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// computeStddev calculates sample standard deviation (n-1 denominator).
func computeStddev(values []float64, mean float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// computePercentile uses linear interpolation.
// sorted must be pre-sorted ASC.
// p is percentile (0.10 = 10th percentile).
func computePercentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// computeMaxDrawdown calculates the worst peak-to-trough drop of the equity curve.
// Points must be in chronological order.
func computeMaxDrawdown(curve []domain.EquityPoint) float64 {
	if len(curve) == 0 {
		return 0
	}

	peak := curve[0].Balance
	maxDrawdown := 0.0
	for _, p := range curve {
		if p.Balance > peak {
			peak = p.Balance
		}
		if dd := peak - p.Balance; dd > maxDrawdown {
			maxDrawdown = dd
		}
	}
	return maxDrawdown
}

// computeMaxConsecutiveLosses finds the longest streak of closed trades with PnL <= 0.
func computeMaxConsecutiveLosses(closed []domain.ClosedTrade) int {
	maxStreak := 0
	currentStreak := 0

	for _, c := range closed {
		if !c.IsWin() {
			currentStreak++
			if currentStreak > maxStreak {
				maxStreak = currentStreak
			}
		} else {
			currentStreak = 0
		}
	}
	return maxStreak
}
