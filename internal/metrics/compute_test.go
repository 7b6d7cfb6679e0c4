package metrics

import (
	"encoding/json"
	"math"
	"testing"

	"market-sim-lab/internal/domain"
)

func closedTrades(pnls ...float64) []domain.ClosedTrade {
	out := make([]domain.ClosedTrade, len(pnls))
	for i, p := range pnls {
		out[i] = domain.ClosedTrade{OrderID: uint64(i + 1), Symbol: "AAPL", PnL: p, Timestamp: int64(i + 1)}
	}
	return out
}

func equityFrom(initial float64, closed []domain.ClosedTrade) []domain.EquityPoint {
	curve := []domain.EquityPoint{{Seq: 0, Balance: initial}}
	bal := initial
	for i, c := range closed {
		bal += c.PnL
		curve = append(curve, domain.EquityPoint{Seq: i + 1, Timestamp: c.Timestamp, Balance: bal})
	}
	return curve
}

func TestCompute_NoTrades(t *testing.T) {
	r := Compute(Input{InitialBalance: 1000, FinalBalance: 1000})

	if !r.NoData {
		t.Error("expected NoData for a run without fills")
	}
	if r.WinRate != 0 || r.LossRate != 0 || r.TotalTrades != 0 {
		t.Errorf("expected zero ratios, got %+v", r)
	}
	if r.ProfitFactor.Infinite || r.ProfitFactor.Value != 0 {
		t.Errorf("expected zero profit factor, got %v", r.ProfitFactor)
	}
}

func TestCompute_WinLossCounts(t *testing.T) {
	closed := closedTrades(10, -5, 20, 0, -1)
	r := Compute(Input{
		InitialBalance: 1000,
		FinalBalance:   1024,
		Trades:         make([]domain.Trade, 10),
		Closed:         closed,
		Equity:         equityFrom(1000, closed),
	})

	if r.NoData {
		t.Fatal("unexpected NoData")
	}
	if r.TotalTrades != 5 || r.Wins != 2 || r.Losses != 3 {
		t.Errorf("counts: total=%d wins=%d losses=%d", r.TotalTrades, r.Wins, r.Losses)
	}
	if math.Abs(r.WinRate+r.LossRate-1) > 1e-9 {
		t.Errorf("win rate + loss rate = %f, want 1", r.WinRate+r.LossRate)
	}
	if math.Abs(r.ProfitFactor.Value-2.0/3.0) > 1e-9 || r.ProfitFactor.Infinite {
		t.Errorf("profit factor = %v, want 0.67", r.ProfitFactor)
	}
	if r.Fills != 10 {
		t.Errorf("fills = %d, want 10", r.Fills)
	}
	if math.Abs(r.RealizedPnL-24) > 1e-9 {
		t.Errorf("realized = %f, want 24", r.RealizedPnL)
	}
}

func TestCompute_AllWinsIsInfinite(t *testing.T) {
	closed := closedTrades(1, 2)
	r := Compute(Input{
		InitialBalance: 100,
		FinalBalance:   103,
		Trades:         make([]domain.Trade, 4),
		Closed:         closed,
		Equity:         equityFrom(100, closed),
	})

	if !r.ProfitFactor.Infinite {
		t.Fatalf("expected infinite profit factor, got %v", r.ProfitFactor)
	}
	if !math.IsInf(r.ProfitFactor.Float(), 1) {
		t.Error("Float() should be +Inf")
	}
	if r.ProfitFactor.String() != "inf" {
		t.Errorf("String() = %q", r.ProfitFactor.String())
	}
}

func TestCompute_OpenPositionOnly(t *testing.T) {
	r := Compute(Input{
		InitialBalance: 100,
		FinalBalance:   100,
		Trades:         make([]domain.Trade, 1),
		Equity:         []domain.EquityPoint{{Balance: 100}},
	})

	if r.NoData {
		t.Error("fills without closes still carry data")
	}
	if r.TotalTrades != 0 || r.ProfitFactor.Infinite {
		t.Errorf("unexpected report %+v", r)
	}
}

func TestCompute_OrderCounts(t *testing.T) {
	orders := []domain.Order{
		{ID: 1, Status: domain.OrderFilled},
		{ID: 2, Status: domain.OrderCancelled, CancelReason: domain.CancelReasonUser},
		{ID: 3, Status: domain.OrderCancelled, CancelReason: domain.CancelReasonNotCrossed},
		{ID: 4, Status: domain.OrderCancelled, CancelReason: domain.CancelReasonFillError},
		{ID: 5, Status: domain.OrderPending},
	}
	r := Compute(Input{Orders: orders})

	if r.OrdersSubmitted != 5 || r.OrdersFilled != 1 || r.OrdersCancelled != 1 ||
		r.OrdersDropped != 1 || r.OrdersFailed != 1 || r.OrdersPending != 1 {
		t.Errorf("unexpected order counts %+v", r)
	}
}

func TestComputeMaxDrawdown(t *testing.T) {
	curve := []domain.EquityPoint{
		{Balance: 100}, {Balance: 120}, {Balance: 90}, {Balance: 130}, {Balance: 100}, {Balance: 95},
	}
	// peak 130 -> trough 95
	if got := computeMaxDrawdown(curve); got != 35 {
		t.Errorf("max drawdown = %f, want 35", got)
	}
	if got := computeMaxDrawdown(nil); got != 0 {
		t.Errorf("empty curve drawdown = %f", got)
	}
}

func TestComputeMaxConsecutiveLosses(t *testing.T) {
	tests := []struct {
		name string
		pnls []float64
		want int
	}{
		{"empty", nil, 0},
		{"no losses", []float64{1, 2}, 0},
		{"zero counts as loss", []float64{0, -1, 1, -1}, 2},
		{"trailing streak", []float64{1, -1, -2, -3}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := computeMaxConsecutiveLosses(closedTrades(tt.pnls...)); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestComputePercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	if got := computePercentile(sorted, 0.5); got != 2.5 {
		t.Errorf("median = %f, want 2.5", got)
	}
	if got := computePercentile([]float64{7}, 0.9); got != 7 {
		t.Errorf("single value = %f", got)
	}
}

func TestProfitFactorJSON(t *testing.T) {
	data, err := json.Marshal(Report{ProfitFactor: ProfitFactor{Infinite: true}})
	if err != nil {
		t.Fatal(err)
	}

	var decoded Report
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if !decoded.ProfitFactor.Infinite {
		t.Error("expected infinite profit factor after decode")
	}

	data, _ = json.Marshal(ProfitFactor{Value: 1.5})
	if string(data) != "1.5" {
		t.Errorf("finite factor encoded as %s", data)
	}
}
