package execution

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-sim-lab/internal/book"
	"market-sim-lab/internal/domain"
	"market-sim-lab/internal/idhash"
)

func newTestSimulator(t *testing.T, mutate func(*Config), opts ...Option) *Simulator {
	t.Helper()
	cfg := DefaultConfig()
	cfg.InitialBalance = 100_000
	if mutate != nil {
		mutate(&cfg)
	}
	sim, err := NewSimulator(cfg, opts...)
	require.NoError(t, err)
	return sim
}

func TestNewSimulator_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SlippageBps = -1

	_, err := NewSimulator(cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSimulator_LatencyGatedBuyFill(t *testing.T) {
	sim := newTestSimulator(t, nil, WithRunID("run-1"))

	id, err := sim.SubmitAt(buy("AAPL", 100, 150), 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	// Latency of 1ms has not elapsed.
	require.NoError(t, sim.ProcessTick("AAPL", 149.90, 500_000))
	o, _ := sim.Order(id)
	assert.Equal(t, domain.OrderPending, o.Status)

	require.NoError(t, sim.ProcessTick("AAPL", 149.95, 1_500_000))
	o, _ = sim.Order(id)
	assert.Equal(t, domain.OrderFilled, o.Status)

	trades := sim.Ledger().Trades()
	require.Len(t, trades, 1)
	want := 149.95 * (1 + 0.5/10000)
	assert.InDelta(t, want, trades[0].Price, 1e-9)
	assert.Equal(t, int64(1_500_000), trades[0].Timestamp)
	assert.GreaterOrEqual(t, trades[0].Timestamp, o.EligibleAt())
	assert.Equal(t, idhash.ComputeTradeID("run-1", id, 1_500_000), trades[0].TradeID)

	pos, ok := sim.Position("AAPL")
	require.True(t, ok)
	assert.Equal(t, 100.0, pos.Quantity)
	assert.InDelta(t, want, pos.AvgPrice, 1e-9)
}

func TestSimulator_NonCrossingEligibleOrderIsDropped(t *testing.T) {
	sim := newTestSimulator(t, nil)

	id, err := sim.SubmitAt(sell("AAPL", 10, 200), 0)
	require.NoError(t, err)

	require.NoError(t, sim.ProcessTick("AAPL", 199, 2_000_000))
	require.NoError(t, sim.ProcessTick("AAPL", 250, 3_000_000))

	o, _ := sim.Order(id)
	assert.Equal(t, domain.OrderCancelled, o.Status)
	assert.Equal(t, domain.CancelReasonNotCrossed, o.CancelReason)
	assert.Empty(t, sim.Ledger().Trades())
	assert.Zero(t, sim.Pending())
}

func TestSimulator_CancelAfterLatencyBeforeTick(t *testing.T) {
	sim := newTestSimulator(t, nil)

	id, err := sim.SubmitAt(buy("AAPL", 1, 150), 0)
	require.NoError(t, err)

	// The clock passes the eligibility time on another symbol, so no tick claims the order.
	require.NoError(t, sim.ProcessTick("MSFT", 300, 2_000_000))
	assert.True(t, sim.Cancel(id))
	require.NoError(t, sim.ProcessTick("AAPL", 100, 5_000_000))

	o, _ := sim.Order(id)
	assert.Equal(t, domain.OrderCancelled, o.Status)
	assert.Empty(t, sim.Ledger().Trades())
}

func TestSimulator_CancelAfterFillFails(t *testing.T) {
	sim := newTestSimulator(t, nil)

	id, _ := sim.SubmitAt(buy("AAPL", 1, 150), 0)
	require.NoError(t, sim.ProcessTick("AAPL", 100, 5_000_000))

	assert.False(t, sim.Cancel(id))
	assert.False(t, sim.Cancel(42))
}

func TestSimulator_RoundTripPnL(t *testing.T) {
	sim := newTestSimulator(t, func(c *Config) {
		c.SlippageBps = 0
		c.Latency = 0
		c.Commission = 1
	})

	_, err := sim.SubmitAt(buy("AAPL", 10, 101), 0)
	require.NoError(t, err)
	require.NoError(t, sim.ProcessTick("AAPL", 100, 0))

	_, err = sim.Submit(sell("AAPL", 10, 109))
	require.NoError(t, err)
	require.NoError(t, sim.ProcessTick("AAPL", 110, 1))

	pos, _ := sim.Position("AAPL")
	assert.True(t, pos.IsFlat())
	assert.InDelta(t, 100.0, pos.RealizedPnL, 1e-9)
	assert.InDelta(t, 100_000+100-2, sim.Balance(), 1e-9)

	r := sim.Report()
	assert.False(t, r.NoData)
	assert.Equal(t, 1, r.TotalTrades)
	assert.Equal(t, 1, r.Wins)
	assert.True(t, r.ProfitFactor.Infinite)
	assert.InDelta(t, 100.0, r.RealizedPnL, 1e-9)
	assert.InDelta(t, 2.0, r.Commission, 1e-9)
	assert.Len(t, sim.Ledger().EquityCurve(), 2)
}

func TestSimulator_MarksUnrealizedPnL(t *testing.T) {
	sim := newTestSimulator(t, func(c *Config) {
		c.SlippageBps = 0
		c.Latency = 0
	})

	_, _ = sim.SubmitAt(buy("AAPL", 5, 100), 0)
	require.NoError(t, sim.ProcessTick("AAPL", 100, 0))
	require.NoError(t, sim.ProcessTick("AAPL", 104, 10))

	pos, _ := sim.Position("AAPL")
	assert.InDelta(t, 20.0, pos.UnrealizedPnL, 1e-9)
}

func TestSimulator_TimeRegression(t *testing.T) {
	sim := newTestSimulator(t, nil)

	require.NoError(t, sim.ProcessTick("AAPL", 100, 10))
	require.NoError(t, sim.ProcessTick("AAPL", 100, 10))
	assert.ErrorIs(t, sim.ProcessTick("AAPL", 100, 9), ErrTimeRegression)
	assert.Equal(t, int64(10), sim.Now())
}

func TestSimulator_SubmitUsesSimulationClock(t *testing.T) {
	sim := newTestSimulator(t, nil)
	require.NoError(t, sim.ProcessTick("AAPL", 100, 7_000))

	id, err := sim.Submit(buy("AAPL", 1, 100))
	require.NoError(t, err)

	o, _ := sim.Order(id)
	assert.Equal(t, int64(7_000), o.SubmittedAt)
}

func TestSimulator_InvalidTickPriceIsLocal(t *testing.T) {
	sim := newTestSimulator(t, func(c *Config) { c.Latency = 0 })

	bad, _ := sim.SubmitAt(buy("AAPL", 1, 100), 0)
	require.NoError(t, sim.ProcessTick("AAPL", 0, 0))

	good, _ := sim.Submit(buy("AAPL", 1, 100))
	require.NoError(t, sim.ProcessTick("AAPL", 99, 1))

	o, _ := sim.Order(bad)
	assert.Equal(t, domain.CancelReasonFillError, o.CancelReason)
	o, _ = sim.Order(good)
	assert.Equal(t, domain.OrderFilled, o.Status)

	r := sim.Report()
	assert.Equal(t, 1, r.OrdersFailed)
	assert.Equal(t, 1, r.OrdersFilled)
}

func TestSimulator_OnRecordUsesTickPrice(t *testing.T) {
	sim := newTestSimulator(t, func(c *Config) {
		c.Latency = 0
		c.SlippageBps = 0
	})
	_, _ = sim.SubmitAt(buy("AAPL", 1, 100), 0)

	err := sim.OnRecord(context.Background(), domain.Record{Symbol: "AAPL", Timestamp: 1, Bid: 98, Ask: 100})
	require.NoError(t, err)

	trades := sim.Ledger().Trades()
	require.Len(t, trades, 1)
	assert.Equal(t, 99.0, trades[0].Price)
}

func TestSimulator_OneSidedRecordFillsAgainstMirroredMid(t *testing.T) {
	mirror := book.NewMirror(nil, nil)
	sim := newTestSimulator(t, func(c *Config) { c.SlippageBps = 0 }, WithPriceSource(mirror))
	ctx := context.Background()

	id, err := sim.SubmitAt(buy("AAPL", 1, 151), 0)
	require.NoError(t, err)

	records := []domain.Record{
		{Symbol: "AAPL", Timestamp: 500_000, Bid: 149.9, Ask: 150.1},
		// Ask-only update after the latency gate; the bid comes from the book.
		{Symbol: "AAPL", Timestamp: 2_000_000, Ask: 150.05},
	}
	for _, rec := range records {
		require.NoError(t, mirror.OnRecord(ctx, rec))
		require.NoError(t, sim.OnRecord(ctx, rec))
	}

	o, _ := sim.Order(id)
	assert.Equal(t, domain.OrderFilled, o.Status)
	assert.Equal(t, domain.CancelReasonNone, o.CancelReason)

	trades := sim.Ledger().Trades()
	require.Len(t, trades, 1)
	assert.InDelta(t, 149.975, trades[0].TickPrice, 1e-9)
}

func TestSimulator_NonFiniteTickKeepsMark(t *testing.T) {
	sim := newTestSimulator(t, func(c *Config) { c.Latency = 0 })

	_, err := sim.SubmitAt(buy("AAPL", 1, 150), 0)
	require.NoError(t, err)
	require.NoError(t, sim.ProcessTick("AAPL", 150, 1))
	require.NoError(t, sim.ProcessTick("AAPL", 151, 2))

	before, ok := sim.Position("AAPL")
	require.True(t, ok)

	for i, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		require.NoError(t, sim.ProcessTick("AAPL", bad, int64(3+i)))

		pos, _ := sim.Position("AAPL")
		assert.Equal(t, before.MarkPrice, pos.MarkPrice, "tick %v", bad)
		assert.Equal(t, before.UnrealizedPnL, pos.UnrealizedPnL, "tick %v", bad)
		assert.False(t, math.IsNaN(pos.UnrealizedPnL))
	}
}

func TestSimulator_PositionSize(t *testing.T) {
	sim := newTestSimulator(t, func(c *Config) { c.RiskPerTrade = 0.02 })
	assert.InDelta(t, 2_000.0, sim.PositionSize(), 1e-9)
}

func TestSimulator_ConcurrentSubmitCancelAndTicks(t *testing.T) {
	sim := newTestSimulator(t, func(c *Config) { c.Latency = 10 })

	const submitters = 8
	const perSubmitter = 50

	var wg sync.WaitGroup
	ids := make(chan uint64, submitters*perSubmitter)
	for i := 0; i < submitters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perSubmitter; j++ {
				id, err := sim.SubmitAt(buy("AAPL", 1, 100), 0)
				if err == nil {
					ids <- id
				}
			}
		}()
	}

	var cancels sync.WaitGroup
	cancels.Add(1)
	go func() {
		defer cancels.Done()
		for id := range ids {
			if id%2 == 0 {
				sim.Cancel(id)
			}
		}
	}()

	for ts := int64(10); ts < 1_000; ts += 10 {
		require.NoError(t, sim.ProcessTick("AAPL", 99, ts))
	}
	wg.Wait()
	close(ids)
	cancels.Wait()
	require.NoError(t, sim.ProcessTick("AAPL", 99, 1_000))

	// Every order is terminal exactly once and fills match the trade log.
	filled := 0
	for _, o := range sim.Orders() {
		require.True(t, o.IsTerminal(), "order %d still %s", o.ID, o.Status)
		if o.Status == domain.OrderFilled {
			filled++
		}
	}
	assert.Len(t, sim.Orders(), submitters*perSubmitter)
	assert.Len(t, sim.Ledger().Trades(), filled)

	pos, _ := sim.Position("AAPL")
	assert.InDelta(t, float64(filled), pos.Quantity, 1e-9)
}
