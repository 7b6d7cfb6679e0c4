package replay

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-sim-lab/internal/domain"
	"market-sim-lab/internal/scenario"
)

func manyTicks(n int) []domain.Record {
	ts := make([]int64, n)
	for i := range ts {
		ts[i] = int64(i)
	}
	return ticks(ts...)
}

func TestPipeline_PreservesOrder(t *testing.T) {
	engine := &collectingEngine{}
	inbox := &countingDrainer{}
	p := NewPipeline(Options{
		Driver:   NewDriver(NewSliceSource(manyTicks(500)), nil),
		Engines:  []Engine{engine},
		Inbox:    inbox,
		Emulator: NewLatencyEmulator(time.Microsecond, time.Microsecond, &fakeClock{}, 3),
	}, 4)

	stats, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 500, stats.Records)
	assert.Equal(t, 501, stats.Commands)
	got := engine.Timestamps()
	require.Len(t, got, 500)
	for i, ts := range got {
		require.Equal(t, int64(i), ts)
	}
}

func TestPipeline_MatchesCooperativeRunner(t *testing.T) {
	scen := scenario.NewEngine(nil)
	require.NoError(t, scen.RegisterDynamic("crash", scenario.PriceBelow(150), scenario.PriceShockTransform(-0.5)))

	coop := &collectingEngine{}
	_, err := NewRunner(Options{
		Driver:    NewDriver(NewSliceSource(manyTicks(100)), nil),
		Scenarios: scen,
		Engines:   []Engine{coop},
	}).Run(context.Background())
	require.NoError(t, err)

	conc := &collectingEngine{}
	_, err = NewPipeline(Options{
		Driver:    NewDriver(NewSliceSource(manyTicks(100)), nil),
		Scenarios: scen,
		Engines:   []Engine{conc},
	}, 0).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, coop.records, conc.records)
}

func TestPipeline_ConsumerErrorStopsProducer(t *testing.T) {
	boom := errors.New("consumer failed")
	var seen atomic.Int64
	p := NewPipeline(Options{
		Driver: NewDriver(NewSliceSource(manyTicks(10_000)), nil),
		Engines: []Engine{EngineFunc(func(_ context.Context, rec domain.Record) error {
			seen.Add(1)
			if rec.Timestamp == 10 {
				return boom
			}
			return nil
		})},
	}, 2)

	stats, err := p.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 10, stats.Records)
	assert.Equal(t, int64(11), seen.Load())
}

func TestPipeline_ProducerErrorIsReturned(t *testing.T) {
	p := NewPipeline(Options{
		Driver:  NewDriver(NewSliceSource(ticks(1, 2, 0)), nil),
		Engines: []Engine{&collectingEngine{}},
	}, 1)

	_, err := p.Run(context.Background())
	assert.ErrorIs(t, err, ErrInvalidOrdering)
}

func TestPipeline_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPipeline(Options{
		Driver: NewDriver(NewSliceSource(manyTicks(10_000)), nil),
		Engines: []Engine{EngineFunc(func(_ context.Context, rec domain.Record) error {
			if rec.Timestamp == 5 {
				cancel()
			}
			return nil
		})},
	}, 1)

	_, err := p.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPipeline_RequiresDriver(t *testing.T) {
	_, err := NewPipeline(Options{}, 0).Run(context.Background())
	assert.ErrorIs(t, err, ErrNoDriver)
}
