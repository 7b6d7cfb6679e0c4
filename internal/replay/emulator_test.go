package replay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatencyEmulator_DelayWithinBounds(t *testing.T) {
	base := time.Millisecond
	jitter := 5 * time.Millisecond
	e := NewLatencyEmulator(base, jitter, &fakeClock{}, 42)

	for i := 0; i < 1000; i++ {
		d := e.Delay()
		require.GreaterOrEqual(t, d, base)
		require.LessOrEqual(t, d, base+jitter)
	}
}

func TestLatencyEmulator_SeedIsReproducible(t *testing.T) {
	a := NewLatencyEmulator(0, time.Second, nil, 7)
	b := NewLatencyEmulator(0, time.Second, nil, 7)

	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Delay(), b.Delay())
	}
}

func TestLatencyEmulator_WaitUsesClock(t *testing.T) {
	clock := &fakeClock{}
	e := NewLatencyEmulator(2*time.Millisecond, 0, clock, 1)

	require.NoError(t, e.Wait(context.Background()))
	assert.Equal(t, []time.Duration{2 * time.Millisecond}, clock.Waits())
}

func TestLatencyEmulator_ZeroDelayDoesNotWait(t *testing.T) {
	clock := &fakeClock{}
	e := NewLatencyEmulator(0, 0, clock, 1)

	require.NoError(t, e.Wait(context.Background()))
	assert.Empty(t, clock.Waits())
}
