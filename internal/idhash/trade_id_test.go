package idhash

import (
	"testing"
)

func TestComputeTradeID(t *testing.T) {
	tests := []struct {
		name          string
		runID         string
		orderID       uint64
		fillTimestamp int64
		wantLen       int // hash length should be 64
	}{
		{
			name:          "first order",
			runID:         "6f1c2a4e-6a38-4c3e-9b0e-0d8f3c1a2b7d",
			orderID:       1,
			fillTimestamp: 1_500_000,
			wantLen:       64,
		},
		{
			name:          "empty run id",
			runID:         "",
			orderID:       42,
			fillTimestamp: 1704067300000000000,
			wantLen:       64,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTradeID(tt.runID, tt.orderID, tt.fillTimestamp)

			if len(got) != tt.wantLen {
				t.Errorf("ComputeTradeID() length = %d, want %d", len(got), tt.wantLen)
			}

			// Verify determinism: same inputs should produce same output
			got2 := ComputeTradeID(tt.runID, tt.orderID, tt.fillTimestamp)
			if got != got2 {
				t.Errorf("ComputeTradeID() not deterministic: %s != %s", got, got2)
			}
		})
	}
}

func TestComputeTradeID_DifferentInputs(t *testing.T) {
	base := ComputeTradeID("run", 7, 1000)

	// Different run should produce different hash
	if base == ComputeTradeID("other_run", 7, 1000) {
		t.Error("Different run should produce different hash")
	}

	// Different order should produce different hash
	if base == ComputeTradeID("run", 8, 1000) {
		t.Error("Different order should produce different hash")
	}

	// Different fill time should produce different hash
	if base == ComputeTradeID("run", 7, 2000) {
		t.Error("Different fill time should produce different hash")
	}

	// Field separator prevents run/order concatenation collisions
	if ComputeTradeID("run1", 1, 0) == ComputeTradeID("run", 11, 0) {
		t.Error("Separator should disambiguate run id and order id")
	}
}
