package replay

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"market-sim-lab/internal/domain"
)

func TestSortRecords(t *testing.T) {
	records := []domain.Record{
		{Symbol: "MSFT", Timestamp: 2, Price: 1},
		{Symbol: "AAPL", Timestamp: 3},
		{Symbol: "AAPL", Timestamp: 2},
		{Symbol: "MSFT", Timestamp: 2, Price: 2},
		{Symbol: "AAPL", Timestamp: 1},
	}

	SortRecords(records)

	got := make([]string, len(records))
	for i, r := range records {
		got[i] = r.Symbol
	}
	assert.Equal(t, []string{"AAPL", "AAPL", "MSFT", "MSFT", "AAPL"}, got)
	assert.Equal(t, []int64{1, 2, 2, 2, 3}, []int64{
		records[0].Timestamp, records[1].Timestamp, records[2].Timestamp, records[3].Timestamp, records[4].Timestamp,
	})
	// Stable: equal keys keep input order.
	assert.Equal(t, 1.0, records[2].Price)
	assert.Equal(t, 2.0, records[3].Price)
}

func TestValidateOrdering(t *testing.T) {
	assert.NoError(t, ValidateOrdering(ticks(1, 1, 2, 5)))
	assert.NoError(t, ValidateOrdering(nil))
	assert.ErrorIs(t, ValidateOrdering(ticks(1, 3, 2)), ErrInvalidOrdering)
}
