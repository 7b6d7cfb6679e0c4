package clickhouse

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-sim-lab/internal/domain"
	"market-sim-lab/internal/storage"
)

func TestTickStore_InsertAndRange(t *testing.T) {
	conn := setupTestDB(t)

	store := NewTickStore(conn)
	ctx := context.Background()

	records := []domain.Record{
		{Symbol: "MSFT", Timestamp: 100, Price: 300},
		{Symbol: "AAPL", Timestamp: 100, Price: 150, Bid: 149.9, Ask: 150.1,
			Bids: []domain.Level{{Price: 149.9, Size: 5}}, Asks: []domain.Level{{Price: 150.1, Size: 7}}},
		{Symbol: "AAPL", Timestamp: 50, Price: 149},
		{Symbol: "AAPL", Timestamp: 500, Price: 151},
	}
	require.NoError(t, store.InsertBulk(ctx, records))

	all, err := store.GetByTimeRange(ctx, "", 0, 200)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(50), all[0].Timestamp)
	assert.Equal(t, "AAPL", all[1].Symbol)
	assert.Equal(t, "MSFT", all[2].Symbol)
	assert.Equal(t, records[1].Bids, all[1].Bids)
	assert.Equal(t, records[1].Asks, all[1].Asks)
	assert.Nil(t, all[0].Bids)

	aapl, err := store.GetByTimeRange(ctx, "AAPL", 50, 500)
	require.NoError(t, err)
	assert.Len(t, aapl, 3)
}

func TestTickStore_RejectsEmptySymbol(t *testing.T) {
	conn := setupTestDB(t)

	err := NewTickStore(conn).InsertBulk(context.Background(), []domain.Record{{Timestamp: 1}})
	assert.True(t, errors.Is(err, storage.ErrInvalidInput))
}
