package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"market-sim-lab/internal/domain"
	"market-sim-lab/internal/storage"
)

func setupRedis(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	return fmt.Sprintf("%s:%s", host, port.Port())
}

func TestBookCache_SetGet(t *testing.T) {
	addr := setupRedis(t)
	ctx := context.Background()

	client, err := NewClient(ctx, addr)
	require.NoError(t, err)
	defer client.Close()

	cache := NewBookCache(client, "test", time.Minute)

	q := domain.Quote{Symbol: "AAPL", Timestamp: 42, Bid: 149.9, Ask: 150.1, BidSize: 5, AskSize: 7, Last: 150}
	require.NoError(t, cache.SetQuote(ctx, q))

	got, err := cache.GetQuote(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, q, got)

	q.Bid = 150
	require.NoError(t, cache.SetQuote(ctx, q))
	got, err = cache.GetQuote(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 150.0, got.Bid)

	ttl, err := client.TTL(ctx, "test:quote:AAPL").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	_, err = cache.GetQuote(ctx, "MSFT")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, cache.SetQuote(ctx, domain.Quote{}), storage.ErrInvalidInput)
}

func TestNewClient_Unavailable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewClient(ctx, "127.0.0.1:1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrUnavailable))
}
