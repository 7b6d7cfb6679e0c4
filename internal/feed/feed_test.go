package feed

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-sim-lab/internal/domain"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func wsServer(t *testing.T, handle func(c *websocket.Conn)) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer c.Close()
		handle(c)
	}))
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestWSSource_StreamsUntilNormalClose(t *testing.T) {
	subscribed := make(chan subscribeRequest, 1)
	url := wsServer(t, func(c *websocket.Conn) {
		var req subscribeRequest
		if err := c.ReadJSON(&req); err != nil {
			t.Errorf("read subscribe: %v", err)
			return
		}
		subscribed <- req

		_ = c.WriteJSON(domain.Record{Symbol: "AAPL", Timestamp: 1, Price: 100})
		_ = c.WriteJSON([]domain.Record{
			{Symbol: "AAPL", Timestamp: 2, Price: 101},
			{Symbol: "AAPL", Timestamp: 3, Price: 102},
		})
		_ = c.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
		// wait for the client to go away
		_, _, _ = c.ReadMessage()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	src, err := DialWS(ctx, url, []string{"AAPL"}, nil)
	require.NoError(t, err)
	defer src.Close()

	req := <-subscribed
	assert.Equal(t, "subscribe", req.Op)
	assert.Equal(t, []string{"AAPL"}, req.Symbols)

	var prices []float64
	for {
		r, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		prices = append(prices, r.Price)
	}
	assert.Equal(t, []float64{100, 101, 102}, prices)
}

func TestWSSource_DecodeError(t *testing.T) {
	url := wsServer(t, func(c *websocket.Conn) {
		_ = c.WriteMessage(websocket.TextMessage, []byte("{not json"))
		_, _, _ = c.ReadMessage()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	src, err := DialWS(ctx, url, nil, nil)
	require.NoError(t, err)
	defer src.Close()

	_, err = src.Next(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode record")
}

func TestWSSource_NextHonoursContext(t *testing.T) {
	url := wsServer(t, func(c *websocket.Conn) {
		_, _, _ = c.ReadMessage()
	})

	src, err := DialWS(context.Background(), url, nil, nil)
	require.NoError(t, err)
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecodeRecords(t *testing.T) {
	_, err := decodeRecords([]byte("  "))
	assert.ErrorIs(t, err, errEmptyFrame)

	msg, _ := json.Marshal(domain.Record{Symbol: "X", Timestamp: 5, Bids: []domain.Level{{Price: 1, Size: 2}}})
	recs, err := decodeRecords(msg)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, int64(5), recs[0].Timestamp)
	assert.Equal(t, 2.0, recs[0].Bids[0].Size)
}

func TestGenerate_Deterministic(t *testing.T) {
	cfg := DefaultSyntheticConfig()
	cfg.Symbols = []string{"AAPL", "MSFT"}
	cfg.Count = 50

	a, err := Generate(cfg)
	require.NoError(t, err)
	b, err := Generate(cfg)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	require.Len(t, a, 100)

	for i := 1; i < len(a); i++ {
		assert.LessOrEqual(t, a[i-1].Timestamp, a[i].Timestamp)
	}
	for _, r := range a {
		assert.Greater(t, r.Ask, r.Bid)
		assert.Len(t, r.Bids, cfg.Depth)
		assert.Equal(t, r.Bid, r.Bids[0].Price)
		assert.Greater(t, r.Bids[0].Price, r.Bids[1].Price)
		assert.Less(t, r.Asks[0].Price, r.Asks[1].Price)
	}

	cfg.Seed = 2
	c, err := Generate(cfg)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestSyntheticConfig_Validate(t *testing.T) {
	cfg := DefaultSyntheticConfig()
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.Symbols = nil
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Step = 0
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.StartPrice = 0
	assert.Error(t, bad.Validate())
}
