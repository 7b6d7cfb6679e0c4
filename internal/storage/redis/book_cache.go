package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"market-sim-lab/internal/domain"
	"market-sim-lab/internal/storage"
)

// DefaultQuoteTTL bounds how long a quote survives without updates.
const DefaultQuoteTTL = 10 * time.Minute

// NewClient connects to addr and verifies it with a ping.
func NewClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w: %v", addr, storage.ErrUnavailable, err)
	}
	return client, nil
}

// BookCache implements storage.BookCache on Redis string keys holding JSON quotes.
type BookCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ storage.BookCache = (*BookCache)(nil)

// NewBookCache creates a cache writing keys "<prefix>:quote:<symbol>".
// A non-positive ttl keeps keys forever.
func NewBookCache(client *redis.Client, prefix string, ttl time.Duration) *BookCache {
	if prefix == "" {
		prefix = "book"
	}
	if ttl < 0 {
		ttl = 0
	}
	return &BookCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *BookCache) quoteKey(symbol string) string {
	return fmt.Sprintf("%s:quote:%s", c.prefix, symbol)
}

// SetQuote overwrites the quote for q.Symbol.
func (c *BookCache) SetQuote(ctx context.Context, q domain.Quote) error {
	if q.Symbol == "" {
		return storage.ErrInvalidInput
	}

	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("marshal quote: %w", err)
	}
	if err := c.client.Set(ctx, c.quoteKey(q.Symbol), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set quote %s: %w", q.Symbol, err)
	}
	return nil
}

// GetQuote returns the cached quote or storage.ErrNotFound.
func (c *BookCache) GetQuote(ctx context.Context, symbol string) (domain.Quote, error) {
	data, err := c.client.Get(ctx, c.quoteKey(symbol)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Quote{}, storage.ErrNotFound
		}
		return domain.Quote{}, fmt.Errorf("get quote %s: %w", symbol, err)
	}

	var q domain.Quote
	if err := json.Unmarshal(data, &q); err != nil {
		return domain.Quote{}, fmt.Errorf("unmarshal quote %s: %w", symbol, err)
	}
	return q, nil
}
