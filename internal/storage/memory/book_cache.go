package memory

import (
	"context"
	"sync"

	"market-sim-lab/internal/domain"
	"market-sim-lab/internal/storage"
)

// BookCache is an in-memory implementation of storage.BookCache.
type BookCache struct {
	mu     sync.RWMutex
	quotes map[string]domain.Quote
}

// NewBookCache creates a new in-memory book cache.
func NewBookCache() *BookCache {
	return &BookCache{
		quotes: make(map[string]domain.Quote),
	}
}

// SetQuote overwrites the quote for q.Symbol.
func (c *BookCache) SetQuote(_ context.Context, q domain.Quote) error {
	if q.Symbol == "" {
		return storage.ErrInvalidInput
	}

	c.mu.Lock()
	c.quotes[q.Symbol] = q
	c.mu.Unlock()
	return nil
}

// GetQuote returns the cached quote. Returns ErrNotFound if not cached.
func (c *BookCache) GetQuote(_ context.Context, symbol string) (domain.Quote, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	q, ok := c.quotes[symbol]
	if !ok {
		return domain.Quote{}, storage.ErrNotFound
	}
	return q, nil
}

var _ storage.BookCache = (*BookCache)(nil)
