package fonts

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dejobratic/orderreport/internal/reports/ports"
)

type cachedFont struct {
	data      []byte
	fetchedAt time.Time
}

// CachingProvider keeps fetched fonts for ttl and collapses concurrent fetches of one URL.
// Failures are never cached.
type CachingProvider struct {
	next  ports.FontProvider
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group

	mu    sync.RWMutex
	items map[string]cachedFont
}

// NewCachingProvider wraps next. A non-positive ttl disables caching.
func NewCachingProvider(next ports.FontProvider, ttl time.Duration) *CachingProvider {
	return &CachingProvider{
		next:  next,
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]cachedFont),
	}
}

func (c *CachingProvider) Fetch(ctx context.Context, url string) ([]byte, error) {
	if c.ttl <= 0 {
		return c.next.Fetch(ctx, url)
	}

	if data, ok := c.get(url); ok {
		return data, nil
	}

	v, err, _ := c.group.Do(url, func() (any, error) {
		if data, ok := c.get(url); ok {
			return data, nil
		}
		data, err := c.next.Fetch(ctx, url)
		if err != nil {
			return nil, err
		}
		c.save(url, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Purge drops every cached font.
func (c *CachingProvider) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]cachedFont)
}

func (c *CachingProvider) get(url string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[url]
	if !ok || c.now().Sub(item.fetchedAt) >= c.ttl {
		return nil, false
	}
	return item.data, true
}

func (c *CachingProvider) save(url string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[url] = cachedFont{data: data, fetchedAt: c.now()}
}
