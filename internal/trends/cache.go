package trends

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cached memoizes successful fetches per keyword for a bounded time.
// Failures are never cached so the next request retries the provider.
type Cached struct {
	next  Source
	cache *expirable.LRU[string, Outcome]
}

// NewCached wraps next with an LRU of size entries expiring after ttl.
func NewCached(next Source, size int, ttl time.Duration) *Cached {
	if size <= 0 {
		size = 512
	}
	return &Cached{next: next, cache: expirable.NewLRU[string, Outcome](size, nil, ttl)}
}

// Name returns the wrapped source's name.
func (c *Cached) Name() string { return c.next.Name() }

// Fetch returns a cached outcome when present, otherwise calls the wrapped source.
func (c *Cached) Fetch(ctx context.Context, keyword string) Outcome {
	key := strings.ToLower(strings.TrimSpace(keyword))
	if out, ok := c.cache.Get(key); ok {
		return Outcome{Series: slices.Clone(out.Series), Related: slices.Clone(out.Related)}
	}
	out := c.next.Fetch(ctx, keyword)
	if out.OK() {
		c.cache.Add(key, Outcome{Series: slices.Clone(out.Series), Related: slices.Clone(out.Related)})
	}
	return out
}

// Len returns the number of cached keywords.
func (c *Cached) Len() int { return c.cache.Len() }
