// Package relation implements the relationship-inference subsystem: a
// time-boxed cache for remote relationship queries, a matcher that ranks
// candidate parent datasets for a file about to be uploaded, and a linker
// that drives confirmation and issues the link writes.
package relation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/gobis-cli/gobis/internal/openbis"
)

// DefaultTTL is how long a cached relationship query stays fresh.
const DefaultTTL = 15 * time.Minute

// FetchFunc performs the upstream round trip for a cache miss. A batch
// lookup resolving many ids belongs in one FetchFunc doing one round trip,
// not one FetchFunc per id.
type FetchFunc func(ctx context.Context) ([]openbis.CatalogEntry, error)

// Stats describes how a query was served, for caller-side timing display.
type Stats struct {
	FromCache bool
	Elapsed   time.Duration
}

// FetchError wraps an upstream failure surfaced through GetOrFetch. Nothing
// is cached for the failed fingerprint. Unwrap exposes the gateway error so
// errors.As reaches ConnectionError and friends.
type FetchError struct {
	Query Fingerprint
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("relationship fetch %s: %v", e.Query, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsFetchError checks if an error is a FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

type cacheEntry struct {
	entries    []openbis.CatalogEntry
	insertedAt time.Time
}

// Cache is an in-process cache of relationship-query results. Entries expire
// lazily on lookup; there is no background sweep and nothing is shared
// across processes. Concurrent lookups for one fingerprint coalesce into a
// single upstream fetch, while distinct fingerprints proceed independently.
type Cache struct {
	ttl   time.Duration
	log   *zap.Logger
	group singleflight.Group

	mu   sync.RWMutex
	data map[Fingerprint]cacheEntry
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithTTL overrides the freshness window. Non-positive values keep the
// default.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCacheLogger routes hit/miss debug logging.
func WithCacheLogger(log *zap.Logger) CacheOption {
	return func(c *Cache) {
		if log != nil {
			c.log = log
		}
	}
}

// NewCache creates an empty cache.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		ttl:  DefaultTTL,
		log:  zap.NewNop(),
		data: map[Fingerprint]cacheEntry{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrFetch returns the cached value for fp when it is younger than the
// ttl, and otherwise runs fetch once, stores its result, and returns it.
// Callers arriving while an identical fetch is in flight wait for it and
// share its result or its error. A fetch error is returned as a FetchError
// and leaves no cache entry behind. The returned slice is shared between
// callers and must be treated as read-only.
func (c *Cache) GetOrFetch(ctx context.Context, fp Fingerprint, fetch FetchFunc) ([]openbis.CatalogEntry, Stats, error) {
	start := time.Now()

	if entries, ok := c.lookup(fp); ok {
		c.log.Debug("relationship cache hit", zap.String("fingerprint", string(fp)))
		return entries, Stats{FromCache: true, Elapsed: time.Since(start)}, nil
	}

	v, err, _ := c.group.Do(string(fp), func() (interface{}, error) {
		// A flight that completed while this caller was queuing may
		// already have stored the value.
		if entries, ok := c.lookup(fp); ok {
			return entries, nil
		}
		entries, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.store(fp, entries)
		return entries, nil
	})
	if err != nil {
		c.log.Debug("relationship fetch failed",
			zap.String("fingerprint", string(fp)),
			zap.Error(err))
		return nil, Stats{Elapsed: time.Since(start)}, &FetchError{Query: fp, Err: err}
	}

	c.log.Debug("relationship cache fill",
		zap.String("fingerprint", string(fp)),
		zap.Duration("elapsed", time.Since(start)))
	return v.([]openbis.CatalogEntry), Stats{Elapsed: time.Since(start)}, nil
}

// Invalidate drops one fingerprint.
func (c *Cache) Invalidate(fp Fingerprint) {
	c.mu.Lock()
	delete(c.data, fp)
	c.mu.Unlock()
}

// Clear drops every entry, for callers that just wrote links and need later
// queries in the same process to see the new lineage.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.data = map[Fingerprint]cacheEntry{}
	c.mu.Unlock()
}

// Len reports the number of live entries, counting ones past their ttl that
// have not been looked up since expiring.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

func (c *Cache) lookup(fp Fingerprint) ([]openbis.CatalogEntry, bool) {
	c.mu.RLock()
	entry, ok := c.data[fp]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Since(entry.insertedAt) >= c.ttl {
		c.Invalidate(fp)
		return nil, false
	}
	return entry.entries, true
}

// store replaces the value for fp wholesale.
func (c *Cache) store(fp Fingerprint, entries []openbis.CatalogEntry) {
	c.mu.Lock()
	c.data[fp] = cacheEntry{entries: entries, insertedAt: time.Now()}
	c.mu.Unlock()
}
