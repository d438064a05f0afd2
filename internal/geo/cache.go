package geo

import (
	"context"
	"errors"
	"time"

	"github.com/quantumlife/viewerscope/internal/core"
	"github.com/quantumlife/viewerscope/internal/logging"
	"github.com/quantumlife/viewerscope/internal/storage"
)

// CachedResolver fronts a Provider with the SQLite location cache. Only
// successful lookups are cached; failures are retried on the next request.
type CachedResolver struct {
	inner Provider
	store *storage.LocationStore
	ttl   time.Duration
	log   *logging.Logger
}

// NewCachedResolver creates a caching resolver
func NewCachedResolver(inner Provider, store *storage.LocationStore, ttl time.Duration) *CachedResolver {
	return &CachedResolver{
		inner: inner,
		store: store,
		ttl:   ttl,
		log:   logging.WithField("component", "geo.cache"),
	}
}

// Resolve implements Resolver
func (c *CachedResolver) Resolve(ctx context.Context, ip string) *core.LocationRecord {
	if IsPrivate(ip) {
		return LocalPlaceholder(ip)
	}

	rec, err := c.store.Get(ip)
	if err == nil {
		return rec
	}
	if !errors.Is(err, core.ErrCacheMiss) {
		c.log.Warn("cache read failed: %v", err)
	}

	rec, err = c.inner.Lookup(ctx, ip)
	if err != nil || rec == nil {
		return nil
	}

	if err := c.store.Put(ip, rec, c.inner.Name(), c.ttl); err != nil {
		c.log.Warn("cache write failed: %v", err)
	}
	return rec
}

// Purge drops expired entries. It is registered as a scheduler task.
func (c *CachedResolver) Purge(ctx context.Context) error {
	removed, err := c.store.PurgeExpired()
	if err != nil {
		return err
	}
	if removed > 0 {
		c.log.Debug("purged %d expired locations", removed)
	}
	return nil
}
