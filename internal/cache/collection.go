// Package cache holds read-mostly reference collections in memory for a
// fixed time-to-live.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Fetcher loads the complete collection from its backing source.
type Fetcher[T any] func(ctx context.Context) ([]T, error)

// Snapshot is a point-in-time view of a collection.
type Snapshot[T any] struct {
	Data        []T
	IsFresh     bool
	RefreshedAt time.Time
}

// DefaultFetchTimeout bounds a single fetch.
const DefaultFetchTimeout = 30 * time.Second

type options struct {
	now          func() time.Time
	fetchTimeout time.Duration
}

type Option func(*options)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithFetchTimeout bounds each fetch independently of the callers waiting on it.
func WithFetchTimeout(d time.Duration) Option {
	return func(o *options) {
		o.fetchTimeout = d
	}
}

// Collection caches one collection for ttl. Data and timestamp are only
// ever replaced together by a successful refresh; a failed refresh leaves
// both untouched. Concurrent refreshes share a single fetch.
type Collection[T any] struct {
	name         string
	ttl          time.Duration
	fetch        Fetcher[T]
	now          func() time.Time
	fetchTimeout time.Duration

	mu          sync.RWMutex
	data        []T
	refreshedAt time.Time
	generation  uint64

	group singleflight.Group
}

func New[T any](name string, ttl time.Duration, fetch Fetcher[T], opts ...Option) *Collection[T] {
	o := options{now: time.Now, fetchTimeout: DefaultFetchTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	return &Collection[T]{
		name:         name,
		ttl:          ttl,
		fetch:        fetch,
		now:          o.now,
		fetchTimeout: o.fetchTimeout,
	}
}

func (c *Collection[T]) Name() string {
	return c.name
}

func (c *Collection[T]) TTL() time.Duration {
	return c.ttl
}

// Get returns the cached data without fetching.
func (c *Collection[T]) Get() Snapshot[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Snapshot[T]{
		Data:        c.data,
		IsFresh:     c.isFreshLocked(),
		RefreshedAt: c.refreshedAt,
	}
}

func (c *Collection[T]) isFreshLocked() bool {
	if c.refreshedAt.IsZero() {
		return false
	}
	return c.now().Sub(c.refreshedAt) < c.ttl
}

// Refresh fetches the whole collection and swaps it in. The shared fetch is
// not cancelled with ctx, so one caller giving up does not fail the others;
// a caller whose ctx ends stops waiting and gets ctx.Err().
func (c *Collection[T]) Refresh(ctx context.Context) ([]T, error) {
	c.mu.RLock()
	gen := c.generation
	c.mu.RUnlock()

	ch := c.group.DoChan(c.name, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()
		return c.refresh(fetchCtx, gen)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			refreshShared.WithLabelValues(c.name).Inc()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]T), nil
	}
}

func (c *Collection[T]) refresh(ctx context.Context, gen uint64) ([]T, error) {
	start := time.Now()
	data, err := c.fetch(ctx)
	refreshDuration.WithLabelValues(c.name).Observe(time.Since(start).Seconds())
	if err != nil {
		refreshTotal.WithLabelValues(c.name, "error").Inc()
		log.Warn().Err(err).Str("cache", c.name).Msg("cache refresh failed")
		return nil, err
	}
	if data == nil {
		data = []T{}
	}

	c.mu.Lock()
	// A Clear() issued while the fetch was in flight wins.
	if c.generation == gen {
		c.data = data
		c.refreshedAt = c.now()
	}
	c.mu.Unlock()

	refreshTotal.WithLabelValues(c.name, "ok").Inc()
	log.Debug().Str("cache", c.name).Int("count", len(data)).Msg("cache refreshed")

	return data, nil
}

// Load returns fresh data from memory, or refreshes. When the refresh fails it
// returns whatever was cached (possibly nothing) along with the error.
func (c *Collection[T]) Load(ctx context.Context) ([]T, error) {
	snap := c.Get()
	if snap.IsFresh {
		lookups.WithLabelValues(c.name, "hit").Inc()
		return snap.Data, nil
	}
	lookups.WithLabelValues(c.name, "miss").Inc()

	data, err := c.Refresh(ctx)
	if err != nil {
		return snap.Data, err
	}
	return data, nil
}

// Clear forgets the cached data so the next Load fetches again.
func (c *Collection[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = nil
	c.refreshedAt = time.Time{}
	c.generation++
}
