// Package querycache is the shared data-fetching cache used by every data
// service: keyed entries with a freshness window, idle eviction, status-aware
// retries and one in-flight fetch per key.
package querycache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/singleflight"

	"aula-lms/internal/observability"
)

// FetchFunc loads the value for a key. It must honour ctx.
type FetchFunc func(ctx context.Context) (any, error)

type entry struct {
	key         Key
	data        any
	hasData     bool
	updatedAt   time.Time
	lastAccess  time.Time
	failures    int
	lastErr     error
	invalidated bool
	generation  uint64
	refreshing  bool
}

// flight tracks the callers waiting on one shared fetch. The fetch runs on
// ctx, which is cancelled when the last waiter leaves.
type flight struct {
	key     Key
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
	// detached is set when an invalidation overtook the fetch. Its result
	// is never stored and new callers no longer join it.
	detached bool
}

// Client is safe for concurrent use. Create one per process and share it.
type Client struct {
	opts Options

	mu      sync.Mutex
	entries map[string]*entry
	flights map[string]*flight
	group   singleflight.Group

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(opts Options) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		opts:    opts.withDefaults(),
		entries: make(map[string]*entry),
		flights: make(map[string]*flight),
		ctx:     ctx,
		cancel:  cancel,
	}

	if c.opts.JanitorInterval > 0 {
		c.wg.Add(1)
		go c.janitor()
	}
	return c
}

// Close stops the janitor, cancels in-flight fetches and waits for
// background refreshes to finish.
func (c *Client) Close() {
	c.cancel()

	c.mu.Lock()
	for _, f := range c.flights {
		f.cancel()
	}
	c.mu.Unlock()

	c.wg.Wait()
}

// Fetch returns the cached value for key, loading it with fn when missing
// or invalidated. A stale value is returned as is while one background
// refresh runs.
func Fetch[T any](ctx context.Context, c *Client, key Key, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	v, err := c.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("querycache: %s holds %T, not %T", key, v, zero)
	}
	return t, nil
}

// Fetch is the untyped form of the package-level Fetch.
func (c *Client) Fetch(ctx context.Context, key Key, fn FetchFunc) (any, error) {
	h := key.Hash()
	now := c.opts.Clock()

	c.mu.Lock()
	e := c.entries[h]
	if e != nil {
		e.lastAccess = now
	}
	if e != nil && e.hasData && !e.invalidated {
		data := e.data
		if now.Sub(e.updatedAt) < c.opts.StaleTime {
			c.mu.Unlock()
			observability.CacheLookups.WithLabelValues(key.Domain(), "hit").Inc()
			return data, nil
		}

		startRefresh := !e.refreshing
		e.refreshing = true
		c.mu.Unlock()

		observability.CacheLookups.WithLabelValues(key.Domain(), "stale").Inc()
		if startRefresh {
			c.refreshInBackground(ctx, key, fn)
		}
		return data, nil
	}
	c.mu.Unlock()

	observability.CacheLookups.WithLabelValues(key.Domain(), "miss").Inc()
	return c.load(ctx, key, fn)
}

func (c *Client) refreshInBackground(ctx context.Context, key Key, fn FetchFunc) {
	// Keep the caller's logging values, not its lifetime.
	bg := context.WithoutCancel(ctx)
	bg, cancel := context.WithCancel(bg)
	stop := context.AfterFunc(c.ctx, cancel)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		defer stop()

		if _, err := c.load(bg, key, fn); err != nil && !errors.Is(err, context.Canceled) {
			observability.FromContext(bg).Warn("background refresh failed",
				"key", key.String(),
				"error", err,
			)
		}

		c.mu.Lock()
		if e := c.entries[key.Hash()]; e != nil {
			e.refreshing = false
		}
		c.mu.Unlock()
	}()
}

// load joins or starts the shared fetch for key and waits for it or for ctx.
func (c *Client) load(ctx context.Context, key Key, fn FetchFunc) (any, error) {
	h := key.Hash()

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		f, ch := c.join(ctx, key, fn)

		select {
		case res := <-ch:
			c.leave(h, f)
			// The shared fetch was abandoned by every other waiter while
			// this caller was joining; start over.
			if res.Err != nil && errors.Is(res.Err, context.Canceled) && ctx.Err() == nil && c.ctx.Err() == nil {
				continue
			}
			return res.Val, res.Err
		case <-ctx.Done():
			c.leave(h, f)
			return nil, ctx.Err()
		}
	}
}

// join registers the caller as a waiter and attaches it to the shared
// fetch. Both happen under one lock so a waiter count always matches the
// callers attached to the fetch.
func (c *Client) join(ctx context.Context, key Key, fn FetchFunc) (*flight, <-chan singleflight.Result) {
	h := key.Hash()

	c.mu.Lock()
	defer c.mu.Unlock()

	f := c.flights[h]
	if f == nil {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		if c.ctx.Err() != nil {
			cancel()
		}
		f = &flight{key: key, ctx: fctx, cancel: cancel}
		c.flights[h] = f
	}
	f.waiters++

	ch := c.group.DoChan(h, func() (any, error) {
		return c.run(f, key, fn)
	})
	return f, ch
}

func (c *Client) leave(h string, f *flight) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	if c.flights[h] == f {
		delete(c.flights, h)
		// New callers must not join a fetch nobody is waiting for.
		c.group.Forget(h)
	}
}

// run performs the fetch with retries and records the outcome.
func (c *Client) run(f *flight, key Key, fn FetchFunc) (any, error) {
	h := key.Hash()
	logger := observability.FromContext(f.ctx)

	c.mu.Lock()
	var generation uint64
	if e := c.entries[h]; e != nil {
		generation = e.generation
	}
	c.mu.Unlock()

	attempts := 0
	op := func() (any, error) {
		attempts++
		v, err := fn(f.ctx)
		if err != nil && !Retryable(err) {
			return nil, backoff.Permanent(err)
		}
		return v, err
	}
	notify := func(err error, wait time.Duration) {
		observability.CacheFetchRetries.WithLabelValues(key.Domain()).Inc()
		logger.Debug("retrying fetch",
			"key", key.String(),
			"attempt", attempts,
			"wait", wait,
			"error", err,
		)
	}

	v, err := backoff.RetryNotifyWithData(op, c.newBackOff(f.ctx), notify)

	now := c.opts.Clock()
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.flights[h] == f {
		delete(c.flights, h)
	}
	if f.detached {
		// Its waiters get the result; the cache does not.
		return v, err
	}

	e := c.entries[h]
	if e == nil {
		e = &entry{key: key, lastAccess: now}
		c.entries[h] = e
		observability.CacheEntries.Set(float64(len(c.entries)))
	}

	if err != nil {
		if !errors.Is(err, context.Canceled) {
			e.failures += attempts
			e.lastErr = err
		}
		return nil, err
	}

	e.data = v
	e.hasData = true
	e.updatedAt = now
	e.failures = 0
	e.lastErr = nil
	// An invalidation that raced with this fetch still wins.
	e.invalidated = e.generation != generation
	return v, nil
}

func (c *Client) newBackOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.opts.RetryDelay
	exp.MaxInterval = maxRetryDelay
	exp.Multiplier = 2
	exp.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(c.opts.MaxRetries)), ctx)
}

// Invalidate marks every entry under prefix so the next access fetches
// synchronously. Fetches already in flight under prefix are detached: their
// results are not stored and later callers start a new fetch. It returns the
// number of keys marked.
func (c *Client) Invalidate(prefix Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, e := range c.entries {
		if e.key.HasPrefix(prefix) {
			e.invalidated = true
			e.generation++
			n++
		}
	}
	for h, f := range c.flights {
		if !f.key.HasPrefix(prefix) {
			continue
		}
		if _, counted := c.entries[h]; !counted {
			n++
		}
		c.detach(h, f)
	}
	return n
}

// detach stops new callers from joining f. Callers already waiting on it
// still get its result. c.mu must be held.
func (c *Client) detach(h string, f *flight) {
	f.detached = true
	delete(c.flights, h)
	c.group.Forget(h)
}

// SetData stores v as fresh data for key.
func (c *Client) SetData(key Key, v any) {
	now := c.opts.Clock()

	c.mu.Lock()
	defer c.mu.Unlock()

	h := key.Hash()
	e := c.entries[h]
	if e == nil {
		e = &entry{key: key}
		c.entries[h] = e
		observability.CacheEntries.Set(float64(len(c.entries)))
	}
	e.data = v
	e.hasData = true
	e.updatedAt = now
	e.lastAccess = now
	e.invalidated = false
	e.generation++
}

// GetData returns the cached value for key without fetching, fresh or not.
func (c *Client) GetData(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entries[key.Hash()]
	if e == nil || !e.hasData {
		return nil, false
	}
	return e.data, true
}

// Get is the typed form of GetData.
func Get[T any](c *Client, key Key) (T, bool) {
	var zero T
	v, ok := c.GetData(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// Failures returns how many attempts for key have failed since its last
// successful fetch, and the last error.
func (c *Client) Failures(key Key) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entries[key.Hash()]
	if e == nil {
		return 0, nil
	}
	return e.failures, e.lastErr
}

// Clear drops every entry. Used on logout so one user's data never serves
// another.
func (c *Client) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for h, f := range c.flights {
		c.detach(h, f)
	}

	n := len(c.entries)
	c.entries = make(map[string]*entry)
	observability.CacheEvictions.Add(float64(n))
	observability.CacheEntries.Set(0)
}

// Len returns the number of entries.
func (c *Client) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Sweep evicts entries not observed for GCTime and returns how many were
// removed. Entries with a fetch in flight are kept.
func (c *Client) Sweep() int {
	now := c.opts.Clock()

	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for h, e := range c.entries {
		if _, busy := c.flights[h]; busy {
			continue
		}
		if now.Sub(e.lastAccess) >= c.opts.GCTime {
			delete(c.entries, h)
			n++
		}
	}

	if n > 0 {
		observability.CacheEvictions.Add(float64(n))
	}
	observability.CacheEntries.Set(float64(len(c.entries)))
	return n
}

func (c *Client) janitor() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.opts.JanitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			if n := c.Sweep(); n > 0 {
				observability.FromContext(c.ctx).Debug("evicted idle cache entries", "count", n)
			}
		}
	}
}
