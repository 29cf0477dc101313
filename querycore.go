package querycore

import (
	"context"
	"sync"
	"time"

	"github.com/querycore/querycore/cacheprovider"
	"github.com/querycore/querycore/cacheprovider/memory"
	"github.com/querycore/querycore/cacheprovider/objectstore"
	"github.com/querycore/querycore/internal/coalesce"
	"github.com/querycore/querycore/internal/microtask"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("querycore")

// Core owns an endpoint registry and the shared machinery — coalescing,
// the deferred-notification queue, and an optional refresh orchestrator —
// every endpoint defined on it uses.
type Core struct {
	mu      sync.RWMutex
	records map[string]typedRecord
	closed  bool

	cfg   config
	group coalesce.Group
	mt    *microtask.Queue
	now   func() time.Time
}

// New constructs a Core. With no options, endpoints default to the
// "memory" cache provider and never time-expire (they are only refetched
// when a subscriber observes empty data, or on an unconditional online
// event from an attached orchestrator).
func New(opts ...Option) *Core {
	cfg := getOpts(opts)

	if _, ok := cfg.providers[ProviderMemory]; !ok {
		cfg.providers[ProviderMemory] = memory.New(0)
	}
	if _, ok := cfg.providers[ProviderObjectStore]; !ok {
		cfg.providers[ProviderObjectStore] = objectstore.NewInMemory()
	}
	// No default is registered for ProviderLocalKV: unlike the other two,
	// it has no sensible Core-wide default path. An endpoint that names it
	// without the caller first calling WithCacheProvider(ProviderLocalKV,
	// localkv.New(path)) gets ErrUnknownCacheProvider at DefineEndpoint.

	c := &Core{
		records: make(map[string]typedRecord),
		cfg:     cfg,
		mt:      microtask.New(),
		now:     time.Now,
	}
	if cfg.orchestrator != nil {
		cfg.orchestrator.Attach(c)
	}
	return c
}

// Close detaches the Core from its orchestrator (if any) and stops its
// deferred-notification worker. Endpoints already defined keep whatever
// state they held; DefineEndpoint, Subscribe, Refetch and Invalidate
// return ErrClosed afterwards, and a second Close returns nil.
func (c *Core) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	if c.cfg.orchestrator != nil {
		c.cfg.orchestrator.Detach(c)
	}
	c.mt.Close()
	return nil
}

func (c *Core) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

func (c *Core) resolveProvider(name string) (cacheprovider.Provider, error) {
	p, ok := c.cfg.providers[name]
	if !ok || p == nil {
		return nil, ErrUnknownCacheProvider
	}
	return p, nil
}

// Refetch forces a new production cycle for key, joining one already in
// flight if there is one. It returns ErrUnknownEndpoint if key was never
// passed to DefineEndpoint.
func (c *Core) Refetch(ctx context.Context, key string) error {
	if c.isClosed() {
		return ErrClosed
	}
	c.mu.RLock()
	rec, ok := c.records[key]
	c.mu.RUnlock()
	if !ok {
		return ErrUnknownEndpoint
	}
	return rec.refetch(ctx, c)
}

// Invalidate clears an endpoint's in-memory state and its cache entry, and
// notifies subscribers of the now-empty state. It returns ErrUnknownEndpoint
// if key was never passed to DefineEndpoint.
func (c *Core) Invalidate(ctx context.Context, key string) error {
	if c.isClosed() {
		return ErrClosed
	}
	c.mu.RLock()
	rec, ok := c.records[key]
	c.mu.RUnlock()
	if !ok {
		return ErrUnknownEndpoint
	}
	return rec.invalidateRec(ctx, c)
}

// RefreshObserved implements refresh.Target: it is called by an attached
// Orchestrator on every focus (force == false) or online (force == true)
// event. Matching endpoints are refetched on the Core's deferred-
// notification queue, one at a time, rather than inline on the
// orchestrator's own goroutine.
func (c *Core) RefreshObserved(force bool) {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return
	}
	recs := make([]typedRecord, 0, len(c.records))
	for _, r := range c.records {
		recs = append(recs, r)
	}
	c.mu.RUnlock()

	now := c.now()
	for _, r := range recs {
		if !r.isObserved() {
			continue
		}
		if !force && !r.needsFocusRefresh(now) {
			continue
		}
		rec := r
		c.mt.Defer(func() {
			if err := rec.refetch(context.Background(), c); err != nil {
				log.Debugw("background refresh failed", "err", err)
			}
		})
	}
}

func (c *Core) diag(key, kind string, err error) {
	log.Debugw("cache operation failed, continuing with in-memory state", "key", key, "kind", kind, "err", err)
	if c.cfg.diagSink != nil {
		c.cfg.diagSink(DiagnosticEvent{Key: key, Kind: kind, Err: err})
	}
}
