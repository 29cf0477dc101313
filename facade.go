package querycore

import (
	"context"
	"fmt"
	"reflect"
	"sync"
)

func typeMismatchErr[T any](tr typedRecord) error {
	var zero T
	want := reflect.TypeOf(&zero).Elem().String()
	return fmt.Errorf("%w: defined as %s, requested as %s", ErrTypeMismatch, tr.typeName(), want)
}

// DefineEndpoint registers key on c with the given producer and options.
// The first call for a key hydrates its in-memory state from the resolved
// cache provider, synchronously, before returning. A later call for the
// same key with the same T replaces the producer and options in place —
// useful for swapping a producer's closed-over arguments — without
// touching the record's current state or re-hydrating.
//
// DefineEndpoint returns ErrClosed if c has been closed, ErrUnknownCacheProvider
// if opts (or the Core's default) names a provider that was never
// registered, and ErrTypeMismatch if key was previously defined with a
// different T.
func DefineEndpoint[T any](ctx context.Context, c *Core, key string, producer Producer[T], opts ...EndpointOptions) error {
	if c.isClosed() {
		return ErrClosed
	}
	var eo EndpointOptions
	if len(opts) > 0 {
		eo = opts[0]
	}
	merged := eo.merge(c.cfg)

	provider, err := c.resolveProvider(merged.CacheProvider)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if existing, ok := c.records[key]; ok {
		rec, ok := existing.(*record[T])
		if !ok {
			err := typeMismatchErr[T](existing)
			c.mu.Unlock()
			return err
		}
		rec.mu.Lock()
		rec.producer = producer
		rec.options = merged
		rec.provider = provider
		rec.mu.Unlock()
		c.mu.Unlock()
		return nil
	}

	rec := newRecord[T](key, producer, merged, provider)
	c.records[key] = rec
	c.mu.Unlock()

	rec.hydrate(ctx, c)
	return nil
}

// GetState returns a snapshot of key's current state, or the zero
// EndpointState if key is unknown to c or was defined with a different T.
// Unlike the other accessors, GetState never returns an error: it is the
// read path callers poll defensively, and a zero EndpointState (HasData ==
// false) already communicates "nothing known yet."
func GetState[T any](c *Core, key string) EndpointState[T] {
	c.mu.RLock()
	tr, ok := c.records[key]
	c.mu.RUnlock()
	if !ok {
		return EndpointState[T]{}
	}
	rec, ok := tr.(*record[T])
	if !ok {
		return EndpointState[T]{}
	}
	return rec.snapshot()
}

// Subscribe registers listener to receive every subsequent state change for
// key, and delivers the current snapshot to it synchronously before
// Subscribe returns. If the delivered snapshot is stale (no data yet, or
// past its refetch window), a refetch is scheduled on the Core's deferred
// queue — so the loading-state notification that follows is always
// observably separate from this initial synchronous delivery, never
// folded into it.
//
// The returned cancel func removes listener; calling it more than once is
// a no-op. Subscribe returns ErrUnknownEndpoint if key was never defined,
// and ErrTypeMismatch if it was defined with a different T.
func Subscribe[T any](c *Core, key string, listener func(EndpointState[T])) (func(), error) {
	if c.isClosed() {
		return nil, ErrClosed
	}
	c.mu.RLock()
	tr, ok := c.records[key]
	c.mu.RUnlock()
	if !ok {
		return nil, ErrUnknownEndpoint
	}
	rec, ok := tr.(*record[T])
	if !ok {
		return nil, typeMismatchErr[T](tr)
	}

	id, snap := rec.addListener(listener)
	deliver(listener, snap)

	if snap.Stale(c.now(), rec.options.RefetchAfter) {
		c.mt.Defer(func() {
			if err := rec.refetch(context.Background(), c); err != nil {
				log.Debugw("subscribe-triggered refresh failed", "key", key, "err", err)
			}
		})
	}

	var once sync.Once
	return func() {
		once.Do(func() { rec.removeListener(id) })
	}, nil
}
