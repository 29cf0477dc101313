package querycore

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/querycore/querycore/cacheprovider"
)

// typedRecord is the non-generic face of record[T], letting a Core hold a
// heterogeneous registry of endpoints (map[string]typedRecord) while the
// generic accessors in facade.go recover the concrete T with a single type
// assertion at the boundary. Every method a Core needs to drive without
// knowing T lives here; anything that needs T (GetState, Subscribe,
// re-DefineEndpoint) is a free function that type-asserts first.
type typedRecord interface {
	refetch(ctx context.Context, core *Core) error
	invalidateRec(ctx context.Context, core *Core) error
	isObserved() bool
	isStale(now time.Time) bool
	needsFocusRefresh(now time.Time) bool
	typeName() string
}

// record holds one endpoint's producer, options, cache binding and current
// state, plus its subscriber list. One record exists per key for the
// lifetime of the Core it was defined on.
type record[T any] struct {
	mu sync.Mutex

	key      string
	producer Producer[T]
	options  EndpointOptions
	provider cacheprovider.Provider

	state EndpointState[T]

	subs   []subscription[T]
	nextID int

	// epoch increments on every invalidate and on every fresh (non-coalesced)
	// load. A production in flight captures the epoch in force when it
	// started; if that epoch has since moved on by the time the producer
	// returns, the result is discarded instead of committed. This is the
	// guard spec.md §9 recommends against a producer that resolves after an
	// intervening invalidate silently reviving stale data.
	epoch uint64
}

type subscription[T any] struct {
	id int
	fn func(EndpointState[T])
}

func newRecord[T any](key string, producer Producer[T], opts EndpointOptions, provider cacheprovider.Provider) *record[T] {
	return &record[T]{
		key:      key,
		producer: producer,
		options:  opts,
		provider: provider,
	}
}

func (r *record[T]) typeName() string {
	var zero T
	return reflect.TypeOf(&zero).Elem().String()
}

// snapshot returns a deep copy of the record's current state, safe for the
// caller to hold onto indefinitely.
func (r *record[T]) snapshot() EndpointState[T] {
	r.mu.Lock()
	s := r.state
	r.mu.Unlock()
	return s.Clone()
}

func (r *record[T]) isObserved() bool {
	r.mu.Lock()
	n := len(r.subs)
	r.mu.Unlock()
	return n > 0
}

func (r *record[T]) isStale(now time.Time) bool {
	r.mu.Lock()
	s := r.state
	refetchAfter := r.options.RefetchAfter
	r.mu.Unlock()
	return s.Stale(now, refetchAfter)
}

// needsFocusRefresh is the narrower staleness check a focus event applies,
// per spec.md §4.5: an endpoint with no configured RefetchAfter is exempt
// from focus-triggered refresh entirely, regardless of whether it has ever
// loaded data. isStale has no such carve-out — it is the general rule
// Subscribe uses, where "no RefetchAfter and no data yet" must still
// trigger the endpoint's first load.
func (r *record[T]) needsFocusRefresh(now time.Time) bool {
	r.mu.Lock()
	refetchAfter := r.options.RefetchAfter
	s := r.state
	r.mu.Unlock()
	if refetchAfter <= 0 {
		return false
	}
	return s.Stale(now, refetchAfter)
}

// addListener registers fn and returns its subscription id along with the
// snapshot current at registration time, so the caller can deliver it
// before fn is eligible to receive anything else.
func (r *record[T]) addListener(fn func(EndpointState[T])) (int, EndpointState[T]) {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.subs = append(r.subs, subscription[T]{id: id, fn: fn})
	s := r.state
	r.mu.Unlock()
	return id, s.Clone()
}

func (r *record[T]) removeListener(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, sub := range r.subs {
		if sub.id == id {
			r.subs = append(r.subs[:i], r.subs[i+1:]...)
			return
		}
	}
}

// notify delivers the record's current state to every subscriber, in
// subscription order. A panicking listener is recovered and logged; it
// does not prevent delivery to the listeners after it.
func (r *record[T]) notify() {
	r.mu.Lock()
	s := r.state.Clone()
	listeners := make([]func(EndpointState[T]), len(r.subs))
	for i, sub := range r.subs {
		listeners[i] = sub.fn
	}
	r.mu.Unlock()

	for _, fn := range listeners {
		deliver(fn, s)
	}
}

func deliver[T any](fn func(EndpointState[T]), s EndpointState[T]) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Errorw("subscriber panicked, continuing", "panic", rec)
		}
	}()
	fn(s)
}

// hydrate seeds the record's in-memory state from the cache provider. It
// runs once, synchronously, from DefineEndpoint, after the record has
// already been added to the Core's registry; the state write is made under
// the record's mutex like every other mutator.
func (r *record[T]) hydrate(ctx context.Context, core *Core) {
	entry, ok, err := r.provider.Get(ctx, prefixedKey(r.key))
	if err != nil {
		core.diag(r.key, "cache_get", err)
	}
	if !ok || !entry.Valid() {
		return
	}
	var val T
	if err := json.Unmarshal(entry.Data, &val); err != nil {
		core.diag(r.key, "cache_get", err)
		return
	}

	r.mu.Lock()
	r.state = EndpointState[T]{
		Data:        val,
		HasData:     true,
		LastUpdated: entry.LastUpdated,
	}
	r.mu.Unlock()
}

// refetch runs (or joins) one production cycle for this record. Exactly
// one loading-transition notification is emitted per cycle, regardless of
// how many concurrent callers join it through the Core's coalescing group:
// the IsLoading flip happens here, under the record's own mutex, before
// coalesce.Group.Do is ever invoked, so every caller racing into refetch
// for the same key observes and skips an already-in-flight cycle the same
// way.
func (r *record[T]) refetch(ctx context.Context, core *Core) error {
	r.mu.Lock()
	leader := !r.state.IsLoading
	if leader {
		r.state.IsLoading = true
		r.epoch++
	}
	epoch := r.epoch
	r.mu.Unlock()

	if leader {
		r.notify()
	}

	// A producer failure is recorded in the endpoint's state (IsError/Err);
	// it is not returned to the caller.
	_, _, _ = core.group.Do(r.key, func() (any, error) {
		return r.produce(ctx, core, epoch)
	})
	core.group.Forget(r.key)
	return nil
}

// produce calls the producer, commits the result if epoch is still
// current, and notifies subscribers. It is the function singleflight
// dedups: across every caller that joined this cycle, it runs exactly
// once.
func (r *record[T]) produce(ctx context.Context, core *Core, epoch uint64) (any, error) {
	val, perr := invokeProducer(ctx, r.producer)

	r.mu.Lock()
	if r.epoch != epoch {
		// Superseded by an invalidate (or another fresh cycle) while this
		// production was in flight. Drop the result on the floor per the
		// epoch guard — do not let a late producer resurrect stale state.
		r.mu.Unlock()
		return nil, perr
	}

	if perr != nil {
		r.state.IsLoading = false
		r.state.IsError = true
		r.state.Err = perr
		r.mu.Unlock()
		r.notify()
		return nil, perr
	}

	r.state.Data = val
	r.state.HasData = true
	r.state.LastUpdated = core.now()
	r.state.IsError = false
	r.state.Err = nil
	r.state.IsLoading = false
	snap := r.state
	r.mu.Unlock()

	r.writeCache(ctx, core, snap)
	r.notify()
	return val, nil
}

func (r *record[T]) writeCache(ctx context.Context, core *Core, snap EndpointState[T]) {
	data, err := json.Marshal(snap.Data)
	if err != nil {
		core.diag(r.key, "cache_set", err)
		return
	}
	entry := cacheprovider.Entry{Data: data, LastUpdated: snap.LastUpdated}
	if err := r.provider.Set(ctx, prefixedKey(r.key), entry); err != nil {
		core.diag(r.key, "cache_set", err)
	}
}

// invalidateRec clears in-memory state and the cache entry, then notifies
// subscribers of the now-empty state. Any production already in flight for
// this key is left to run to completion but its result is discarded by the
// epoch guard in produce.
func (r *record[T]) invalidateRec(ctx context.Context, core *Core) error {
	r.mu.Lock()
	r.epoch++
	r.state = EndpointState[T]{}
	r.mu.Unlock()

	if err := r.provider.Remove(ctx, prefixedKey(r.key)); err != nil {
		core.diag(r.key, "cache_remove", err)
	}
	r.notify()
	return nil
}

func invokeProducer[T any](ctx context.Context, p Producer[T]) (val T, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if e, ok := rec.(error); ok {
				err = e
			} else {
				err = fmt.Errorf("producer panicked: %v", rec)
			}
		}
	}()
	return p(ctx)
}

func prefixedKey(key string) string {
	return cacheprovider.KeyPrefix + key
}
