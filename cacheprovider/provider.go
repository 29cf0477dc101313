// Package cacheprovider defines the persistence contract that querycore
// endpoints are optionally bound to.
//
// All methods are asynchronous, even for backends that are synchronous
// under the hood, so that callers do not need to special-case any
// particular provider. All methods MUST fail soft: a Get that cannot read
// its backend returns (Entry{}, false, nil) — never an error the caller
// has to handle — and Set/Remove swallow backend errors after logging
// them. The in-memory state kept by querycore is always authoritative; a
// provider is an optimization, never a dependency.
package cacheprovider

import (
	"context"
	"encoding/json"
	"time"
)

// KeyPrefix namespaces every key a querycore.Core passes to a Provider, so
// that a shared backing store (a shared localKV file, a shared object
// store database) does not collide with keys written by unrelated code.
const KeyPrefix = "QueryCore_"

// Entry is the persisted shape of an endpoint's last-known-good value:
// the producer's result, serialized, and the time it was produced.
type Entry struct {
	Data        json.RawMessage `json:"data"`
	LastUpdated time.Time       `json:"lastUpdated"`
}

// Valid reports whether e is a structurally usable cache entry. Per the
// forward-compatibility rule, an entry with missing data or a zero
// timestamp is treated as though it were never cached.
func (e Entry) Valid() bool {
	return len(e.Data) > 0 && !e.LastUpdated.IsZero()
}

// Provider persists and retrieves Entry values by key. Implementations
// MUST be safe for concurrent use.
type Provider interface {
	// Get returns the entry stored under key, or ok == false on a miss or
	// a backend error.
	Get(ctx context.Context, key string) (entry Entry, ok bool, err error)
	// Set stores entry under key. Backend failures are swallowed by the
	// implementation and never surfaced to the caller.
	Set(ctx context.Context, key string, entry Entry) error
	// Remove deletes any entry stored under key. Removing a key that does
	// not exist is not an error.
	Remove(ctx context.Context, key string) error
}
