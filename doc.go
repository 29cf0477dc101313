// Package querycore is a client-side data-fetching and caching core: an
// endpoint registry keyed by string, a state machine per endpoint, a
// subscription/notification engine, in-flight request coalescing, and a
// pluggable cache provider with memory, localKV and object-store backends.
//
// It generalizes the teacher's pcache — a single-type, single-strategy
// fetch-and-cache helper built for one IPNI client — into a registry of
// independently typed, independently configured endpoints, each following
// the same hydrate/fetch/notify lifecycle pcache models for one.
//
// An application defines endpoints — a string key, a nullary-ish Producer
// function, and a set of options — and subscribes to them. The core holds,
// per endpoint, the latest successfully produced value, whether a
// production is currently in flight, the last error (if any), and the wall
// clock time of the last success. Subscribers receive a cloned snapshot of
// that state immediately on subscribe and again after every transition.
//
// # Cache providers
//
// Endpoint state is optionally persisted across process restarts through a
// pluggable cacheprovider.Provider: an in-memory LRU
// (cacheprovider/memory), a synchronous single-file JSON store
// (cacheprovider/localkv) analogous to browser localStorage, or an
// embedded transactional object store (cacheprovider/objectstore) backed
// by github.com/ipfs/go-datastore.
//
// # Coalescing
//
// Concurrent Refetch calls for the same endpoint share one producer
// invocation; see internal/coalesce.
//
// # Refresh orchestration
//
// A refresh.Orchestrator can be attached to a Core so that observed
// endpoints are refreshed when the process regains focus or the network
// comes back online; see the refresh package.
package querycore
