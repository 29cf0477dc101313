// Package coalesce is querycore's request coalescer: it ensures at most
// one production is in flight per endpoint key and joins every concurrent
// caller to that one production's outcome.
//
// Grounded on probablyArth-callonce-go's use of
// golang.org/x/sync/singleflight for exactly this purpose, rather than a
// hand-rolled in-flight map: singleflight already guarantees "fn runs
// exactly once per key among overlapping callers, every caller observes
// the same result," which is precisely spec.md §4.3's contract.
package coalesce

import "golang.org/x/sync/singleflight"

// Group coalesces calls keyed by an endpoint key.
type Group struct {
	sf singleflight.Group
}

// Do calls fn if no call for key is in flight, otherwise waits for and
// returns the in-flight call's result. shared reports whether the result
// was shared with at least one other caller.
func (g *Group) Do(key string, fn func() (any, error)) (v any, err error, shared bool) {
	return g.sf.Do(key, fn)
}

// Forget tells the Group to forget about key, so that a subsequent Do for
// key starts a fresh call rather than joining a call that is still
// finishing up bookkeeping. querycore calls this once a coalesced
// Refetch's result has been delivered to the caller.
func (g *Group) Forget(key string) {
	g.sf.Forget(key)
}
