package querycore

import (
	"context"
	"time"

	"github.com/querycore/querycore/internal/clone"
)

// Producer is the nullary, asynchronous value-producing function an
// endpoint is defined with. Returning a value counts as success; a
// non-nil error (or a recovered panic, wrapped as an error) counts as
// failure. ctx is derived from whatever context the triggering Refetch
// call (or the core's own background refresh) was given; querycore never
// cancels it on invalidate — a producer owns its own cancellation, per
// spec.md §5.
type Producer[T any] func(ctx context.Context) (T, error)

// EndpointState is the only structure exposed to subscribers and to
// GetState. HasData substitutes for the "data: T | undefined" of a
// dynamically typed core; LastUpdated.IsZero() substitutes for "lastUpdated:
// undefined".
//
// Invariants, enforced by every transition in record.go:
//  1. IsError == true  ⇒ Err != nil
//     IsError == false ⇒ Err == nil
//  2. !LastUpdated.IsZero() ⇒ HasData == true
//  3. a successful production replaces Data/LastUpdated and clears Err
//  4. a failed production retains Data/LastUpdated and sets Err
//  5. IsLoading is true exactly while a production is in flight
type EndpointState[T any] struct {
	Data        T
	HasData     bool
	LastUpdated time.Time
	IsLoading   bool
	IsError     bool
	Err         error
}

// Clone deep-copies s, satisfying internal/clone.Cloner so that
// clone.Clone(s) never falls back to a gob round trip. That fallback would
// otherwise be hit by every error state: Err holds an error interface, and
// most error implementations are unexported structs gob cannot encode.
func (s EndpointState[T]) Clone() EndpointState[T] {
	return EndpointState[T]{
		Data:        clone.Clone(s.Data),
		HasData:     s.HasData,
		LastUpdated: s.LastUpdated,
		IsLoading:   s.IsLoading,
		IsError:     s.IsError,
		Err:         s.Err,
	}
}

// Stale reports whether this state should trigger a refetch: no data yet,
// or refetchAfter is set and it has elapsed since LastUpdated.
func (s EndpointState[T]) Stale(now time.Time, refetchAfter time.Duration) bool {
	if !s.HasData {
		return true
	}
	if refetchAfter <= 0 {
		return false
	}
	return now.Sub(s.LastUpdated) >= refetchAfter
}
