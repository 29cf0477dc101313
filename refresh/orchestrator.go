package refresh

import (
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// Target is whatever a Core-like collection of endpoints exposes to an
// Orchestrator. RefreshObserved is called once per firing of an attached
// EventSource.
//
// force == false (focus/visibility): refresh only observed endpoints that
// have a staleness window and either have passed it or have no data yet.
// force == true (online): refresh every observed endpoint unconditionally.
type Target interface {
	RefreshObserved(force bool)
}

// Orchestrator fans focus and online events out to every attached Target.
// Multiple Cores may share one Orchestrator; the underlying EventSources
// are subscribed exactly once no matter how many Targets are attached,
// reference-counted the way spec.md §9 requires of the global DOM
// listeners it is modeled on.
type Orchestrator struct {
	focusSrc  EventSource
	onlineSrc EventSource

	mu           sync.Mutex
	targets      map[Target]struct{}
	cancelFocus  func()
	cancelOnline func()
}

// New creates an Orchestrator over the given focus and online sources. A
// nil source disables that trigger entirely (e.g. pass a nil focusSrc to
// build an Orchestrator that only reacts to the network coming back).
func New(focusSrc, onlineSrc EventSource) *Orchestrator {
	return &Orchestrator{
		focusSrc:  focusSrc,
		onlineSrc: onlineSrc,
		targets:   make(map[Target]struct{}),
	}
}

// NewDefault creates an Orchestrator using SignalFocusSource and
// DialOnlineSource with their default configuration.
func NewDefault() *Orchestrator {
	return New(NewSignalFocusSource(), NewDialOnlineSource())
}

// Attach registers t to receive RefreshObserved calls. It is idempotent:
// attaching the same Target twice has no additional effect.
func (o *Orchestrator) Attach(t Target) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.targets[t]; ok {
		return
	}
	if len(o.targets) == 0 {
		o.subscribeLocked()
	}
	o.targets[t] = struct{}{}
}

// Detach unregisters t. Once the last Target is detached, the underlying
// EventSources are unsubscribed.
func (o *Orchestrator) Detach(t Target) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.targets[t]; !ok {
		return
	}
	delete(o.targets, t)
	if len(o.targets) == 0 {
		o.unsubscribeLocked()
	}
}

func (o *Orchestrator) subscribeLocked() {
	if o.focusSrc != nil {
		o.cancelFocus = o.focusSrc.Subscribe(func() { o.fanOut(false) })
	}
	if o.onlineSrc != nil {
		o.cancelOnline = o.onlineSrc.Subscribe(func() { o.fanOut(true) })
	}
}

func (o *Orchestrator) unsubscribeLocked() {
	if o.cancelFocus != nil {
		o.cancelFocus()
		o.cancelFocus = nil
	}
	if o.cancelOnline != nil {
		o.cancelOnline()
		o.cancelOnline = nil
	}
}

// fanOut dispatches a single event to every attached target, aggregating
// panics recovered from misbehaving targets into a multierror the way the
// teacher's announce.Send aggregates per-sender failures — logged here
// rather than returned, since EventSource callbacks have nowhere to
// return an error to.
func (o *Orchestrator) fanOut(force bool) {
	o.mu.Lock()
	targets := make([]Target, 0, len(o.targets))
	for t := range o.targets {
		targets = append(targets, t)
	}
	o.mu.Unlock()

	var errs error
	for _, t := range targets {
		if err := callRefresh(t, force); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if errs != nil {
		log.Errorw("refresh orchestrator: target(s) failed", "err", errs)
	}
}

func callRefresh(t Target, force bool) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("target panicked: %v", r)
		}
	}()
	t.RefreshObserved(force)
	return nil
}
