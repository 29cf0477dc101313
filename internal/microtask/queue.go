// Package microtask models the "scheduling is microtask-deferred" rule
// from spec.md §4.2: Subscribe's initial synchronous snapshot delivery
// must be observably separate from the loading-state notification that
// follows when the delivered data turns out to be stale.
//
// Grounded on github.com/gammazero/channelqueue, the unbounded
// channel-backed queue the teacher already uses (dagsync.Subscriber's
// OnSyncFinished) to buffer notifications for a slow consumer without
// blocking the producer goroutine. Queue repurposes the same primitive as
// a single-worker FIFO of deferred closures — the closest Go analogue to a
// JS microtask queue: every deferred function runs on the worker goroutine,
// in the order it was deferred, one at a time. Defer does not wait for it,
// so it may start before the caller that deferred it has returned.
package microtask

import (
	"github.com/gammazero/channelqueue"
)

// Queue runs deferred functions one at a time, in the order they were
// deferred, on a single background goroutine.
type Queue struct {
	in  chan<- func()
	out <-chan func()
}

// New starts a Queue. Callers must call Close when done to stop its
// worker goroutine.
func New() *Queue {
	cq := channelqueue.New[func()](-1)
	q := &Queue{in: cq.In(), out: cq.Out()}
	go q.run()
	return q
}

func (q *Queue) run() {
	for fn := range q.out {
		fn()
	}
}

// Defer schedules fn to run on the queue's single worker goroutine, after
// every previously deferred fn. It returns without waiting for fn to run.
func (q *Queue) Defer(fn func()) {
	q.in <- fn
}

// Close stops accepting new work and lets the worker goroutine drain and
// exit once every already-deferred fn has run.
func (q *Queue) Close() {
	close(q.in)
}
