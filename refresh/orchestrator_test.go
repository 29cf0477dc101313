package refresh

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	listeners []func()
}

func (f *fakeSource) Subscribe(fn func()) func() {
	f.listeners = append(f.listeners, fn)
	idx := len(f.listeners) - 1
	return func() { f.listeners[idx] = nil }
}

func (f *fakeSource) fire() {
	for _, fn := range f.listeners {
		if fn != nil {
			fn()
		}
	}
}

type fakeTarget struct {
	calls   int32
	lastArg atomic.Bool
	panics  bool
}

func (t *fakeTarget) RefreshObserved(force bool) {
	atomic.AddInt32(&t.calls, 1)
	t.lastArg.Store(force)
	if t.panics {
		panic("boom")
	}
}

func TestFanOutReachesEveryTarget(t *testing.T) {
	focus := &fakeSource{}
	online := &fakeSource{}
	o := New(focus, online)

	t1, t2 := &fakeTarget{}, &fakeTarget{}
	o.Attach(t1)
	o.Attach(t2)

	focus.fire()
	require.EqualValues(t, 1, atomic.LoadInt32(&t1.calls))
	require.EqualValues(t, 1, atomic.LoadInt32(&t2.calls))
	require.False(t, t1.lastArg.Load())

	online.fire()
	require.EqualValues(t, 2, atomic.LoadInt32(&t1.calls))
	require.True(t, t1.lastArg.Load())
}

func TestDetachStopsDelivery(t *testing.T) {
	focus := &fakeSource{}
	o := New(focus, nil)
	target := &fakeTarget{}
	o.Attach(target)
	o.Detach(target)

	focus.fire()
	require.EqualValues(t, 0, atomic.LoadInt32(&target.calls))
}

func TestLastDetachUnsubscribesFromSource(t *testing.T) {
	focus := &fakeSource{}
	o := New(focus, nil)
	target := &fakeTarget{}

	o.Attach(target)
	require.Len(t, focus.listeners, 1)

	o.Detach(target)
	for _, fn := range focus.listeners {
		require.Nil(t, fn)
	}
}

func TestPanickingTargetDoesNotBlockOthers(t *testing.T) {
	focus := &fakeSource{}
	o := New(focus, nil)
	bad := &fakeTarget{panics: true}
	good := &fakeTarget{}
	o.Attach(bad)
	o.Attach(good)

	require.NotPanics(t, func() { focus.fire() })
	require.EqualValues(t, 1, atomic.LoadInt32(&good.calls))
}

func TestAttachIsIdempotent(t *testing.T) {
	focus := &fakeSource{}
	o := New(focus, nil)
	target := &fakeTarget{}
	o.Attach(target)
	o.Attach(target)

	focus.fire()
	require.EqualValues(t, 1, atomic.LoadInt32(&target.calls))
}
