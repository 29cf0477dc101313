package refresh

import (
	"os"
	"os/signal"
	"sync"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("refresh")

// SignalFocusSource is the default "focus" EventSource: it fires whenever
// the process receives one of its configured signals. This is the
// closest process-level analogue to a browser tab regaining visibility —
// an external actor telling the process to pay attention again — and,
// like signal.Notify itself, is safe to share across any number of
// subscribers.
type SignalFocusSource struct {
	signals []os.Signal

	mu        sync.Mutex
	listeners map[int]func()
	nextID    int
	sigCh     chan os.Signal
	stopCh    chan struct{}
}

// NewSignalFocusSource creates a focus source that fires on sig. If sig is
// empty, it defaults to syscall.SIGUSR1 (platforms without SIGUSR1, such
// as Windows, simply never fire this source; callers there should inject
// their own EventSource).
func NewSignalFocusSource(sig ...os.Signal) *SignalFocusSource {
	if len(sig) == 0 {
		sig = defaultFocusSignals()
	}
	return &SignalFocusSource{
		signals:   sig,
		listeners: make(map[int]func()),
	}
}

func (s *SignalFocusSource) Subscribe(fn func()) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sigCh == nil && len(s.signals) > 0 {
		s.sigCh = make(chan os.Signal, 1)
		s.stopCh = make(chan struct{})
		signal.Notify(s.sigCh, s.signals...)
		go s.run(s.sigCh, s.stopCh)
	}

	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
		if len(s.listeners) == 0 && s.sigCh != nil {
			signal.Stop(s.sigCh)
			close(s.stopCh)
			s.sigCh = nil
			s.stopCh = nil
		}
	}
}

func (s *SignalFocusSource) run(sigCh chan os.Signal, stopCh chan struct{}) {
	for {
		select {
		case <-sigCh:
			s.mu.Lock()
			fns := make([]func(), 0, len(s.listeners))
			for _, fn := range s.listeners {
				fns = append(fns, fn)
			}
			s.mu.Unlock()
			for _, fn := range fns {
				fn()
			}
		case <-stopCh:
			return
		}
	}
}
