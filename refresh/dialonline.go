package refresh

import (
	"net"
	"sync"
	"time"
)

// DefaultOnlineProbeAddr is dialed to decide reachability. Any address
// that normally answers is fine; it is never sent data.
const DefaultOnlineProbeAddr = "1.1.1.1:53"

// DefaultPollInterval is how often DialOnlineSource probes reachability.
const DefaultPollInterval = 5 * time.Second

// DialOnlineSource is the default "online" EventSource. It polls
// reachability of Addr every PollInterval and fires only on the
// false→true transition, mirroring navigator.onLine's edge-triggered
// semantics — an "online" event means the network just came back, not
// that it is merely still up.
type DialOnlineSource struct {
	Addr         string
	PollInterval time.Duration
	DialTimeout  time.Duration

	mu        sync.Mutex
	listeners map[int]func()
	nextID    int
	stopCh    chan struct{}
	wasOnline bool
}

// NewDialOnlineSource creates an online source with the given defaults.
func NewDialOnlineSource() *DialOnlineSource {
	return &DialOnlineSource{
		Addr:         DefaultOnlineProbeAddr,
		PollInterval: DefaultPollInterval,
		DialTimeout:  2 * time.Second,
		listeners:    make(map[int]func()),
	}
}

func (s *DialOnlineSource) Subscribe(fn func()) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopCh == nil {
		s.stopCh = make(chan struct{})
		s.wasOnline = s.probe()
		go s.run(s.stopCh)
	}

	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
		if len(s.listeners) == 0 && s.stopCh != nil {
			close(s.stopCh)
			s.stopCh = nil
		}
	}
}

func (s *DialOnlineSource) probe() bool {
	conn, err := net.DialTimeout("tcp", s.Addr, s.DialTimeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

func (s *DialOnlineSource) run(stopCh chan struct{}) {
	ticker := time.NewTicker(s.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			online := s.probe()
			s.mu.Lock()
			becameOnline := online && !s.wasOnline
			s.wasOnline = online
			fns := make([]func(), 0, len(s.listeners))
			if becameOnline {
				for _, fn := range s.listeners {
					fns = append(fns, fn)
				}
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
