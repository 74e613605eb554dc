package serialline

import (
	"sync"
	"time"
)

type reconnectState int

const (
	stateDisconnected reconnectState = iota
	stateConnected
	stateReconnecting
)

// reconnectSupervisor retries opening the transport at a fixed interval
// after a disconnect, with no backoff, until an attempt succeeds or the
// supervisor is shut down. Each attempt re-attaches the engine's handler
// before opening, since a disconnect may have cleared the transport's
// subscriptions.
type reconnectSupervisor struct {
	interval time.Duration
	attempt  func() error // re-attach handler, then open the transport
	onOpen   func()       // invoked after a successful reconnect

	mu    sync.Mutex
	state reconnectState
	stop  chan struct{}
}

func newReconnectSupervisor(interval time.Duration, attempt func() error, onOpen func()) *reconnectSupervisor {
	return &reconnectSupervisor{
		interval: interval,
		attempt:  attempt,
		onOpen:   onOpen,
	}
}

// connected records a successful open and cancels any retry loop.
func (s *reconnectSupervisor) connected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	s.state = stateConnected
}

// disconnected transitions straight to reconnecting and starts the retry
// loop. Redundant notifications while already reconnecting are ignored.
func (s *reconnectSupervisor) disconnected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateReconnecting {
		return
	}
	s.state = stateReconnecting
	stop := make(chan struct{})
	s.stop = stop
	go s.retryLoop(stop)
}

// shutdown cancels any retry loop and parks the supervisor.
func (s *reconnectSupervisor) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	s.state = stateDisconnected
}

func (s *reconnectSupervisor) retryLoop(stop chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := s.attempt(); err != nil {
				continue // stay reconnecting, ticker fires again
			}
			s.mu.Lock()
			if s.stop != stop {
				// shut down while the attempt was in flight
				s.mu.Unlock()
				return
			}
			s.stop = nil
			s.state = stateConnected
			s.mu.Unlock()
			s.onOpen()
			return
		}
	}
}
