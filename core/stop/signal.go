// Package stop provides the cooperative stop flag shared by every blocking
// component of the voice pipeline.
package stop

import (
	"sync"
	"sync/atomic"
	"time"
)

// Signal transitions from running to stopping exactly once. It is safe to
// raise and observe from any goroutine. A nil Signal is never raised.
type Signal struct {
	raised atomic.Bool
	once   sync.Once
	done   chan struct{}
}

func New() *Signal {
	return &Signal{done: make(chan struct{})}
}

// Raise requests every component observing the signal to wind down.
// Repeated calls are ignored.
func (s *Signal) Raise() {
	if s == nil {
		return
	}

	s.once.Do(func() {
		s.raised.Store(true)
		close(s.done)
	})
}

func (s *Signal) IsRaised() bool {
	return s != nil && s.raised.Load()
}

// Done returns a channel that is closed once the signal is raised. For a nil
// signal the channel is never closed.
func (s *Signal) Done() <-chan struct{} {
	if s == nil {
		return nil
	}
	return s.done
}

// Sleep waits for d or until the signal is raised, whichever comes first. It
// reports whether the full duration elapsed.
func (s *Signal) Sleep(d time.Duration) bool {
	if s.IsRaised() {
		return false
	}
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-s.Done():
		return false
	}
}
