package termui

import (
	"sync"

	"github.com/jmylchreest/noticeboard/internal/container"
)

// Subscription hands container events to the BubbleTea loop. The observer
// side never blocks: batches are appended to a queue and a single wake-up
// signal is raised, so events raised from inside Update cannot deadlock.
type Subscription struct {
	mu      sync.Mutex
	pending []container.Event
	wake    chan struct{}
}

// NewSubscription creates an empty subscription.
func NewSubscription() *Subscription {
	return &Subscription{wake: make(chan struct{}, 1)}
}

// Observe is the container.Observer feeding the subscription.
func (s *Subscription) Observe(events []container.Event) {
	s.mu.Lock()
	s.pending = append(s.pending, events...)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Drain returns and forgets everything queued so far.
func (s *Subscription) Drain() []container.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := s.pending
	s.pending = nil
	return events
}

// Wait blocks until events are queued or done is closed.
func (s *Subscription) Wait(done <-chan struct{}) bool {
	select {
	case <-s.wake:
		return true
	case <-done:
		return false
	}
}
