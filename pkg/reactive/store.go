// Package reactive provides a small synchronous publish/subscribe value container
// and derived values computed from other containers.
//
// Delivery contract:
//   - Subscribe calls the callback immediately with the current value, then again
//     after every Set, in registration order.
//   - Only one goroutine dispatches a given Store at a time. A Set issued while a
//     dispatch is running (from a subscriber or another goroutine) returns
//     immediately; the running dispatcher delivers the newest value in a further
//     round, so the last value every subscriber sees is the last value set.
//   - A subscriber never runs concurrently with itself and never observes an
//     older value after a newer one.
package reactive

import (
	"sync"
)

// Unsubscriber stops a subscription. Calling it more than once is a no-op.
type Unsubscriber func()

// Readable is the read side of a reactive value.
type Readable[T any] interface {
	Get() T
	Subscribe(fn func(T)) Unsubscriber
}

// subscriber state is guarded by Store.mu. busy is set while fn runs; a
// delivery that finds it set is left to the running call, which re-checks the
// version before clearing busy.
type subscriber[T any] struct {
	fn     func(T)
	seen   uint64
	busy   bool
	active bool
}

// Store holds one value and notifies subscribers whenever it is replaced.
type Store[T any] struct {
	mu          sync.Mutex
	value       T
	version     uint64
	delivered   uint64
	dispatching bool
	subscribers []*subscriber[T]
}

// New creates a Store holding initial.
func New[T any](initial T) *Store[T] {
	return &Store[T]{value: initial, version: 1, delivered: 1}
}

// Get returns the current value.
func (s *Store[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set replaces the value and notifies subscribers.
func (s *Store[T]) Set(v T) {
	if s.assign(v) {
		s.flush()
	}
}

// Update replaces the value with fn applied to the current one. The read and
// the write happen under the same lock, so fn must not touch the Store.
func (s *Store[T]) Update(fn func(T) T) {
	s.mu.Lock()
	s.value = fn(s.value)
	s.version++
	dispatch := !s.dispatching
	s.dispatching = true
	s.mu.Unlock()
	if dispatch {
		s.flush()
	}
}

// Subscribe registers fn and calls it immediately with the current value.
func (s *Store[T]) Subscribe(fn func(T)) Unsubscriber {
	sub := &subscriber[T]{fn: fn, active: true, busy: true}

	s.mu.Lock()
	s.subscribers = append(s.subscribers, sub)
	v := s.value
	sub.seen = s.version
	s.mu.Unlock()
	s.run(sub, v)

	var once sync.Once
	return func() {
		once.Do(func() { s.remove(sub) })
	}
}

// SubscriberCount returns the number of active subscribers.
func (s *Store[T]) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers)
}

// assign stores v and reports whether the caller became the dispatcher.
func (s *Store[T]) assign(v T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = v
	s.version++
	if s.dispatching {
		return false
	}
	s.dispatching = true
	return true
}

// flush delivers rounds until no newer value is pending. Must only be called
// by the goroutine that won assign.
func (s *Store[T]) flush() {
	for {
		s.mu.Lock()
		if s.delivered == s.version {
			s.dispatching = false
			s.mu.Unlock()
			return
		}
		v, ver := s.value, s.version
		subs := make([]*subscriber[T], len(s.subscribers))
		copy(subs, s.subscribers)
		s.mu.Unlock()

		for _, sub := range subs {
			s.deliver(sub, v, ver)
		}

		s.mu.Lock()
		s.delivered = ver
		s.mu.Unlock()
	}
}

func (s *Store[T]) deliver(sub *subscriber[T], v T, ver uint64) {
	s.mu.Lock()
	if !sub.active || sub.busy || ver <= sub.seen {
		s.mu.Unlock()
		return
	}
	sub.busy = true
	sub.seen = ver
	s.mu.Unlock()
	s.run(sub, v)
}

// run calls sub.fn with v, then with the latest value for as long as a newer
// one was set during the call. The caller must have set sub.busy.
func (s *Store[T]) run(sub *subscriber[T], v T) {
	for {
		sub.fn(v)

		s.mu.Lock()
		if !sub.active || sub.seen >= s.version {
			sub.busy = false
			s.mu.Unlock()
			return
		}
		v = s.value
		sub.seen = s.version
		s.mu.Unlock()
	}
}

func (s *Store[T]) remove(sub *subscriber[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub.active = false
	for i, candidate := range s.subscribers {
		if candidate == sub {
			s.subscribers = append(s.subscribers[:i:i], s.subscribers[i+1:]...)
			return
		}
	}
}

var _ Readable[int] = (*Store[int])(nil)
