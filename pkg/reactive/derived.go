package reactive

import (
	"sync"
)

// Derived is a read-only value recomputed from its inputs whenever any of them
// notifies. It keeps only the last computed value.
type Derived[T any] struct {
	mu      sync.Mutex
	out     *Store[T]
	compute func() T
	ready   bool
	closed  bool
	unsubs  []Unsubscriber
}

// Derive3 returns a Derived whose value is fn applied to the current values of
// a, b and c. fn must be pure: the inputs are read together under one lock and
// the result is published as a single value.
func Derive3[A, B, C, R any](a Readable[A], b Readable[B], c Readable[C], fn func(A, B, C) R) *Derived[R] {
	d := newDerived(func() R { return fn(a.Get(), b.Get(), c.Get()) })
	d.start(
		a.Subscribe(func(A) { d.recompute() }),
		b.Subscribe(func(B) { d.recompute() }),
		c.Subscribe(func(C) { d.recompute() }),
	)
	return d
}

// Derive2 is the two-input form of Derive3.
func Derive2[A, B, R any](a Readable[A], b Readable[B], fn func(A, B) R) *Derived[R] {
	d := newDerived(func() R { return fn(a.Get(), b.Get()) })
	d.start(
		a.Subscribe(func(A) { d.recompute() }),
		b.Subscribe(func(B) { d.recompute() }),
	)
	return d
}

func newDerived[T any](compute func() T) *Derived[T] {
	var zero T
	return &Derived[T]{out: New(zero), compute: compute}
}

// start records the input subscriptions and publishes the initial value.
// Callbacks fired while subscribing are ignored so the first value is
// computed exactly once.
func (d *Derived[T]) start(unsubs ...Unsubscriber) {
	d.mu.Lock()
	d.unsubs = unsubs
	d.ready = true
	d.mu.Unlock()
	d.recompute()
}

func (d *Derived[T]) recompute() {
	d.mu.Lock()
	if !d.ready || d.closed {
		d.mu.Unlock()
		return
	}
	v := d.compute()
	dispatch := d.out.assign(v)
	d.mu.Unlock()

	if dispatch {
		d.out.flush()
	}
}

// Get returns the last computed value.
func (d *Derived[T]) Get() T {
	return d.out.Get()
}

// Subscribe registers fn and calls it immediately with the last computed value.
func (d *Derived[T]) Subscribe(fn func(T)) Unsubscriber {
	return d.out.Subscribe(fn)
}

// Close detaches the Derived from its inputs. The last value stays readable.
func (d *Derived[T]) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	unsubs := d.unsubs
	d.unsubs = nil
	d.mu.Unlock()

	for _, u := range unsubs {
		u()
	}
}

var _ Readable[int] = (*Derived[int])(nil)
