package cutex

import "context"

// Cutex is a fair mutex around a value of type T. Acquirers are served in
// arrival order, and each acquisition may be gated on a predicate over
// the guarded value: a release hands the lock to the earliest waiter
// whose predicate holds, skipping but never dropping waiters whose
// predicates do not.
//
// The zero value is an unlocked Cutex around the zero value of T. A Cutex
// must not be copied after first use.
type Cutex[T any] struct {
	noCopy  noCopy
	state   stateWord
	waiters waiterQueue[T]
	value   T
}

// New returns an unlocked Cutex guarding value.
func New[T any](value T) *Cutex[T] {
	return &Cutex[T]{value: value}
}

// Lock begins an unconditional acquisition.
func (c *Cutex[T]) Lock() *Acquire[T] {
	return c.LockWhen(always[T]{})
}

// LockWhen begins an acquisition that completes only when the lock is
// available to this acquirer and pred holds for the guarded value.
func (c *Cutex[T]) LockWhen(pred Predicate[T]) *Acquire[T] {
	return &Acquire[T]{c: c, pred: pred}
}

// TryLock acquires the Cutex only if that requires no waiting. It cannot
// succeed while the lock is held or promised to a queued waiter.
func (c *Cutex[T]) TryLock() (*Guard[T], bool) {
	if c.state.tryLock(noKey) {
		return &Guard[T]{c: c}, true
	}
	return nil, false
}

// LockContext acquires the Cutex, blocking the calling goroutine until
// the lock is granted or ctx is done.
func (c *Cutex[T]) LockContext(ctx context.Context) (*Guard[T], error) {
	return c.Lock().Wait(ctx)
}

// LockWhenContext acquires the Cutex once pred holds for the guarded
// value, blocking until granted or ctx is done.
func (c *Cutex[T]) LockWhenContext(ctx context.Context, pred Predicate[T]) (*Guard[T], error) {
	return c.LockWhen(pred).Wait(ctx)
}

// release implements the unlock algorithm: a lock-free fast path when
// nobody waits, otherwise a FIFO scan that hands the lock directly to the
// first waiter whose predicate holds and whose waker is present. The
// locked bit stays set across a grant, so no third party can slip in
// between releaser and grantee.
func (c *Cutex[T]) release() {
	if c.state.unlockIfNoWaiters() {
		return
	}

	c.waiters.mu.Lock()
	granted := false
	c.waiters.forEachUntil(func(key waitKey, w *waiter[T]) bool {
		if w.waker == nil || !w.pred.CanLock(&c.value) {
			return true
		}
		c.state.grantWaiterLock(key)
		waker := w.waker
		w.waker = nil
		waker.Wake()
		granted = true
		return false
	})
	c.waiters.mu.Unlock()

	if !granted {
		c.state.unlock()
	}
}
