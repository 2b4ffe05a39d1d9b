package cutex

import "context"

type acquireState uint8

const (
	acquireUnregistered acquireState = iota
	acquireRegistered
	acquireGranted
	acquireCancelled
)

// Acquire is a single in-flight acquisition of a Cutex: the suspendable
// operation behind Lock and LockWhen. It is driven by one goroutine at a
// time, either resumption-style through Poll or by blocking in Wait. An
// Acquire that has not yet produced a Guard may be abandoned at any point
// with Cancel.
type Acquire[T any] struct {
	c     *Cutex[T]
	pred  Predicate[T]
	key   waitKey
	state acquireState
}

// Poll attempts the acquisition and returns the Guard and true on
// success. Otherwise the acquisition is queued, keeping its arrival
// position across polls, and w fires when it should be polled again. w
// may be nil if the caller only ever re-polls on its own schedule; a
// waiter without a waker is passed over by releases until one is
// supplied.
//
// Poll panics once the acquisition has completed or been cancelled.
func (a *Acquire[T]) Poll(w Waker) (*Guard[T], bool) {
	switch a.state {
	case acquireGranted:
		panic("cutex: poll of completed acquisition")
	case acquireCancelled:
		panic("cutex: poll of cancelled acquisition")
	}

	if a.c.state.tryLock(a.key) {
		return a.acquired(w)
	}

	a.enqueue(w)

	// A release may have run between the failed attempt and the enqueue
	// above, in which case no one is left to wake us: attempt once more
	// before reporting the acquisition pending.
	if a.c.state.tryLock(a.key) {
		return a.acquired(w)
	}
	return nil, false
}

// acquired runs with the lock held: check the predicate and either claim
// the lock or push it onward while keeping this acquirer's place in line.
func (a *Acquire[T]) acquired(w Waker) (*Guard[T], bool) {
	if a.pred.CanLock(&a.c.value) {
		if a.state == acquireRegistered {
			q := &a.c.waiters
			q.mu.Lock()
			if q.remove(a.key) {
				a.c.state.clearWaiters()
			}
			q.mu.Unlock()
		}
		a.state = acquireGranted
		return &Guard[T]{c: a.c}, true
	}

	// We took the lock but may not keep it. Make sure we are queued with
	// a live waker, then re-run release so another waiter (or no one)
	// gets it.
	a.enqueue(w)
	a.c.release()
	return nil, false
}

// enqueue records the acquisition in the waiter queue, or refreshes its
// stored waker if it is already queued.
func (a *Acquire[T]) enqueue(w Waker) {
	q := &a.c.waiters
	q.mu.Lock()
	if a.state == acquireUnregistered {
		key, first := q.push(a.pred, w)
		a.key = key
		a.state = acquireRegistered
		if first {
			a.c.state.markWaiters()
		}
	} else {
		q.get(a.key).waker = w
	}
	q.mu.Unlock()
}

// Cancel abandons the acquisition. If the lock had already been promised
// to it but never claimed, the release algorithm runs again so the lock
// is not stranded. Cancel is idempotent, and a no-op once a Guard has
// been produced: from then on only the Guard releases the lock.
func (a *Acquire[T]) Cancel() {
	switch a.state {
	case acquireGranted, acquireCancelled:
		return
	}

	regranted := false
	if a.state == acquireRegistered {
		q := &a.c.waiters
		q.mu.Lock()
		// Grants are issued only under the queue lock, so no new grant
		// can be directed here once the entry is gone.
		regranted = a.c.state.removeWaitKey(a.key)
		if q.remove(a.key) {
			a.c.state.clearWaiters()
		}
		q.mu.Unlock()
	}
	a.state = acquireCancelled

	if regranted {
		a.c.release()
	}
}

// Wait drives the acquisition to completion, blocking the calling
// goroutine until the Guard is granted or ctx is done. On ctx expiry the
// acquisition is cancelled and the context's cause returned.
func (a *Acquire[T]) Wait(ctx context.Context) (*Guard[T], error) {
	w := newChanWaker()
	for {
		if g, ok := a.Poll(w); ok {
			return g, nil
		}
		select {
		case <-w:
		case <-ctx.Done():
			a.Cancel()
			return nil, context.Cause(ctx)
		}
	}
}
