package cutex

import "sync"

// waiter is one pending acquisition. Nodes are owned by the queue; an
// Acquire refers to its node only through its waitKey, never by pointer,
// so the queue can be reshaped while the acquirer is suspended elsewhere.
type waiter[T any] struct {
	key   waitKey
	pred  Predicate[T]
	waker Waker
	prev  *waiter[T]
	next  *waiter[T]
}

// waiterQueue is the FIFO registry of pending acquisitions: a linked list
// for arrival order plus a key index for O(1) removal. mu guards every
// field and is only ever held for short, non-suspending critical sections.
// Keys come from a counter and are never reused.
type waiterQueue[T any] struct {
	mu    sync.Mutex
	head  *waiter[T]
	tail  *waiter[T]
	byKey map[waitKey]*waiter[T]
	last  waitKey
}

// push appends a waiter and reports its key and whether the queue was
// empty beforehand. Callers hold mu.
func (q *waiterQueue[T]) push(pred Predicate[T], waker Waker) (waitKey, bool) {
	if q.byKey == nil {
		q.byKey = make(map[waitKey]*waiter[T])
	}
	q.last++
	w := &waiter[T]{key: q.last, pred: pred, waker: waker, prev: q.tail}
	wasEmpty := q.head == nil
	if wasEmpty {
		q.head = w
	} else {
		q.tail.next = w
	}
	q.tail = w
	q.byKey[w.key] = w
	return w.key, wasEmpty
}

// remove unlinks the waiter identified by key and reports whether the
// queue is now empty. The node drops its predicate and waker references
// immediately. A key with no live waiter is a bug in this package.
// Callers hold mu.
func (q *waiterQueue[T]) remove(key waitKey) bool {
	w := q.get(key)
	if w.prev == nil {
		q.head = w.next
	} else {
		w.prev.next = w.next
	}
	if w.next == nil {
		q.tail = w.prev
	} else {
		w.next.prev = w.prev
	}
	w.prev, w.next = nil, nil
	w.pred, w.waker = nil, nil
	delete(q.byKey, key)
	return q.head == nil
}

// get returns the live waiter for key. Callers hold mu.
func (q *waiterQueue[T]) get(key waitKey) *waiter[T] {
	w := q.byKey[key]
	if w == nil {
		panic("cutex: wait key not in queue")
	}
	return w
}

// forEachUntil visits waiters head to tail in arrival order, stopping
// early when f returns false. It reports whether the walk reached the
// end. The walk itself never removes or reorders a waiter: one whose turn
// is skipped keeps its position for the next scan. Callers hold mu.
func (q *waiterQueue[T]) forEachUntil(f func(waitKey, *waiter[T]) bool) bool {
	for w := q.head; w != nil; w = w.next {
		if !f(w.key, w) {
			return false
		}
	}
	return true
}
