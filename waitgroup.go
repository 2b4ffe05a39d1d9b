package cutex

import "github.com/gammazero/deque"

// WaitGroup waits for a collection of tasks to finish. The counter
// follows sync.WaitGroup conventions: Add before the work starts, Done
// when it finishes, Wait to suspend until the counter drains.
//
// A WaitGroup is confined to tasks of a single Scheduler and must only be
// touched from them.
type WaitGroup struct {
	noCopy  noCopy
	n       int
	waiters deque.Deque[*Task]
}

// Add adds delta to the counter, waking every waiter when it reaches
// zero. A negative counter panics.
func (wg *WaitGroup) Add(delta int) {
	wg.n += delta
	if wg.n < 0 {
		panic("cutex: negative WaitGroup counter")
	}
	if wg.n > 0 {
		return
	}
	for wg.waiters.Len() > 0 {
		wg.waiters.PopFront().Waker().Wake()
	}
}

// Done decrements the counter by one.
func (wg *WaitGroup) Done() {
	wg.Add(-1)
}

// Wait suspends t until the counter reaches zero. It returns immediately
// if the counter is already zero.
func (wg *WaitGroup) Wait(t *Task) {
	for wg.n > 0 {
		wg.waiters.PushBack(t)
		t.park()
	}
}
