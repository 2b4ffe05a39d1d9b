package cutex

import (
	"sync"

	"github.com/gammazero/deque"
)

// Scheduler is a minimal cooperative executor for Tasks: a FIFO run queue
// drained by a single Run loop. It exists so acquisitions can be awaited
// from coroutine tasks rather than goroutines. Wakers may re-queue a task
// from any goroutine; Run sleeps while every live task is suspended.
type Scheduler struct {
	mu    sync.Mutex
	runq  deque.Deque[*Task]
	tasks int
	wake  chan struct{}
}

// NewScheduler returns an empty Scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{wake: make(chan struct{}, 1)}
}

// Go queues a new task running fn. Tasks may call Go themselves.
func (s *Scheduler) Go(fn func(*Task)) {
	t := newTask(s, fn)
	s.mu.Lock()
	s.tasks++
	t.queued = true
	s.runq.PushBack(t)
	s.mu.Unlock()
	s.signal()
}

// Run resumes queued tasks until every task has finished. A task that
// suspends without arranging a wake-up stalls the loop forever; that is a
// programming error, same as a goroutine blocked on a lock nobody holds.
func (s *Scheduler) Run() {
	for {
		t := s.next()
		if t == nil {
			return
		}
		s.step(t)
	}
}

func (s *Scheduler) next() *Task {
	for {
		s.mu.Lock()
		if s.runq.Len() > 0 {
			t := s.runq.PopFront()
			t.queued = false
			s.mu.Unlock()
			return t
		}
		idle := s.tasks == 0
		s.mu.Unlock()
		if idle {
			return nil
		}
		<-s.wake
	}
}

func (s *Scheduler) step(t *Task) {
	if t.done {
		return
	}
	if _, more := t.resume(struct{}{}); !more {
		s.mu.Lock()
		t.done = true
		s.tasks--
		s.mu.Unlock()
	}
}

// ready re-queues a suspended task. Safe to call from any goroutine;
// duplicate wakes collapse into one queue entry.
func (s *Scheduler) ready(t *Task) {
	s.mu.Lock()
	if t.done || t.queued {
		s.mu.Unlock()
		return
	}
	t.queued = true
	s.runq.PushBack(t)
	s.mu.Unlock()
	s.signal()
}

func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}
