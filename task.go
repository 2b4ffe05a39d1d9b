package cutex

import (
	"context"

	"github.com/webriots/coro"
)

// Task is a cooperative unit of work running on a Scheduler. A task may
// suspend while awaiting a Cutex acquisition and is resumed when its
// waker fires, possibly from another goroutine.
type Task struct {
	sched   *Scheduler
	resume  func(struct{}) (struct{}, bool)
	suspend func() struct{}
	queued  bool // guarded by sched.mu
	done    bool
}

func newTask(s *Scheduler, fn func(*Task)) *Task {
	t := &Task{sched: s}
	resume, _ := coro.New(
		func(_ func(struct{}) struct{}, suspend func() struct{}) (z struct{}) {
			t.suspend = suspend
			fn(t)
			return
		},
	)
	t.resume = resume
	return t
}

// Waker returns a resumption token for the task. Waking re-queues the
// task on its scheduler; waking an already queued or finished task is
// harmless.
func (t *Task) Waker() Waker {
	return WakerFunc(func() { t.sched.ready(t) })
}

// Yield re-queues the task and suspends it, letting every other runnable
// task proceed first.
func (t *Task) Yield() {
	t.sched.ready(t)
	t.park()
}

// park suspends the task until its waker fires.
func (t *Task) park() {
	t.suspend()
}

// Await drives acq from task t, suspending t between polls, until the
// Guard is granted.
func Await[T any](t *Task, acq *Acquire[T]) *Guard[T] {
	for {
		if g, ok := acq.Poll(t.Waker()); ok {
			return g
		}
		t.park()
	}
}

// AwaitContext is Await with cancellation: when ctx is done the
// acquisition is abandoned and the context's cause returned.
func AwaitContext[T any](ctx context.Context, t *Task, acq *Acquire[T]) (*Guard[T], error) {
	stop := context.AfterFunc(ctx, t.Waker().Wake)
	defer stop()
	for {
		if ctx.Err() != nil {
			acq.Cancel()
			return nil, context.Cause(ctx)
		}
		if g, ok := acq.Poll(t.Waker()); ok {
			return g, nil
		}
		t.park()
	}
}
