// Package cutex provides a fair, predicate-gated asynchronous mutex.
//
// A Cutex guards a value of any type. Acquisitions are served first-in
// first-out: a release hands the lock directly to the earliest waiter
// whose predicate holds for the guarded value, with no unlocked window in
// between. Waiters whose predicates do not yet hold keep their place in
// line and are re-examined on every release.
//
// Key components:
//
//   - Cutex: the mutex together with the value it guards. Lock and
//     LockWhen start acquisitions; TryLock, LockContext and
//     LockWhenContext are the non-suspending and goroutine-blocking
//     conveniences.
//
//   - Acquire: a single in-flight acquisition, driven by Poll with a
//     Waker (resumption-style) or by Wait (blocking). Abandoning one with
//     Cancel is always safe, even after the lock has been promised to it.
//
//   - Guard: proof of exclusive access to the guarded value. Releasing it
//     runs the hand-off algorithm.
//
//   - Predicate: a caller-supplied read-only condition over the guarded
//     value that gates an acquisition.
//
//   - Waker: the scheduler-facing resumption token; any cooperative
//     executor can drive acquisitions by supplying one.
//
//   - Scheduler, Task, WaitGroup: a minimal coroutine executor whose
//     tasks suspend on acquisitions via Await and AwaitContext.
package cutex
