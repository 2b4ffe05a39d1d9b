package cutex

// A Predicate gates an acquisition on the state of the guarded value.
// CanLock is called with the lock effectively held, so it may read the
// value freely; it must not mutate it, block, or panic. A predicate that
// never returns true suspends its own acquirer indefinitely but does not
// starve later waiters.
type Predicate[T any] interface {
	CanLock(v *T) bool
}

// PredicateFunc adapts an ordinary function to a Predicate.
type PredicateFunc[T any] func(v *T) bool

// CanLock calls f.
func (f PredicateFunc[T]) CanLock(v *T) bool { return f(v) }

// always is the predicate behind unconditional Lock.
type always[T any] struct{}

func (always[T]) CanLock(*T) bool { return true }
