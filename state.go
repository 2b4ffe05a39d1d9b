package cutex

import "sync/atomic"

// waitKey identifies a pending acquisition within the waiter queue. Key
// zero is the sentinel meaning "no directed grant"; real keys start at 1
// and are never reused.
type waitKey uint64

const noKey waitKey = 0

const (
	stateLocked  uint64 = 1 << 0
	stateWaiters uint64 = 1 << 1

	// The remaining bits carry the wait key of a directed grant, or zero.
	grantShift = 2
)

// stateWord packs the whole lock state into one word so the uncontended
// lock and unlock paths are a single compare-and-swap:
//
//	locked (bit 0) | waiter hint (bit 1) | granted-to key (bits 2..63)
//
// A non-zero grant field implies the locked bit is set. The word is only
// ever mutated through atomic read-modify-write operations.
type stateWord struct {
	v atomic.Uint64
}

func grantOf(v uint64) waitKey { return waitKey(v >> grantShift) }

// tryLock attempts to take the lock. An unlocked word is always taken. A
// locked word is taken only when a grant directed at key is outstanding;
// the grant is consumed and the lock stays held by the claimant.
func (s *stateWord) tryLock(key waitKey) bool {
	for {
		old := s.v.Load()
		switch {
		case old&stateLocked == 0:
			if s.v.CompareAndSwap(old, old|stateLocked) {
				return true
			}
		case key != noKey && grantOf(old) == key:
			if s.v.CompareAndSwap(old, old&(stateLocked|stateWaiters)) {
				return true
			}
		default:
			return false
		}
	}
}

// unlockIfNoWaiters releases the lock only from the fully uncontended
// state: locked, waiter hint clear, no grant outstanding.
func (s *stateWord) unlockIfNoWaiters() bool {
	return s.v.CompareAndSwap(stateLocked, 0)
}

// unlock clears the locked bit regardless of the waiter hint. Only valid
// after the waiter scan has decided that no grant will be issued.
func (s *stateWord) unlock() {
	s.v.And(^stateLocked)
}

// grantWaiterLock directs the held lock at the given waiter. Grant writers
// are serialized by the waiter queue lock; the CAS loop tolerates
// concurrent hint-bit traffic.
func (s *stateWord) grantWaiterLock(key waitKey) {
	for {
		old := s.v.Load()
		next := stateLocked | stateWaiters | uint64(key)<<grantShift
		if s.v.CompareAndSwap(old, next) {
			return
		}
	}
}

// removeWaitKey withdraws a grant directed at key, if one is outstanding.
// It reports whether a grant was withdrawn, in which case the caller now
// owns the lock and is responsible for releasing it again.
func (s *stateWord) removeWaitKey(key waitKey) bool {
	if key == noKey {
		return false
	}
	for {
		old := s.v.Load()
		if grantOf(old) != key {
			return false
		}
		if s.v.CompareAndSwap(old, old&(stateLocked|stateWaiters)) {
			return true
		}
	}
}

// markWaiters sets the waiter hint bit.
func (s *stateWord) markWaiters() { s.v.Or(stateWaiters) }

// clearWaiters clears the waiter hint bit.
func (s *stateWord) clearWaiters() { s.v.And(^stateWaiters) }
