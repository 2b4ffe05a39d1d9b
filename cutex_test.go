package cutex

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestLockUncontended(t *testing.T) {
	r := require.New(t)

	c := New(41)

	// An unheld Cutex is granted on the first poll, no suspension.
	g, ok := c.Lock().Poll(nil)
	r.True(ok)
	*g.Value() = 42
	g.Unlock()

	g2, err := c.LockContext(context.Background())
	r.NoError(err)
	r.Equal(42, *g2.Value())
	g2.Unlock()
}

func TestTryLock(t *testing.T) {
	r := require.New(t)

	c := New(0)
	g, ok := c.TryLock()
	r.True(ok)

	_, ok = c.TryLock()
	r.False(ok)

	g.Unlock()
	g, ok = c.TryLock()
	r.True(ok)
	g.Unlock()
}

func TestGuardMisuse(t *testing.T) {
	r := require.New(t)

	c := New(0)
	g, ok := c.TryLock()
	r.True(ok)
	g.Unlock()

	r.Panics(func() { g.Unlock() })
	r.Panics(func() { g.Value() })
}

func TestFIFOFairness(t *testing.T) {
	r := require.New(t)

	c := New(0)
	holder, ok := c.TryLock()
	r.True(ok)

	a := c.Lock()
	b := c.Lock()
	wa, wb := newChanWaker(), newChanWaker()
	_, ok = a.Poll(wa)
	r.False(ok)
	_, ok = b.Poll(wb)
	r.False(ok)

	holder.Unlock()

	// The release hands the lock to a, the earlier arrival, and only a.
	r.Len(wa, 1)
	r.Len(wb, 0)
	<-wa
	ga, ok := a.Poll(wa)
	r.True(ok)

	ga.Unlock()
	r.Len(wb, 1)
	<-wb
	gb, ok := b.Poll(wb)
	r.True(ok)
	gb.Unlock()
}

func TestPredicateGating(t *testing.T) {
	r := require.New(t)

	c := New(1)
	ga, err := c.LockContext(context.Background())
	r.NoError(err)

	b := c.LockWhen(PredicateFunc[int](func(v *int) bool { return *v == 1 }))
	d := c.LockWhen(PredicateFunc[int](func(v *int) bool { return *v == 2 }))
	wb, wd := newChanWaker(), newChanWaker()
	_, ok := b.Poll(wb)
	r.False(ok)
	_, ok = d.Poll(wd)
	r.False(ok)

	*ga.Value() = 2
	ga.Unlock()

	// d's predicate holds at release time, so d is granted despite
	// arriving after b; b keeps its place in line.
	r.Len(wb, 0)
	r.Len(wd, 1)
	<-wd
	gd, ok := d.Poll(wd)
	r.True(ok)
	r.Equal(2, *gd.Value())

	*gd.Value() = 1
	gd.Unlock()

	r.Len(wb, 1)
	<-wb
	gb, ok := b.Poll(wb)
	r.True(ok)
	r.Equal(1, *gb.Value())
	gb.Unlock()
}

func TestLockWhenUnheldPredicateFalse(t *testing.T) {
	r := require.New(t)

	c := New(0)
	a := c.LockWhen(PredicateFunc[int](func(v *int) bool { return *v == 1 }))
	w := newChanWaker()
	_, ok := a.Poll(w)
	r.False(ok)

	// The failed attempt must not leave the Cutex locked.
	g, ok := c.TryLock()
	r.True(ok)
	*g.Value() = 1
	g.Unlock()

	r.Len(w, 1)
	<-w
	ga, ok := a.Poll(w)
	r.True(ok)
	ga.Unlock()
}

func TestPollRefreshesWaker(t *testing.T) {
	r := require.New(t)

	c := New(0)
	holder, ok := c.TryLock()
	r.True(ok)

	a := c.Lock()
	w1, w2 := newChanWaker(), newChanWaker()
	_, ok = a.Poll(w1)
	r.False(ok)
	_, ok = a.Poll(w2) // re-poll replaces the stored waker
	r.False(ok)

	holder.Unlock()
	r.Len(w1, 0)
	r.Len(w2, 1)
	<-w2
	g, ok := a.Poll(w2)
	r.True(ok)
	g.Unlock()
}

func TestCancelBeforePoll(t *testing.T) {
	r := require.New(t)

	c := New(0)
	a := c.Lock()
	a.Cancel()
	r.Panics(func() { a.Poll(nil) })

	// The Cutex is untouched.
	g, ok := c.TryLock()
	r.True(ok)
	g.Unlock()
}

func TestCancelQueued(t *testing.T) {
	r := require.New(t)

	c := New(0)
	holder, ok := c.TryLock()
	r.True(ok)

	a := c.Lock()
	w := newChanWaker()
	_, ok = a.Poll(w)
	r.False(ok)

	a.Cancel()
	a.Cancel() // idempotent

	// The cancelled waiter is gone: the release takes the fast path and
	// the lock is simply free again.
	holder.Unlock()
	r.Len(w, 0)
	g, ok := c.TryLock()
	r.True(ok)
	g.Unlock()
}

func TestCancelUnclaimedGrant(t *testing.T) {
	r := require.New(t)

	c := New(0)
	holder, ok := c.TryLock()
	r.True(ok)

	a := c.Lock()
	b := c.Lock()
	wa, wb := newChanWaker(), newChanWaker()
	_, ok = a.Poll(wa)
	r.False(ok)
	_, ok = b.Poll(wb)
	r.False(ok)

	holder.Unlock() // grants to a
	r.Len(wa, 1)
	r.Len(wb, 0)

	// a is abandoned before claiming; the grant must be rerouted to b.
	a.Cancel()
	r.Len(wb, 1)
	<-wb
	gb, ok := b.Poll(wb)
	r.True(ok)
	gb.Unlock()

	// And a later acquirer is not deadlocked.
	g, err := c.LockContext(context.Background())
	r.NoError(err)
	g.Unlock()
}

func TestCancelUnclaimedGrantLastWaiter(t *testing.T) {
	r := require.New(t)

	c := New(0)
	holder, ok := c.TryLock()
	r.True(ok)

	a := c.Lock()
	w := newChanWaker()
	_, ok = a.Poll(w)
	r.False(ok)

	holder.Unlock() // grants to a
	a.Cancel()      // nobody else to grant: the lock must end up free

	g, ok := c.TryLock()
	r.True(ok)
	g.Unlock()
}

func TestLockContextCancelled(t *testing.T) {
	r := require.New(t)

	c := New(0)
	g, ok := c.TryLock()
	r.True(ok)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := c.LockContext(ctx)
	r.ErrorIs(err, context.DeadlineExceeded)

	g.Unlock()
	g2, err := c.LockContext(context.Background())
	r.NoError(err)
	g2.Unlock()
}

func TestContendedHandoff(t *testing.T) {
	r := require.New(t)

	c := New(1)
	g, ok := c.TryLock()
	r.True(ok)

	got := make(chan int, 1)
	go func() {
		g2, err := c.LockContext(context.Background())
		if err != nil {
			got <- -1
			return
		}
		got <- *g2.Value()
		g2.Unlock()
	}()

	time.Sleep(10 * time.Millisecond) // let the second acquirer queue up
	*g.Value() = 2
	g.Unlock()

	// The waiter observes the holder's write.
	r.Equal(2, <-got)
}

func TestLockWhenContext(t *testing.T) {
	r := require.New(t)

	c := New(0)
	got := make(chan int, 1)
	go func() {
		pred := PredicateFunc[int](func(v *int) bool { return *v >= 3 })
		g, err := c.LockWhenContext(context.Background(), pred)
		if err != nil {
			got <- -1
			return
		}
		got <- *g.Value()
		g.Unlock()
	}()

	for i := 1; i <= 3; i++ {
		g, err := c.LockContext(context.Background())
		r.NoError(err)
		*g.Value() = i
		g.Unlock()
	}
	r.Equal(3, <-got)
}

func TestMutualExclusion(t *testing.T) {
	r := require.New(t)

	c := New(0)
	var inCritical atomic.Int32
	var eg errgroup.Group
	for range 8 {
		eg.Go(func() error {
			for range 100 {
				g, err := c.LockContext(context.Background())
				if err != nil {
					return err
				}
				if n := inCritical.Add(1); n != 1 {
					return fmt.Errorf("%d holders in critical section", n)
				}
				*g.Value()++
				inCritical.Add(-1)
				g.Unlock()
			}
			return nil
		})
	}
	r.NoError(eg.Wait())

	g, ok := c.TryLock()
	r.True(ok)
	r.Equal(800, *g.Value())
	g.Unlock()
}

func TestZeroValue(t *testing.T) {
	r := require.New(t)

	var c Cutex[int]
	g, err := c.LockContext(context.Background())
	r.NoError(err)
	r.Equal(0, *g.Value())
	g.Unlock()
}
