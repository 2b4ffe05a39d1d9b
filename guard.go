package cutex

// A Guard is proof of exclusive access to a Cutex's value: at most one
// Guard per Cutex is live at any instant. Guards are released explicitly
// with Unlock, normally deferred at the acquisition site.
type Guard[T any] struct {
	c *Cutex[T]
}

// Value returns the guarded value. The pointer must not be retained past
// Unlock.
func (g *Guard[T]) Value() *T {
	if g.c == nil {
		panic("cutex: use of released guard")
	}
	return &g.c.value
}

// Unlock releases the Cutex, handing the lock directly to the first
// eligible waiter if there is one. Unlocking twice is a programming
// error.
func (g *Guard[T]) Unlock() {
	if g.c == nil {
		panic("cutex: unlock of released guard")
	}
	c := g.c
	g.c = nil
	c.release()
}
