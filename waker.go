package cutex

// A Waker reschedules a suspended acquisition. Wake must be safe to call
// from any goroutine, must not block, and may fire more than once per
// suspension; a spurious wake only costs the acquirer a re-poll.
type Waker interface {
	Wake()
}

// WakerFunc adapts an ordinary function to a Waker.
type WakerFunc func()

// Wake calls f.
func (f WakerFunc) Wake() { f() }

// chanWaker backs the blocking acquisition paths: Wake leaves a token for
// a single waiting goroutine to consume. Extra wakes collapse into one
// token.
type chanWaker chan struct{}

func newChanWaker() chanWaker { return make(chan struct{}, 1) }

func (w chanWaker) Wake() {
	select {
	case w <- struct{}{}:
	default:
	}
}
