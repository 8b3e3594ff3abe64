package chainsync

import (
	"time"

	embersync "github.com/emberchain/ember/libs/sync"
)

// Gate is a reusable counting latch bounding how long a retrieval loop sleeps
// before re-evaluating work. A loop arms a fresh gate each iteration; response
// goroutines release one count per response. Releasing a gate that is already
// open, or a gate from a prior iteration, is a harmless no-op.
type Gate struct {
	mtx       embersync.Mutex
	required  int
	remaining int
	opened    chan struct{}
}

// NewGate returns a gate requiring n releases before Wait returns early.
// A gate with n <= 0 starts open.
func NewGate(n int) *Gate {
	if n < 0 {
		n = 0
	}
	g := &Gate{
		required:  n,
		remaining: n,
		opened:    make(chan struct{}),
	}
	if n == 0 {
		close(g.opened)
	}
	return g
}

// Release counts down the gate by one. It saturates at zero: extra releases
// have no effect.
func (g *Gate) Release() {
	g.mtx.Lock()
	defer g.mtx.Unlock()

	if g.remaining == 0 {
		return
	}
	g.remaining--
	if g.remaining == 0 {
		close(g.opened)
	}
}

// Required returns the number of releases the gate was armed with.
func (g *Gate) Required() int { return g.required }

// Remaining returns the number of releases still outstanding.
func (g *Gate) Remaining() int {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	return g.remaining
}

// Wait blocks until the gate is fully released or the timeout elapses,
// whichever comes first. It returns false only if quit closed while waiting.
func (g *Gate) Wait(timeout time.Duration, quit <-chan struct{}) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-g.opened:
		return true
	case <-timer.C:
		return true
	case <-quit:
		return false
	}
}
