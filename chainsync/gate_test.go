package chainsync

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateOpensAfterRequiredReleases(t *testing.T) {
	g := NewGate(3)
	require.Equal(t, 3, g.Required())
	require.Equal(t, 3, g.Remaining())

	g.Release()
	g.Release()
	assert.Equal(t, 1, g.Remaining())

	done := make(chan struct{})
	go func() {
		g.Wait(5*time.Second, nil)
		close(done)
	}()

	g.Release()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("gate did not open after required releases")
	}
}

func TestGateZeroStartsOpen(t *testing.T) {
	g := NewGate(0)
	start := time.Now()
	assert.True(t, g.Wait(5*time.Second, nil))
	assert.Less(t, time.Since(start), time.Second)

	// Negative counts behave like zero.
	g = NewGate(-1)
	assert.Equal(t, 0, g.Remaining())
}

func TestGateReleaseSaturates(t *testing.T) {
	g := NewGate(1)
	g.Release()
	require.Equal(t, 0, g.Remaining())

	// Extra releases, e.g. from a slow callback targeting a gate of a prior
	// iteration, must be harmless no-ops.
	g.Release()
	g.Release()
	assert.Equal(t, 0, g.Remaining())
}

func TestGateWaitTimesOut(t *testing.T) {
	g := NewGate(5)
	start := time.Now()
	assert.True(t, g.Wait(20*time.Millisecond, nil))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.Equal(t, 5, g.Remaining())
}

func TestGateWaitQuit(t *testing.T) {
	g := NewGate(1)
	quit := make(chan struct{})
	close(quit)
	assert.False(t, g.Wait(5*time.Second, quit))
}

func TestGateConcurrentReleases(t *testing.T) {
	g := NewGate(50)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.Release()
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, g.Remaining())
	assert.True(t, g.Wait(time.Second, nil))
}
