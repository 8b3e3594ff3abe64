package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testService struct {
	BaseService
	started bool
	stopped bool
}

func (ts *testService) OnStart() error {
	ts.started = true
	return nil
}

func (ts *testService) OnStop() {
	ts.stopped = true
}

func (ts *testService) OnReset() error {
	ts.started = false
	ts.stopped = false
	return nil
}

func newTestService() *testService {
	ts := &testService{}
	ts.BaseService = *NewBaseService(nil, "TestService", ts)
	return ts
}

func TestBaseServiceStartStop(t *testing.T) {
	ts := newTestService()

	require.NoError(t, ts.Start())
	require.True(t, ts.started)
	require.True(t, ts.IsRunning())

	err := ts.Start()
	require.ErrorIs(t, err, ErrAlreadyStarted)

	require.NoError(t, ts.Stop())
	require.True(t, ts.stopped)
	require.False(t, ts.IsRunning())

	err = ts.Stop()
	require.ErrorIs(t, err, ErrAlreadyStopped)
}

func TestBaseServiceStopWithoutStart(t *testing.T) {
	ts := newTestService()
	require.ErrorIs(t, ts.Stop(), ErrNotStarted)

	// The failed Stop must not poison a later lifecycle.
	require.NoError(t, ts.Start())
	require.NoError(t, ts.Stop())
}

func TestBaseServiceWait(t *testing.T) {
	ts := newTestService()
	require.NoError(t, ts.Start())

	waitFinished := make(chan struct{})
	go func() {
		ts.Wait()
		close(waitFinished)
	}()

	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = ts.Stop()
	}()

	select {
	case <-waitFinished:
		// all good
	case <-time.After(100 * time.Millisecond):
		t.Fatal("expected Wait() to finish within 100 ms")
	}
}

func TestBaseServiceReset(t *testing.T) {
	ts := newTestService()
	require.NoError(t, ts.Start())

	err := ts.Reset()
	require.Error(t, err, "expected cant reset service error")

	require.NoError(t, ts.Stop())

	require.NoError(t, ts.Reset())
	require.NoError(t, ts.Start())
	require.True(t, ts.IsRunning())
	require.NoError(t, ts.Stop())
}

func TestBaseServiceQuitClosedOnStop(t *testing.T) {
	ts := newTestService()
	require.NoError(t, ts.Start())

	select {
	case <-ts.Quit():
		t.Fatal("quit channel closed before Stop")
	default:
	}

	require.NoError(t, ts.Stop())

	select {
	case <-ts.Quit():
	default:
		t.Fatal("quit channel not closed after Stop")
	}
}
