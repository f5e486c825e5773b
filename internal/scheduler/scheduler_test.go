package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trading-bot-backend/internal/interfaces"
	"trading-bot-backend/internal/types"
)

type fakeSession struct {
	interfaces.Session
	closed *atomic.Int32
}

func (f fakeSession) Close() error {
	f.closed.Add(1)
	return nil
}

type fakeProvider struct {
	acquired atomic.Int32
	closed   atomic.Int32
	err      error
}

func (p *fakeProvider) Acquire(context.Context) (interfaces.Session, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.acquired.Add(1)
	return fakeSession{closed: &p.closed}, nil
}

type fakeEngine struct {
	mu          sync.Mutex
	calls       int
	inFlight    int
	maxInFlight int
	run         func(call int) error
	block       chan struct{}
}

func (e *fakeEngine) RunCycle(ctx context.Context, _ interfaces.TradeStore) (*types.CycleResult, error) {
	e.mu.Lock()
	e.calls++
	call := e.calls
	e.inFlight++
	e.maxInFlight = max(e.maxInFlight, e.inFlight)
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.inFlight--
		e.mu.Unlock()
	}()

	if e.block != nil {
		<-e.block
	}
	if e.run != nil {
		if err := e.run(call); err != nil {
			return nil, err
		}
	}
	return &types.CycleResult{Status: types.StatusPlaced}, nil
}

func (e *fakeEngine) Status(context.Context) types.BotStatus { return types.BotStatus{} }

func (e *fakeEngine) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func TestStartIsIdempotent(t *testing.T) {
	eng := &fakeEngine{}
	s := New(eng, &fakeProvider{}, time.Hour, time.Second)

	s.Start(context.Background())
	first := s.done
	s.Start(context.Background())
	assert.Equal(t, first, s.done, "second start must not spawn a worker")
	assert.True(t, s.Running())

	require.Eventually(t, func() bool { return eng.Calls() == 1 }, time.Second, 5*time.Millisecond)
	s.Stop()
	assert.False(t, s.Running())
	assert.Equal(t, 1, eng.Calls())
}

func TestCyclesRepeatAndReleaseSessions(t *testing.T) {
	eng := &fakeEngine{}
	prov := &fakeProvider{}
	s := New(eng, prov, 10*time.Millisecond, time.Second)

	s.Start(context.Background())
	require.Eventually(t, func() bool { return eng.Calls() >= 3 }, 2*time.Second, 5*time.Millisecond)
	s.Stop()

	assert.Equal(t, prov.acquired.Load(), prov.closed.Load())
}

func TestErrorsAndPanicsDoNotStopLoop(t *testing.T) {
	eng := &fakeEngine{run: func(call int) error {
		switch call {
		case 1:
			return errors.New("boom")
		case 2:
			panic("kaboom")
		}
		return nil
	}}
	prov := &fakeProvider{}
	s := New(eng, prov, 10*time.Millisecond, time.Second)

	s.Start(context.Background())
	require.Eventually(t, func() bool { return eng.Calls() >= 3 }, 2*time.Second, 5*time.Millisecond)
	s.Stop()

	assert.Equal(t, prov.acquired.Load(), prov.closed.Load(), "session released after panic")
}

func TestAcquireFailureIsRetried(t *testing.T) {
	eng := &fakeEngine{}
	prov := &fakeProvider{err: errors.New("database not initialized")}
	s := New(eng, prov, 10*time.Millisecond, time.Second)

	err := s.RunOnce(context.Background())
	assert.ErrorContains(t, err, "acquire session")

	s.Start(context.Background())
	time.Sleep(50 * time.Millisecond)
	assert.True(t, s.Running())
	s.Stop()
	assert.Zero(t, eng.Calls())
}

func TestStopInterruptsSleep(t *testing.T) {
	eng := &fakeEngine{}
	s := New(eng, &fakeProvider{}, time.Hour, 2*time.Second)

	s.Start(context.Background())
	require.Eventually(t, func() bool { return eng.Calls() == 1 }, time.Second, 5*time.Millisecond)

	start := time.Now()
	s.Stop()
	assert.Less(t, time.Since(start), time.Second)
}

func TestStopTimesOutOnStuckCycle(t *testing.T) {
	eng := &fakeEngine{block: make(chan struct{})}
	s := New(eng, &fakeProvider{}, time.Hour, 50*time.Millisecond)

	s.Start(context.Background())
	require.Eventually(t, func() bool { return eng.Calls() == 1 }, time.Second, 5*time.Millisecond)

	start := time.Now()
	s.Stop()
	assert.Less(t, time.Since(start), time.Second, "stop must not hang")
	close(eng.block)
}

func TestStartAfterTimedOutStopDoesNotOverlap(t *testing.T) {
	eng := &fakeEngine{block: make(chan struct{})}
	s := New(eng, &fakeProvider{}, time.Hour, 20*time.Millisecond)

	s.Start(context.Background())
	require.Eventually(t, func() bool { return eng.Calls() == 1 }, time.Second, 5*time.Millisecond)

	s.Stop()
	assert.True(t, s.Running(), "worker still finishing its cycle")

	s.Start(context.Background())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, eng.Calls(), "no second worker while the first is in a cycle")

	close(eng.block)
	require.Eventually(t, func() bool { return !s.Running() }, time.Second, 5*time.Millisecond)

	s.Start(context.Background())
	require.Eventually(t, func() bool { return eng.Calls() == 2 }, time.Second, 5*time.Millisecond)
	s.Stop()

	eng.mu.Lock()
	defer eng.mu.Unlock()
	assert.Equal(t, 1, eng.maxInFlight)
}

func TestRestartAfterStop(t *testing.T) {
	eng := &fakeEngine{}
	s := New(eng, &fakeProvider{}, time.Hour, time.Second)

	s.Start(context.Background())
	require.Eventually(t, func() bool { return eng.Calls() == 1 }, time.Second, 5*time.Millisecond)
	s.Stop()

	s.Start(context.Background())
	require.Eventually(t, func() bool { return eng.Calls() == 2 }, time.Second, 5*time.Millisecond)
	s.Stop()
}

func TestParentContextCancelStopsWorker(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New(&fakeEngine{}, &fakeProvider{}, time.Hour, time.Second)

	s.Start(ctx)
	cancel()
	require.Eventually(t, func() bool { return !s.Running() }, time.Second, 5*time.Millisecond)
	s.Stop()
}
