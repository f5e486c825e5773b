package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"trading-bot-backend/internal/interfaces"
	"trading-bot-backend/internal/logger"
	"trading-bot-backend/internal/trace"
)

// Scheduler runs the engine's trading cycle on a fixed interval in a single
// background goroutine. Cycles never overlap within one run.
type Scheduler struct {
	engine      interfaces.Engine
	sessions    interfaces.SessionProvider
	interval    time.Duration
	stopTimeout time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(eng interfaces.Engine, sessions interfaces.SessionProvider, interval, stopTimeout time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if stopTimeout <= 0 {
		stopTimeout = 5 * time.Second
	}
	return &Scheduler{
		engine:      eng,
		sessions:    sessions,
		interval:    interval,
		stopTimeout: stopTimeout,
	}
}

// Start launches the worker. Calling Start while running is a no-op, and so
// is calling it while a stopped worker is still finishing its cycle.
// The worker also exits when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runningLocked() {
		if s.cancel == nil {
			logger.Warn(ctx, "Previous scheduler worker still finishing its cycle; start ignored")
			return
		}
		logger.Debug(ctx, "Scheduler already running")
		return
	}

	if s.cancel != nil {
		s.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go s.loop(runCtx, done)
	logger.Info(ctx, "Scheduler started", "interval", s.interval.String())
}

// Stop signals the worker and waits up to the stop timeout for it to exit.
// It always returns; a timed-out join is logged and the worker stays
// registered until it exits, so Start cannot overlap it.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()

	ctx := context.Background()
	select {
	case <-done:
		logger.Info(ctx, "Scheduler stopped")
	case <-time.After(s.stopTimeout):
		logger.Warn(ctx, "Scheduler stop timed out waiting for worker", "timeout", s.stopTimeout.String())
	}
}

// Running reports whether the worker goroutine is alive.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runningLocked()
}

func (s *Scheduler) runningLocked() bool {
	if s.done == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		// An in-flight cycle is not preempted by Stop.
		if err := s.RunOnce(context.WithoutCancel(ctx)); err != nil {
			logger.ErrorWithErr(ctx, "Error in trading cycle", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.interval):
		}
	}
}

// RunOnce runs a single cycle on a freshly acquired session, releasing it on
// every path. Panics are converted to errors.
func (s *Scheduler) RunOnce(ctx context.Context) (err error) {
	ctx, span := trace.StartSpan(ctx, "scheduler.RunOnce")
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("trading cycle panic: %v", r)
		}
	}()

	sess, err := s.sessions.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire session: %w", err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			logger.Warn(ctx, "Failed to release session", "error", cerr)
		}
	}()

	_, err = s.engine.RunCycle(ctx, sess)
	return err
}
