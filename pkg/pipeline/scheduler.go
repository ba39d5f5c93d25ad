package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"cryptoverde-api/pkg/market"
)

const (
	DefaultInterval     = 300 * time.Second
	DefaultErrorBackoff = 60 * time.Second
	defaultStopTimeout  = 5 * time.Second
)

var (
	// ErrSchedulerRunning is returned by Start on a running scheduler.
	ErrSchedulerRunning = errors.New("pipeline: scheduler already running")
	// ErrStopTimeout is returned by Stop when the loop did not exit in time.
	ErrStopTimeout = errors.New("pipeline: scheduler stop timed out")
)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context, trigger Trigger) Result
}

// SchedulerConfig controls the loop cadence.
type SchedulerConfig struct {
	Interval     time.Duration
	ErrorBackoff time.Duration
	RunOnStart   bool
	StopTimeout  time.Duration
}

// Scheduler runs a Runner on a fixed interval in its own goroutine. Runs never
// overlap: the next sleep begins only after the previous run returns.
type Scheduler struct {
	runner Runner
	cfg    SchedulerConfig

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler applies defaults for zero config values.
func NewScheduler(runner Runner, cfg SchedulerConfig) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = DefaultErrorBackoff
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = defaultStopTimeout
	}
	return &Scheduler{runner: runner, cfg: cfg}
}

// Start launches the loop. It is detached from ctx's deadline but stops when
// ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return ErrSchedulerRunning
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(loopCtx, s.done)
	logx.Infof("pipeline: scheduler started interval=%s backoff=%s run_on_start=%t",
		s.cfg.Interval, s.cfg.ErrorBackoff, s.cfg.RunOnStart)
	return nil
}

// Running reports whether the loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
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

// Stop cancels the loop and waits for it to exit. An in-flight run is allowed
// to finish within the stop timeout.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if done == nil {
		return nil
	}
	cancel()
	timer := time.NewTimer(s.cfg.StopTimeout)
	defer timer.Stop()
	select {
	case <-done:
		logx.Info("pipeline: scheduler stopped")
		return nil
	case <-timer.C:
		logx.Errorf("pipeline: scheduler stop timeout=%s", s.cfg.StopTimeout)
		return ErrStopTimeout
	}
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	if !s.cfg.RunOnStart && !sleepWithContext(ctx, s.cfg.Interval) {
		return
	}
	for {
		wait := s.cfg.Interval
		if err := s.runOnce(ctx); err != nil {
			logx.Errorf("pipeline: unexpected run error, backing off backoff=%s err=%v", s.cfg.ErrorBackoff, err)
			wait = s.cfg.ErrorBackoff
		}
		if !sleepWithContext(ctx, wait) {
			return
		}
	}
}

// runOnce returns an error only for panics and unclassified failures.
func (s *Scheduler) runOnce(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	if ctx.Err() != nil {
		return nil
	}
	// A run that has started finishes on its own timeouts; Stop only ends the loop.
	res := s.runner.Run(context.WithoutCancel(ctx), TriggerScheduled)
	if res.Err != nil && !market.Classified(res.Err) && !errors.Is(res.Err, context.Canceled) {
		return res.Err
	}
	return nil
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
