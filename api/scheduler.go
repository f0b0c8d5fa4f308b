/*
scheduler.go - Automated win reconciliation scheduler

PURPOSE:
  Periodically repairs the derived wins feed. Win side effects of task,
  milestone and goal completion are fire-and-forget; a failed write leaves
  the feed out of step with what is complete. The scheduler runs
  planner.Service.ReconcileWins on an interval to converge it.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Sweeps once immediately on start
  - Every sweep is recorded as a reconciliation run for audit

CONFIGURATION:
  - CheckInterval: How often to sweep (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewReconciliationScheduler(svc, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: TriggerReconcile (manual sweep) and ReconciliationStatus
  - planner/reconcile.go: DiffWins and ReconcileWins
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/winning-app/winning/planner"
)

// ReconciliationScheduler runs win reconciliation on a ticker.
type ReconciliationScheduler struct {
	Service       *planner.Service
	Logger        *zap.Logger
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex

	// tickMu guards lastTick; mu is held across Stop's wait.
	tickMu   sync.Mutex
	lastTick time.Time
}

// NewReconciliationScheduler creates a new scheduler.
func NewReconciliationScheduler(svc *planner.Service, logger *zap.Logger) *ReconciliationScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconciliationScheduler{
		Service:       svc,
		Logger:        logger.Named("scheduler"),
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
	}
}

// Start begins the scheduler. Starting a running scheduler is a no-op.
func (rs *ReconciliationScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		rs.Logger.Info("disabled, not starting")
		return
	}
	if rs.ticker != nil {
		return
	}

	rs.tickMu.Lock()
	rs.lastTick = time.Time{}
	rs.tickMu.Unlock()

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.stop = make(chan struct{})
	rs.wg.Add(1)

	go rs.run(rs.ticker, rs.stop)

	rs.Logger.Info("started", zap.Duration("interval", rs.CheckInterval))
}

// Stop stops the scheduler and waits for an in-flight sweep.
func (rs *ReconciliationScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker == nil {
		return
	}
	rs.ticker.Stop()
	close(rs.stop)
	rs.wg.Wait()
	rs.ticker = nil
	rs.Logger.Info("stopped")
}

func (rs *ReconciliationScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer rs.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	// Run immediately on start
	rs.tick(ctx)

	for {
		select {
		case <-ticker.C:
			rs.tick(ctx)
		case <-stop:
			return
		}
	}
}

// tick is a scheduled sweep.
func (rs *ReconciliationScheduler) tick(ctx context.Context) {
	rs.tickMu.Lock()
	rs.lastTick = time.Now()
	rs.tickMu.Unlock()
	_, _ = rs.sweep(ctx)
}

func (rs *ReconciliationScheduler) sweep(ctx context.Context) (*planner.ReconciliationRun, error) {
	run, err := rs.Service.ReconcileWins(ctx)
	if err != nil {
		rs.Logger.Error("reconciliation failed", zap.Error(err))
		return run, err
	}
	rs.Logger.Debug("sweep finished", zap.String("run_id", run.ID))
	return run, nil
}

// RunNow triggers an immediate sweep outside the ticker. It works whether
// or not the scheduler is running.
func (rs *ReconciliationScheduler) RunNow(ctx context.Context) (*planner.ReconciliationRun, error) {
	return rs.sweep(ctx)
}

// Running reports whether the background goroutine is active.
func (rs *ReconciliationScheduler) Running() bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.ticker != nil
}

// LastTick returns when the most recent scheduled sweep started, zero if
// none has. Manual sweeps are not counted.
func (rs *ReconciliationScheduler) LastTick() time.Time {
	rs.tickMu.Lock()
	defer rs.tickMu.Unlock()
	return rs.lastTick
}

// NextRunTime returns when the next scheduled sweep is due, zero while
// the scheduler is stopped.
func (rs *ReconciliationScheduler) NextRunTime() time.Time {
	if !rs.Running() {
		return time.Time{}
	}
	last := rs.LastTick()
	if last.IsZero() {
		return time.Now()
	}
	return last.Add(rs.CheckInterval)
}
