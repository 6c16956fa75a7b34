package driver

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"bitcoin-abm/src/interfaces"
	"bitcoin-abm/src/logger"
	"bitcoin-abm/src/models"
)

// -----------------------------------------------------------------------------
// Driver issues step(1) on a fixed cadence while running. It is the only
// source of repeated steps; everything else is user-initiated. Ticks that
// fire while the previous step is still resolving are dropped and counted,
// never queued, so slow transports cannot build a step backlog.
// -----------------------------------------------------------------------------

type Driver struct {
	Logger  *logger.Logger
	cfg     models.MDriverConfig
	stepper interfaces.IStepper

	mu       sync.Mutex
	cancel   context.CancelFunc
	running  atomic.Bool
	inFlight atomic.Bool
	skipped  atomic.Int64

	// OnTransition fires on actual Stopped/Running edges, outside the
	// driver lock. Redundant Start/Stop calls do not fire it.
	OnTransition func(running bool)
}

// -----------------------------------------------------------------------------

func NewDriver(cfg models.MDriverConfig, stepper interfaces.IStepper) *Driver {
	return &Driver{
		Logger:  logger.NewLogger("Driver"),
		cfg:     cfg,
		stepper: stepper,
	}
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Start begins the cadence. Calling it while already running is a no-op:
// there is never a second ticker.
func (d *Driver) Start() {
	d.mu.Lock()
	if d.running.Load() {
		d.mu.Unlock()
		d.Logger.Debug("Start ignored, cadence already running")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.running.Store(true)
	cb := d.OnTransition
	d.mu.Unlock()

	go d.runLoop(ctx)
	d.Logger.Info("Continuous run started, interval %v", d.cfg.Interval())
	if cb != nil {
		cb(true)
	}
}

// Stop cancels all future ticks. A step already in flight is left to finish;
// its result still applies. Stopping a stopped driver is a no-op.
func (d *Driver) Stop() {
	d.mu.Lock()
	if !d.running.Load() {
		d.mu.Unlock()
		return
	}

	d.cancel()
	d.cancel = nil
	d.running.Store(false)
	cb := d.OnTransition
	d.mu.Unlock()

	d.Logger.Info("Continuous run stopped")
	if cb != nil {
		cb(false)
	}
}

// Close releases the driver. Identical to Stop; the ticker must never
// outlive its owner.
func (d *Driver) Close() error {
	d.Stop()
	return nil
}

// -----------------------------------------------------------------------------
// Observation
// -----------------------------------------------------------------------------

func (d *Driver) IsRunning() bool {
	return d.running.Load()
}

// SkippedTicks reports how many cadence fires were dropped because the
// previous step had not resolved. Cumulative across restarts.
func (d *Driver) SkippedTicks() int64 {
	return d.skipped.Load()
}

// -----------------------------------------------------------------------------

func (d *Driver) runLoop(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			if !d.inFlight.CompareAndSwap(false, true) {
				d.skipped.Add(1)
				d.Logger.Debug("Tick dropped, previous step still in flight")
				continue
			}
			go d.fire()
		}
	}
}

// fire runs one step off the loop goroutine so the ticker channel keeps
// draining and every dropped fire is observed by the in-flight gate.
func (d *Driver) fire() {
	defer d.inFlight.Store(false)
	if err := d.stepper.Step(1); err != nil {
		d.Logger.Warning("Continuous step failed: %v", err)
	}
}
