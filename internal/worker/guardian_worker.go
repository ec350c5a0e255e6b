package worker

import (
	"context"
	"sync"
	"time"

	"homecare-ledger/internal/service"

	"github.com/rs/zerolog"
)

// GuardianWorker runs the dispute sweep on a fixed period. The enabled flag
// is read on every tick, so disabling it turns later ticks into no-ops without
// rolling back work from earlier ones.
type GuardianWorker struct {
	svc      *service.GuardianService
	interval time.Duration
	enabled  func() bool
	log      zerolog.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewGuardianWorker constructs a worker. enabled is the externally supplied
// feature toggle; a nil toggle means always on.
func NewGuardianWorker(svc *service.GuardianService, interval time.Duration, enabled func() bool, log zerolog.Logger) *GuardianWorker {
	if enabled == nil {
		enabled = func() bool { return true }
	}
	return &GuardianWorker{
		svc:      svc,
		interval: interval,
		enabled:  enabled,
		log:      log,
		stopCh:   make(chan struct{}),
	}
}

// Start blocks and runs the sweep at the configured interval. One tick fully
// completes before the timer can fire again.
func (w *GuardianWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("guardian worker starting")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("guardian worker context canceled")
			return
		case <-w.stopCh:
			w.log.Info().Msg("guardian worker stop signal received")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

// Stop halts the worker loop deterministically.
func (w *GuardianWorker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
}

// Run starts the worker in a goroutine and returns a stop function.
func (w *GuardianWorker) Run(ctx context.Context) func() {
	go w.Start(ctx)
	return w.Stop
}

func (w *GuardianWorker) tick(ctx context.Context) {
	if !w.enabled() {
		return
	}
	if err := w.svc.Sweep(ctx); err != nil {
		w.log.Error().Err(err).Msg("guardian sweep failed")
	}
}
