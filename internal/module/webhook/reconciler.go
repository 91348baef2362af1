package webhook

import (
	"context"
	"sync"
	"time"

	"github.com/packfit/server/internal/module/webhook/domain"
	"github.com/packfit/server/internal/shared/metrics"
	"go.uber.org/zap"
)

// Stats summarizes one reconciliation pass. Individual event failures are
// not errors here; they are visible on each event's persisted status.
type Stats struct {
	Attempted int
	Succeeded int
}

// Reconciler periodically re-drives the processor over events whose last
// outcome was incomplete. Overlapping passes are safe: correctness rests
// on per-row atomicity in the store and the idempotent business effect,
// not on the reconciler serializing access.
type Reconciler struct {
	repo      Repository
	processor *Processor
	batchSize int
	workers   int
	interval  time.Duration
	metrics   *metrics.Metrics
	logger    *zap.Logger

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewReconciler creates a reconciler.
func NewReconciler(
	repo Repository,
	processor *Processor,
	batchSize, workers int,
	interval time.Duration,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Reconciler {
	if batchSize <= 0 {
		batchSize = 50
	}
	if workers <= 0 {
		workers = 1
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Reconciler{
		repo:      repo,
		processor: processor,
		batchSize: batchSize,
		workers:   workers,
		interval:  interval,
		metrics:   m,
		logger:    logger,
		stop:      make(chan struct{}),
	}
}

// RunOnce processes one bounded batch of incomplete events with bounded
// parallelism. A failure on one event never aborts the batch.
func (r *Reconciler) RunOnce(ctx context.Context) (Stats, error) {
	start := time.Now()

	events, err := r.repo.ListIncomplete(ctx, r.batchSize)
	if err != nil {
		return Stats{}, err
	}

	if r.metrics != nil {
		r.metrics.ReconcilerBacklog.Set(float64(len(events)))
	}
	if len(events) == 0 {
		return Stats{}, nil
	}

	var (
		mu    sync.Mutex
		stats Stats
		wg    sync.WaitGroup
		sem   = make(chan struct{}, r.workers)
	)

	for _, event := range events {
		wg.Add(1)
		sem <- struct{}{}
		go func(ev *domain.WebhookEvent) {
			defer wg.Done()
			defer func() { <-sem }()

			// Process contains panics and records an outcome on every path.
			outcome := r.processor.Process(ctx, ev)

			mu.Lock()
			stats.Attempted++
			if outcome.Status == domain.StatusSucceeded {
				stats.Succeeded++
			}
			mu.Unlock()
		}(event)
	}
	wg.Wait()

	if r.metrics != nil {
		r.metrics.ReconcilerRuns.Inc()
		r.metrics.ReconcilerDuration.Observe(time.Since(start).Seconds())
	}

	r.logger.Info("reconciliation pass finished",
		zap.Int("attempted", stats.Attempted),
		zap.Int("succeeded", stats.Succeeded),
		zap.Duration("duration", time.Since(start)),
	)

	return stats, nil
}

// Start launches the periodic loop. It returns immediately; Stop waits for
// an in-flight pass to finish.
func (r *Reconciler) Start(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stop:
				return
			case <-ticker.C:
				if _, err := r.RunOnce(ctx); err != nil {
					r.logger.Error("reconciliation pass failed", zap.Error(err))
				}
			}
		}
	}()
}

// Stop terminates the periodic loop.
func (r *Reconciler) Stop() {
	close(r.stop)
	r.wg.Wait()
}
