// Package scheduler drives the ingest → enrich → report cycle on an interval.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/amishk599/jobdeck/internal/model"
)

// Ingester runs one ingestion.
type Ingester interface {
	Run(ctx context.Context) (model.IngestResult, error)
}

// Batcher runs one enrichment batch.
type Batcher interface {
	RunBatch(ctx context.Context) (model.BatchResult, error)
}

// StuckLister lists records that have been processing for too long.
type StuckLister interface {
	Stuck(ctx context.Context, olderThan time.Duration) ([]model.JobRecord, error)
}

// Options tune a Scheduler.
type Options struct {
	Interval   time.Duration
	MaxBatches int           // enrichment batches drained per cycle
	StuckAfter time.Duration // processing age reported as stuck
}

// Scheduler owns the main loop: one cycle immediately, then one per interval.
type Scheduler struct {
	ingest   Ingester
	worker   Batcher
	stuck    StuckLister
	notifier model.Notifier
	opts     Options
	logger   *slog.Logger
}

// NewScheduler creates a scheduler. stuck and notifier may be nil.
func NewScheduler(ingest Ingester, worker Batcher, stuck StuckLister, notifier model.Notifier, opts Options, logger *slog.Logger) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = time.Hour
	}
	if opts.MaxBatches <= 0 {
		opts.MaxBatches = 5
	}
	if opts.StuckAfter <= 0 {
		opts.StuckAfter = 15 * time.Minute
	}
	return &Scheduler{
		ingest:   ingest,
		worker:   worker,
		stuck:    stuck,
		notifier: notifier,
		opts:     opts,
		logger:   logger,
	}
}

// Run starts the loop. It runs one immediate cycle, then waits the
// configured interval between cycles. It returns nil when ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler",
		"interval", s.opts.Interval.String(),
		"max_batches", s.opts.MaxBatches,
	)

	s.cycle(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down scheduler")
			return nil
		case <-time.After(s.opts.Interval):
			s.cycle(ctx)
		}
	}
}

// RunOnce performs a single cycle and returns its report without notifying.
func (s *Scheduler) RunOnce(ctx context.Context) model.RunReport {
	report := model.RunReport{StartedAt: time.Now()}

	res, err := s.ingest.Run(ctx)
	if err != nil {
		s.logger.Error("ingest failed", "error", err)
		res.Errors = append(res.Errors, "ingest: "+err.Error())
	}
	report.Ingest = res

	report.Batches = s.drain(ctx)

	if s.stuck != nil && ctx.Err() == nil {
		recs, err := s.stuck.Stuck(ctx, s.opts.StuckAfter)
		if err != nil {
			s.logger.Error("stuck check failed", "error", err)
		} else {
			report.Stuck = len(recs)
		}
	}

	report.Duration = time.Since(report.StartedAt)
	return report
}

// drain runs batches until the queue is empty, a batch does nothing, or
// MaxBatches is reached.
func (s *Scheduler) drain(ctx context.Context) []model.BatchResult {
	var batches []model.BatchResult
	for i := 0; i < s.opts.MaxBatches; i++ {
		if ctx.Err() != nil {
			break
		}
		b, err := s.worker.RunBatch(ctx)
		if err != nil {
			s.logger.Error("enrichment batch failed", "batch", i+1, "error", err)
			break
		}
		if b.Processed == 0 {
			break
		}
		batches = append(batches, b)
		if b.Remaining == 0 {
			break
		}
	}
	return batches
}

func (s *Scheduler) cycle(ctx context.Context) {
	report := s.RunOnce(ctx)
	if ctx.Err() != nil {
		return
	}
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(report); err != nil {
		s.logger.Error("notify failed", "error", err)
	}
}
