// Package worker drains one enrichment batch from the queue.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/amishk599/jobdeck/internal/model"
	"github.com/amishk599/jobdeck/internal/storage"
)

// Queue is the part of the enrichment queue a batch needs.
type Queue interface {
	ResetFailed(ctx context.Context) ([]string, error)
	Claim(ctx context.Context, n int) ([]model.JobRecord, error)
	MarkEnriched(ctx context.Context, id string, card model.EnrichedJobCard) (model.JobRecord, error)
	MarkFailed(ctx context.Context, id string, cause error, fallback *model.EnrichedJobCard) (model.JobRecord, error)
	Remaining(ctx context.Context) (int, error)
}

// Enricher builds cards. Fallback must not fail or touch the network.
type Enricher interface {
	Enrich(ctx context.Context, job model.NormalizedJob) (model.EnrichedJobCard, error)
	Fallback(job model.NormalizedJob) model.EnrichedJobCard
}

// Options tunes a batch.
type Options struct {
	BatchSize   int
	Concurrency int
	JobTimeout  time.Duration
	AutoRequeue bool // move failed records back to pending before claiming
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = 10
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 3
	}
	if o.JobTimeout <= 0 {
		o.JobTimeout = 90 * time.Second
	}
	return o
}

// Worker claims batches and enriches them with a bounded pool.
type Worker struct {
	queue       Queue
	newEnricher func() Enricher
	cards       storage.CardStore
	opts        Options
	logger      *slog.Logger
}

// New creates a Worker. newEnricher is called once per batch so resolver
// caches never outlive a run. cards may be nil.
func New(queue Queue, newEnricher func() Enricher, cards storage.CardStore, opts Options, logger *slog.Logger) *Worker {
	if cards == nil {
		cards = storage.Nop{}
	}
	return &Worker{
		queue:       queue,
		newEnricher: newEnricher,
		cards:       cards,
		opts:        opts.withDefaults(),
		logger:      logger,
	}
}

type outcome struct {
	enriched bool
	err      error
}

// RunBatch claims up to BatchSize pending records and enriches them. A
// failure in one job never affects the others. It returns an error only
// when the queue itself fails. Background tasks started during the batch
// are awaited before it returns.
func (w *Worker) RunBatch(ctx context.Context) (model.BatchResult, error) {
	if w.opts.AutoRequeue {
		ids, err := w.queue.ResetFailed(ctx)
		if err != nil {
			return model.BatchResult{}, err
		}
		if len(ids) > 0 {
			w.logger.Info("requeued failed records", "count", len(ids))
		}
	}

	recs, err := w.queue.Claim(ctx, w.opts.BatchSize)
	if err != nil {
		return model.BatchResult{}, err
	}

	var res model.BatchResult
	if len(recs) > 0 {
		res = w.process(ctx, recs)
	}

	remaining, err := w.queue.Remaining(ctx)
	if err != nil {
		return res, err
	}
	res.Remaining = remaining

	w.logger.Info("batch complete",
		"processed", res.Processed,
		"enriched", res.Enriched,
		"failed", res.Failed,
		"remaining", res.Remaining,
	)
	return res, nil
}

func (w *Worker) process(ctx context.Context, recs []model.JobRecord) model.BatchResult {
	enricher := w.newEnricher()

	var bg sync.WaitGroup
	defer bg.Wait()

	jobs := make(chan model.JobRecord)
	results := make(chan outcome, len(recs))

	var wg sync.WaitGroup
	workers := min(w.opts.Concurrency, len(recs))
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range jobs {
				results <- w.handle(ctx, enricher, &bg, rec)
			}
		}()
	}

	for _, rec := range recs {
		jobs <- rec
	}
	close(jobs)
	wg.Wait()
	close(results)

	res := model.BatchResult{Processed: len(recs)}
	for o := range results {
		switch {
		case o.err != nil:
			w.logger.Error("queue transition failed", "error", o.err)
		case o.enriched:
			res.Enriched++
		default:
			res.Failed++
		}
	}
	return res
}

// handle enriches one record and records the outcome in the queue.
func (w *Worker) handle(ctx context.Context, enricher Enricher, bg *sync.WaitGroup, rec model.JobRecord) outcome {
	card, err := w.enrichOne(ctx, enricher, rec.Job)
	if err == nil {
		if _, err := w.queue.MarkEnriched(ctx, rec.ID, card); err != nil {
			return outcome{err: fmt.Errorf("mark %s enriched: %w", rec.ID, err)}
		}
		w.background(bg, "export card", rec.ID, func(ctx context.Context) error {
			return w.cards.Put(ctx, rec.ID, card)
		})
		return outcome{enriched: true}
	}

	w.logger.Warn("enrichment failed",
		"id", rec.ID,
		"company", rec.Job.Company,
		"role", rec.Job.Role,
		"error", err,
	)
	fallback := enricher.Fallback(rec.Job)
	updated, markErr := w.queue.MarkFailed(ctx, rec.ID, err, &fallback)
	if markErr != nil {
		return outcome{err: fmt.Errorf("mark %s failed: %w", rec.ID, markErr)}
	}
	if updated.Status == model.StatusFailedPermanent {
		w.background(bg, "delete orphaned card", rec.ID, func(ctx context.Context) error {
			return w.cards.Delete(ctx, rec.ID)
		})
	}
	return outcome{}
}

// enrichOne runs the enricher under the job timeout and converts a panic
// into an error.
func (w *Worker) enrichOne(ctx context.Context, enricher Enricher, job model.NormalizedJob) (card model.EnrichedJobCard, err error) {
	ctx, cancel := context.WithTimeout(ctx, w.opts.JobTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return enricher.Enrich(ctx, job)
}

// background runs a best-effort task. Its error is logged and never
// affects the state transition it follows.
func (w *Worker) background(bg *sync.WaitGroup, what, id string, fn func(context.Context) error) {
	bg.Add(1)
	go func() {
		defer bg.Done()
		defer func() {
			if r := recover(); r != nil {
				w.logger.Error("background task panicked", "task", what, "id", id, "panic", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := fn(ctx); err != nil {
			w.logger.Warn("background task failed", "task", what, "id", id, "error", err)
		}
	}()
}
