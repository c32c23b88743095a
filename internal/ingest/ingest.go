// Package ingest turns adapter output into stored, queued job records.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/amishk599/jobdeck/internal/adapter"
	"github.com/amishk599/jobdeck/internal/model"
)

// Source produces one merged batch of postings.
type Source interface {
	Run(ctx context.Context) adapter.RunResult
}

// Store is the persistence the ingester needs.
type Store interface {
	ExistingKeys(ctx context.Context, keys []string, since time.Time) (map[string]bool, error)
	InsertJobs(ctx context.Context, records []model.JobRecord) error
}

// Options tune an Ingester.
type Options struct {
	Window    time.Duration // how far back existing keys count as duplicates
	BatchSize int           // records per insert transaction
	Hold      bool          // store new records as "none" instead of queueing them
}

// Ingester owns the ingest pipeline: fetch → normalize → filter → dedup → persist.
type Ingester struct {
	source Source
	filter model.JobFilter
	store  Store
	opts   Options
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

// New creates an Ingester. filter may be nil to accept every job.
func New(source Source, filter model.JobFilter, store Store, opts Options, logger *slog.Logger) *Ingester {
	if opts.Window <= 0 {
		opts.Window = 30 * 24 * time.Hour
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 400
	}
	return &Ingester{
		source: source,
		filter: filter,
		store:  store,
		opts:   opts,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: logger,
	}
}

// Run executes one ingestion. The result is returned even when nothing is
// new; an error is returned only when the store fails.
func (i *Ingester) Run(ctx context.Context) (model.IngestResult, error) {
	fetched := i.source.Run(ctx)
	result := model.IngestResult{
		Fetched: len(fetched.Jobs),
		Errors:  append([]string{}, fetched.Errors...),
	}

	// Normalize and filter, then drop in-batch duplicates. First occurrence wins.
	var (
		candidates []model.NormalizedJob
		keys       []string
		batchSeen  = make(map[string]bool)
	)
	for _, job := range fetched.Jobs {
		job = normalize(job, i.now())
		if !job.Valid() {
			result.Filtered++
			continue
		}
		if i.filter != nil && !i.filter.Match(job) {
			result.Filtered++
			continue
		}
		key := job.DedupKey()
		if batchSeen[key] {
			result.Duplicate++
			continue
		}
		batchSeen[key] = true
		candidates = append(candidates, job)
		keys = append(keys, key)
	}

	if len(candidates) == 0 {
		i.logResult(result)
		return result, nil
	}

	now := i.now()
	existing, err := i.store.ExistingKeys(ctx, keys, now.Add(-i.opts.Window))
	if err != nil {
		return result, fmt.Errorf("ingest: %w", err)
	}

	status := model.StatusPending
	if i.opts.Hold {
		status = model.StatusNone
	}

	var fresh []model.JobRecord
	for idx, job := range candidates {
		if existing[keys[idx]] {
			result.Duplicate++
			continue
		}
		rec := model.JobRecord{
			ID:         i.newID(),
			DedupKey:   keys[idx],
			Job:        job,
			Status:     status,
			IngestedAt: now,
		}
		if status == model.StatusPending {
			queued := now
			rec.QueuedAt = &queued
		}
		fresh = append(fresh, rec)
	}

	for start := 0; start < len(fresh); start += i.opts.BatchSize {
		end := min(start+i.opts.BatchSize, len(fresh))
		if err := i.store.InsertJobs(ctx, fresh[start:end]); err != nil {
			return result, fmt.Errorf("ingest: inserting batch at %d: %w", start, err)
		}
		result.New += end - start
	}

	i.logResult(result)
	return result, nil
}

func (i *Ingester) logResult(r model.IngestResult) {
	i.logger.Info("ingest complete",
		"fetched", r.Fetched,
		"new", r.New,
		"duplicate", r.Duplicate,
		"filtered", r.Filtered,
		"errors", len(r.Errors),
	)
}

// normalize trims identity fields and fills a missing creation time.
func normalize(job model.NormalizedJob, now time.Time) model.NormalizedJob {
	job.Role = collapse(job.Role)
	job.Company = collapse(job.Company)
	job.Location = collapse(job.Location)
	job.Salary = strings.TrimSpace(job.Salary)
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now.UTC()
	}
	return job
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
