// Package queue implements the enrichment state machine over the job store.
//
// A record moves pending → processing → enriched, or processing → failed,
// after which it is either reset to pending or, once its retry count reaches
// the limit, parked as failed_permanent and never claimed again.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amishk599/jobdeck/internal/model"
)

// maxCASAttempts bounds the read-modify-write loop of a single transition.
const maxCASAttempts = 8

// Store is the persistence the queue needs.
type Store interface {
	ClaimPending(ctx context.Context, n int, now time.Time) ([]model.JobRecord, error)
	Get(ctx context.Context, id string) (model.JobRecord, error)
	Update(ctx context.Context, rec model.JobRecord) (model.JobRecord, error)
	Requeue(ctx context.Context, from model.Status, startedBefore, now time.Time) ([]string, error)
	ListByStatus(ctx context.Context, status model.Status, limit int) ([]model.JobRecord, error)
	ListStuck(ctx context.Context, cutoff time.Time) ([]model.JobRecord, error)
	CountByStatus(ctx context.Context) (map[model.Status]int, error)
}

// Queue applies status transitions to stored records.
type Queue struct {
	store      Store
	maxRetries int
	now        func() time.Time
	logger     *slog.Logger
}

// New creates a Queue. Records reaching maxRetries failures become permanent.
func New(store Store, maxRetries int, logger *slog.Logger) *Queue {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Queue{
		store:      store,
		maxRetries: maxRetries,
		now:        time.Now,
		logger:     logger,
	}
}

// MaxRetries returns the failure count at which a record becomes permanent.
func (q *Queue) MaxRetries() int { return q.maxRetries }

// Claim moves up to n pending records to processing and returns them.
func (q *Queue) Claim(ctx context.Context, n int) ([]model.JobRecord, error) {
	recs, err := q.store.ClaimPending(ctx, n, q.now())
	if err != nil {
		return nil, fmt.Errorf("claim batch: %w", err)
	}
	return recs, nil
}

// MarkEnriched stores card on a processing record and marks it enriched.
func (q *Queue) MarkEnriched(ctx context.Context, id string, card model.EnrichedJobCard) (model.JobRecord, error) {
	return q.transition(ctx, id, func(rec *model.JobRecord) (bool, error) {
		if rec.Status != model.StatusProcessing {
			return false, fmt.Errorf("mark %s enriched from %s: %w", id, rec.Status, model.ErrInvalidTransition)
		}
		now := q.now()
		rec.Status = model.StatusEnriched
		rec.EnrichedAt = &now
		rec.LastError = ""
		rec.Card = &card
		return true, nil
	})
}

// MarkFailed records a failed attempt. The retry count is incremented and the
// record becomes failed, or failed_permanent once it reaches MaxRetries. A
// non-nil fallback card is stored so the record still renders. Marking a
// permanent failure is a no-op.
func (q *Queue) MarkFailed(ctx context.Context, id string, cause error, fallback *model.EnrichedJobCard) (model.JobRecord, error) {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}

	return q.transition(ctx, id, func(rec *model.JobRecord) (bool, error) {
		switch rec.Status {
		case model.StatusFailedPermanent:
			return false, nil
		case model.StatusProcessing, model.StatusFailed:
		default:
			return false, fmt.Errorf("mark %s failed from %s: %w", id, rec.Status, model.ErrInvalidTransition)
		}

		now := q.now()
		rec.Retries++
		rec.LastError = msg
		rec.FailedAt = &now
		if rec.Retries >= q.maxRetries {
			rec.Status = model.StatusFailedPermanent
		} else {
			rec.Status = model.StatusFailed
		}
		if fallback != nil {
			rec.Card = fallback
		}
		return true, nil
	})
}

// Reset moves a single failed or processing record back to pending.
func (q *Queue) Reset(ctx context.Context, id string) (model.JobRecord, error) {
	return q.transition(ctx, id, func(rec *model.JobRecord) (bool, error) {
		if rec.Status != model.StatusFailed && rec.Status != model.StatusProcessing {
			return false, fmt.Errorf("reset %s from %s: %w", id, rec.Status, model.ErrInvalidTransition)
		}
		now := q.now()
		rec.Status = model.StatusPending
		rec.QueuedAt = &now
		rec.StartedAt = nil
		return true, nil
	})
}

// transition runs an optimistic read-modify-write loop. apply mutates the
// loaded record and reports whether it should be written.
func (q *Queue) transition(ctx context.Context, id string, apply func(*model.JobRecord) (bool, error)) (model.JobRecord, error) {
	for attempt := 1; ; attempt++ {
		rec, err := q.store.Get(ctx, id)
		if err != nil {
			return model.JobRecord{}, err
		}

		write, err := apply(&rec)
		if err != nil || !write {
			return rec, err
		}

		updated, err := q.store.Update(ctx, rec)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, model.ErrConflict) || attempt >= maxCASAttempts {
			return rec, err
		}
		q.logger.Debug("version conflict, reloading", "id", id, "attempt", attempt)
	}
}

// Stuck lists records that have been processing for longer than olderThan.
func (q *Queue) Stuck(ctx context.Context, olderThan time.Duration) ([]model.JobRecord, error) {
	recs, err := q.store.ListStuck(ctx, q.now().Add(-olderThan))
	if err != nil {
		return nil, fmt.Errorf("list stuck: %w", err)
	}
	return recs, nil
}

// ResetFailed moves every failed record back to pending.
func (q *Queue) ResetFailed(ctx context.Context) ([]string, error) {
	ids, err := q.store.Requeue(ctx, model.StatusFailed, time.Time{}, q.now())
	if err != nil {
		return nil, fmt.Errorf("reset failed: %w", err)
	}
	return ids, nil
}

// QueueUnqueued moves records that were stored without queueing to pending.
func (q *Queue) QueueUnqueued(ctx context.Context) ([]string, error) {
	ids, err := q.store.Requeue(ctx, model.StatusNone, time.Time{}, q.now())
	if err != nil {
		return nil, fmt.Errorf("queue unqueued: %w", err)
	}
	return ids, nil
}

// ResetStuck moves records processing for longer than olderThan back to pending.
func (q *Queue) ResetStuck(ctx context.Context, olderThan time.Duration) ([]string, error) {
	now := q.now()
	ids, err := q.store.Requeue(ctx, model.StatusProcessing, now.Add(-olderThan), now)
	if err != nil {
		return nil, fmt.Errorf("reset stuck: %w", err)
	}
	return ids, nil
}

// Stats returns the record count per status.
func (q *Queue) Stats(ctx context.Context) (map[model.Status]int, error) {
	counts, err := q.store.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	return counts, nil
}

// Remaining returns the number of pending records.
func (q *Queue) Remaining(ctx context.Context) (int, error) {
	counts, err := q.Stats(ctx)
	if err != nil {
		return 0, err
	}
	return counts[model.StatusPending], nil
}

// List returns up to limit records in status.
func (q *Queue) List(ctx context.Context, status model.Status, limit int) ([]model.JobRecord, error) {
	recs, err := q.store.ListByStatus(ctx, status, limit)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", status, err)
	}
	return recs, nil
}
