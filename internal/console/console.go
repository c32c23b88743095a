// Package console is an interactive terminal browser over the job queue.
package console

import (
	"context"
	"errors"

	"github.com/amishk599/jobdeck/internal/model"
)

// Queue is what the browser reads and resets.
type Queue interface {
	Stats(ctx context.Context) (map[model.Status]int, error)
	List(ctx context.Context, status model.Status, limit int) ([]model.JobRecord, error)
	Reset(ctx context.Context, id string) (model.JobRecord, error)
}

// Run alternates between the status picker and the record browser until the
// user quits. limit caps the records loaded per status.
func Run(ctx context.Context, q Queue, limit int) error {
	cursor := 1 // pending
	for {
		counts, err := q.Stats(ctx)
		if err != nil {
			return err
		}

		status, c, ok, err := runStatusPicker(counts, cursor)
		if err != nil || !ok {
			return err
		}
		cursor = c

		recs, err := runLoader(string(status), func(ctx context.Context) ([]model.JobRecord, error) {
			return q.List(ctx, status, limit)
		})
		if errors.Is(err, errCancelled) {
			return nil
		}
		if err != nil {
			return err
		}

		quit, err := runBrowser(status, recs, q)
		if err != nil || quit {
			return err
		}
	}
}
