package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/amishk599/jobdeck/internal/model"
)

// RunResult is the merged output of one adapter run.
type RunResult struct {
	Jobs   []model.NormalizedJob
	Errors []string // "<adapter>: <error>"
}

// Runner fans out to every adapter in parallel.
type Runner struct {
	adapters []Adapter
	timeout  time.Duration
	logger   *slog.Logger
}

// NewRunner creates a runner. timeout bounds each adapter separately; zero
// means no per-adapter deadline beyond the caller's context.
func NewRunner(adapters []Adapter, timeout time.Duration, logger *slog.Logger) *Runner {
	return &Runner{adapters: adapters, timeout: timeout, logger: logger}
}

// Adapters returns the adapters the runner fans out to.
func (r *Runner) Adapters() []Adapter { return r.adapters }

// Run calls every adapter concurrently. A failing or panicking adapter adds
// one error and no jobs; it never cancels or truncates the others. Jobs are
// concatenated in adapter order.
func (r *Runner) Run(ctx context.Context) RunResult {
	type outcome struct {
		jobs []model.NormalizedJob
		err  error
	}
	outcomes := make([]outcome, len(r.adapters))

	var g errgroup.Group
	for i, a := range r.adapters {
		g.Go(func() error {
			jobs, err := r.runOne(ctx, a)
			outcomes[i] = outcome{jobs: jobs, err: err}
			// Never return the error: siblings must keep running.
			return nil
		})
	}
	_ = g.Wait()

	var res RunResult
	for i, o := range outcomes {
		name := r.adapters[i].Name()
		if o.err != nil {
			r.logger.Warn("source failed", "source", name, "error", o.err)
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", name, o.err))
			continue
		}
		r.logger.Debug("source fetched", "source", name, "jobs", len(o.jobs))
		res.Jobs = append(res.Jobs, o.jobs...)
	}
	return res
}

func (r *Runner) runOne(ctx context.Context, a Adapter) (jobs []model.NormalizedJob, err error) {
	defer func() {
		if p := recover(); p != nil {
			jobs, err = nil, fmt.Errorf("panic: %v", p)
		}
	}()

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	return a.FetchJobs(ctx)
}
