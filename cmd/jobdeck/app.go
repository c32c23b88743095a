package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/amishk599/jobdeck/internal/adapter"
	"github.com/amishk599/jobdeck/internal/config"
	"github.com/amishk599/jobdeck/internal/enrich"
	"github.com/amishk599/jobdeck/internal/filter"
	"github.com/amishk599/jobdeck/internal/ingest"
	"github.com/amishk599/jobdeck/internal/queue"
	"github.com/amishk599/jobdeck/internal/ratelimit"
	"github.com/amishk599/jobdeck/internal/resolve"
	"github.com/amishk599/jobdeck/internal/storage"
	"github.com/amishk599/jobdeck/internal/store"
	"github.com/amishk599/jobdeck/internal/worker"
)

// app holds the collaborators shared by every command.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *store.SQLiteStore
	queue      *queue.Queue
	limiters   *ratelimit.Registry
	httpClient *http.Client
	cards      storage.CardStore
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	sqlStore, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	a := &app{
		cfg:        cfg,
		logger:     logger,
		store:      sqlStore,
		queue:      queue.New(sqlStore, cfg.Queue.MaxRetries, logger),
		limiters:   ratelimit.NewRegistry(cfg.RateLimitFor, time.Second, logger),
		httpClient: &http.Client{
			Timeout:   cfg.HTTP.Timeout,
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
		},
		cards:      storage.Nop{},
	}

	if cfg.Export.Enabled {
		s3Store, err := storage.NewS3Store(ctx, cfg.Export)
		if err != nil {
			sqlStore.Close()
			return nil, fmt.Errorf("card export: %w", err)
		}
		a.cards = s3Store
		logger.Info("card export enabled", "bucket", cfg.Export.Bucket, "prefix", cfg.Export.Prefix)
	}
	return a, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func (a *app) jobFilter() *filter.TitleAndLocationFilter {
	f := a.cfg.Ingest.Filters
	return filter.NewTitleAndLocationFilter(f.TitleKeywords, f.TitleExcludeKeywords, f.Locations, f.ExcludeLocations)
}

func (a *app) env() adapter.Env {
	return adapter.Env{Keys: a.cfg.Keys, Sources: a.cfg.Sources, Boards: a.cfg.Boards}
}

// ingester builds the ingest pipeline over st. Passing a NopStore gives a
// dry run.
func (a *app) ingester(st ingest.Store, hold bool) *ingest.Ingester {
	jobFilter := a.jobFilter()
	deps := adapter.Deps{Env: a.env(), Client: a.httpClient, PreFilter: jobFilter}
	adapters := adapter.Build(adapter.Registrations(), deps, a.limiters, a.logger)
	if len(adapters) == 0 {
		a.logger.Warn("no sources enabled")
	}

	runner := adapter.NewRunner(adapters, a.cfg.Ingest.AdapterTimeout, a.logger)
	return ingest.New(runner, jobFilter, st, ingest.Options{
		Window:    a.cfg.Ingest.DedupWindow,
		BatchSize: a.cfg.Ingest.WriteBatchSize,
		Hold:      hold,
	}, a.logger)
}

func (a *app) worker() *worker.Worker {
	deps := resolve.Deps{
		HTTP:          a.httpClient,
		VerifyTimeout: a.cfg.HTTP.VerifyTimeout,
		Limiters:      a.limiters,
		Logger:        a.logger,
	}
	newEnricher := func() worker.Enricher {
		return enrich.New(deps, a.cfg.Keys, a.cfg.Resolve)
	}
	return worker.New(a.queue, newEnricher, a.cards, worker.Options{
		BatchSize:   a.cfg.Queue.BatchSize,
		Concurrency: a.cfg.Worker.Concurrency,
		JobTimeout:  a.cfg.Worker.JobTimeout,
		AutoRequeue: a.cfg.Queue.AutoRequeueFailed,
	}, a.logger)
}
