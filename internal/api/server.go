// Package api serves the cron trigger and the admin endpoints over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amishk599/jobdeck/internal/model"
	"github.com/amishk599/jobdeck/internal/storage"
)

// Batcher runs one enrichment batch.
type Batcher interface {
	RunBatch(ctx context.Context) (model.BatchResult, error)
}

// Ingester runs one ingestion.
type Ingester interface {
	Run(ctx context.Context) (model.IngestResult, error)
}

// Queue is the subset of queue operations the admin endpoints use.
type Queue interface {
	Stats(ctx context.Context) (map[model.Status]int, error)
	Stuck(ctx context.Context, olderThan time.Duration) ([]model.JobRecord, error)
	ResetFailed(ctx context.Context) ([]string, error)
	QueueUnqueued(ctx context.Context) ([]string, error)
	ResetStuck(ctx context.Context, olderThan time.Duration) ([]string, error)
}

// Options configure a Server.
type Options struct {
	// Secret is the bearer token every protected route requires. An empty
	// secret makes those routes answer 500.
	Secret     string
	StuckAfter time.Duration
	Mode       string // gin mode: release, test or debug
}

// Server wires the handlers to a gin engine.
type Server struct {
	worker Batcher
	ingest Ingester
	queue  Queue
	cards  storage.CardStore
	opts   Options
	logger *slog.Logger
	engine *gin.Engine

	bg sync.WaitGroup // card deletions started by reset
}

// NewServer builds the router. cards may be nil when export is disabled.
func NewServer(worker Batcher, ingest Ingester, queue Queue, cards storage.CardStore, opts Options, logger *slog.Logger) *Server {
	if cards == nil {
		cards = storage.Nop{}
	}
	if opts.StuckAfter <= 0 {
		opts.StuckAfter = 15 * time.Minute
	}
	s := &Server{
		worker: worker,
		ingest: ingest,
		queue:  queue,
		cards:  cards,
		opts:   opts,
		logger: logger,
	}
	s.engine = s.setupRouter()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) setupRouter() *gin.Engine {
	switch s.opts.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(s.logger))

	r.GET("/healthz", s.health)

	cron := r.Group("/api/cron", bearerAuth(s.opts.Secret, s.logger))
	{
		cron.GET("/enrich", s.enrich)
		cron.POST("/enrich", s.enrich)
		cron.POST("/ingest", s.runIngest)
	}

	admin := r.Group("/api/admin", bearerAuth(s.opts.Secret, s.logger))
	{
		admin.GET("/stats", s.stats)
		admin.GET("/stuck", s.stuck)
		admin.POST("/reset", s.reset)
	}

	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Wait()
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Wait blocks until background work started by handlers has finished.
func (s *Server) Wait() {
	s.bg.Wait()
}
