package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amishk599/jobdeck/internal/model"
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// enrich runs one batch and answers with its counts.
func (s *Server) enrich(c *gin.Context) {
	res, err := s.worker.RunBatch(c.Request.Context())
	if err != nil {
		s.logger.Error("cron enrich failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) runIngest(c *gin.Context) {
	res, err := s.ingest.Run(c.Request.Context())
	if err != nil {
		s.logger.Error("cron ingest failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) stats(c *gin.Context) {
	counts, err := s.queue.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make(map[string]int, len(model.AllStatuses))
	for _, st := range model.AllStatuses {
		out[string(st)] = counts[st]
	}
	c.JSON(http.StatusOK, out)
}

type stuckRecord struct {
	ID        string     `json:"id"`
	Role      string     `json:"role"`
	Company   string     `json:"company"`
	Retries   int        `json:"retries"`
	StartedAt *time.Time `json:"started_at"`
}

// stuck lists records processing longer than ?older_than (a duration,
// default the configured stuck threshold).
func (s *Server) stuck(c *gin.Context) {
	olderThan, ok := s.olderThan(c)
	if !ok {
		return
	}
	recs, err := s.queue.Stuck(c.Request.Context(), olderThan)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]stuckRecord, 0, len(recs))
	for _, r := range recs {
		out = append(out, stuckRecord{
			ID:        r.ID,
			Role:      r.Job.Role,
			Company:   r.Job.Company,
			Retries:   r.Retries,
			StartedAt: r.StartedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "records": out})
}

type resetResponse struct {
	Failed   int `json:"failed"`
	Unqueued int `json:"unqueued"`
	Stuck    int `json:"stuck"`
}

// reset re-queues failed and never-queued records, and stuck ones when
// ?stuck=true. Exported cards of re-queued records are removed in the
// background.
func (s *Server) reset(c *gin.Context) {
	ctx := c.Request.Context()

	failed, err := s.queue.ResetFailed(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	unqueued, err := s.queue.QueueUnqueued(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var stuck []string
	if withStuck, _ := strconv.ParseBool(c.Query("stuck")); withStuck {
		olderThan, ok := s.olderThan(c)
		if !ok {
			return
		}
		stuck, err = s.queue.ResetStuck(ctx, olderThan)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	s.dropCards(append(append([]string{}, failed...), stuck...))

	s.logger.Info("queue reset", "failed", len(failed), "unqueued", len(unqueued), "stuck", len(stuck))
	c.JSON(http.StatusOK, resetResponse{Failed: len(failed), Unqueued: len(unqueued), Stuck: len(stuck)})
}

func (s *Server) olderThan(c *gin.Context) (time.Duration, bool) {
	raw := c.Query("older_than")
	if raw == "" {
		return s.opts.StuckAfter, true
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid older_than: " + raw})
		return 0, false
	}
	return d, true
}

// dropCards deletes exported cards in the background. Shutdown waits for
// it through s.bg.
func (s *Server) dropCards(ids []string) {
	if len(ids) == 0 {
		return
	}
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		for _, id := range ids {
			if err := s.cards.Delete(ctx, id); err != nil {
				s.logger.Warn("delete exported card failed", "id", id, "error", err)
			}
		}
	}()
}
