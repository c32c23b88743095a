package notifier

import (
	"log/slog"
	"time"

	"github.com/amishk599/jobdeck/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes run reports to the given logger as structured messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each report via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the ingest and enrichment totals of a cycle, plus each
// adapter error. Returns nil (stdout logging does not fail).
func (n *LogNotifier) Notify(report model.RunReport) error {
	t := report.Totals()
	n.logger.Info("run report",
		"started_at", report.StartedAt,
		"duration", report.Duration.Round(time.Millisecond).String(),
		"fetched", report.Ingest.Fetched,
		"new", report.Ingest.New,
		"duplicate", report.Ingest.Duplicate,
		"filtered", report.Ingest.Filtered,
		"batches", len(report.Batches),
		"processed", t.Processed,
		"enriched", t.Enriched,
		"failed", t.Failed,
		"remaining", t.Remaining,
		"stuck", report.Stuck,
	)
	for _, e := range report.Ingest.Errors {
		n.logger.Warn("adapter error", "error", e)
	}
	if report.Stuck > 0 {
		n.logger.Warn("records stuck in processing", "count", report.Stuck)
	}
	return nil
}
