package notifier

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/amishk599/jobdeck/internal/model"
)

func TestLogNotifier_Notify_idleReport(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))
	if err := n.Notify(model.RunReport{}); err != nil {
		t.Errorf("Notify(empty) = %v, want nil", err)
	}
	if !strings.Contains(buf.String(), "run report") {
		t.Errorf("log output missing report line: %s", buf.String())
	}
}

func TestLogNotifier_Notify_logsTotalsAndErrors(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))
	report := model.RunReport{
		StartedAt: time.Now(),
		Duration:  3 * time.Second,
		Ingest:    model.IngestResult{Fetched: 10, New: 4, Errors: []string{"adzuna: HTTP 500"}},
		Batches: []model.BatchResult{
			{Processed: 3, Enriched: 2, Failed: 1, Remaining: 1},
			{Processed: 1, Enriched: 1, Remaining: 0},
		},
		Stuck: 2,
	}
	if err := n.Notify(report); err != nil {
		t.Fatalf("Notify = %v, want nil", err)
	}

	out := buf.String()
	for _, want := range []string{"new=4", "processed=4", "enriched=3", "failed=1", "remaining=0", "adzuna: HTTP 500", "stuck"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}
