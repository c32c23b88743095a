package model

import "time"

// IngestResult summarizes one ingestion run.
type IngestResult struct {
	Fetched   int      `json:"fetched"`
	New       int      `json:"new"`
	Duplicate int      `json:"duplicate"`
	Filtered  int      `json:"filtered"`
	Errors    []string `json:"errors"`
}

// BatchResult summarizes one enrichment batch.
type BatchResult struct {
	Processed int `json:"processed"`
	Enriched  int `json:"enriched"`
	Failed    int `json:"failed"`
	Remaining int `json:"remaining"`
}

// RunReport is what the notifier receives after a scheduled cycle.
type RunReport struct {
	StartedAt time.Time
	Duration  time.Duration
	Ingest    IngestResult
	Batches   []BatchResult
	Stuck     int
}

// Totals adds up the batch results of a report.
func (r RunReport) Totals() BatchResult {
	var t BatchResult
	for _, b := range r.Batches {
		t.Processed += b.Processed
		t.Enriched += b.Enriched
		t.Failed += b.Failed
		t.Remaining = b.Remaining
	}
	return t
}

// Notifier delivers run reports.
type Notifier interface {
	Notify(report RunReport) error
}

// Idle reports whether a cycle found nothing new, enriched nothing and saw
// no problems.
func (r RunReport) Idle() bool {
	t := r.Totals()
	return r.Ingest.New == 0 && t.Processed == 0 && r.Stuck == 0 && len(r.Ingest.Errors) == 0
}
