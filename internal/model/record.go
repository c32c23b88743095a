package model

import "time"

// Status is the enrichment state of a persisted job record.
type Status string

const (
	StatusNone            Status = "none"
	StatusPending         Status = "pending"
	StatusProcessing      Status = "processing"
	StatusEnriched        Status = "enriched"
	StatusFailed          Status = "failed"
	StatusFailedPermanent Status = "failed_permanent"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []Status{
	StatusNone,
	StatusPending,
	StatusProcessing,
	StatusEnriched,
	StatusFailed,
	StatusFailedPermanent,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// JobRecord is a NormalizedJob as owned by the persistent store.
// Only the queue's transition operations change Status, Retries and the
// timestamps.
type JobRecord struct {
	ID       string
	DedupKey string
	Job      NormalizedJob

	Status    Status
	Retries   int
	LastError string

	IngestedAt time.Time
	QueuedAt   *time.Time
	StartedAt  *time.Time
	EnrichedAt *time.Time
	FailedAt   *time.Time

	Card *EnrichedJobCard

	// Version increments on every write and backs compare-and-swap updates.
	Version int64
}
