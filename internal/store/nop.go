package store

import (
	"context"
	"time"

	"github.com/amishk599/jobdeck/internal/model"
)

// NopStore is used by ingest dry runs. It never remembers a key, so every
// fetched job looks new, and inserts are discarded.
type NopStore struct{}

func NewNopStore() *NopStore { return &NopStore{} }

func (s *NopStore) InsertJobs(ctx context.Context, records []model.JobRecord) error { return nil }
func (s *NopStore) ExistingKeys(ctx context.Context, keys []string, since time.Time) (map[string]bool, error) {
	return map[string]bool{}, nil
}
