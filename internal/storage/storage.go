// Package storage exports enriched cards to object storage.
package storage

import (
	"context"

	"github.com/amishk599/jobdeck/internal/model"
)

// CardStore persists card snapshots outside the job database.
type CardStore interface {
	Put(ctx context.Context, id string, card model.EnrichedJobCard) error
	Delete(ctx context.Context, id string) error
}

// Nop discards every write. It is used when export is disabled.
type Nop struct{}

func (Nop) Put(context.Context, string, model.EnrichedJobCard) error { return nil }

func (Nop) Delete(context.Context, string) error { return nil }
