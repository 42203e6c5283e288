package pipeline

import (
	"context"

	"github.com/dongnemap/facility-sync/internal/domain"
)

// FacilityStore is the persistence contract for canonical records. The
// upsert engine never writes outside a transaction boundary; InTx opens
// one and commits when fn returns nil, rolling back otherwise.
type FacilityStore interface {
	InTx(ctx context.Context, fn func(tx FacilityTx) error) error
}

// FacilityTx is the per-transaction write surface. Exists and Upsert
// together make re-syncs idempotent: the natural key is (category,
// sourceId).
type FacilityTx interface {
	Exists(category domain.Category, sourceID string) (bool, error)
	Upsert(f *domain.Facility) error
}

// SyncRunStore persists sync-run audit records.
type SyncRunStore interface {
	Create(ctx context.Context, run *domain.SyncRun) error
	Update(ctx context.Context, run *domain.SyncRun) error
}
