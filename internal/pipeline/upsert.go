package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dongnemap/facility-sync/internal/domain"
	"github.com/dongnemap/facility-sync/internal/observability"
)

// Upserter deduplicates transformed records and writes them in fixed-size
// transactional batches. A batch failure aborts the run, but batches that
// already committed stay persisted: partial progress is acceptable because
// sync runs are idempotent and safely re-runnable.
type Upserter struct {
	store     FacilityStore
	batchSize int
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewUpserter creates an upsert engine writing batches of batchSize.
func NewUpserter(store FacilityStore, batchSize int, logger *slog.Logger, metrics *observability.Metrics) *Upserter {
	return &Upserter{
		store:     store,
		batchSize: batchSize,
		logger:    logger,
		metrics:   metrics,
	}
}

// UpsertAll writes the records and returns new/updated counts. progress is
// invoked with the running totals after every committed batch so a
// long-running sync is observable mid-flight; pass nil to skip reporting.
func (u *Upserter) UpsertAll(ctx context.Context, records []*domain.Facility, progress func(newCount, updatedCount int)) (newCount, updatedCount int, err error) {
	deduped := Dedup(records)
	if dropped := len(records) - len(deduped); dropped > 0 {
		u.logger.Info("deduplicated records", "dropped", dropped, "kept", len(deduped))
	}

	for start := 0; start < len(deduped); start += u.batchSize {
		end := start + u.batchSize
		if end > len(deduped) {
			end = len(deduped)
		}
		batch := deduped[start:end]

		batchNew, batchUpdated, err := u.upsertBatch(ctx, batch)
		if err != nil {
			return newCount, updatedCount, fmt.Errorf("upsert batch at offset %d: %w", start, err)
		}
		newCount += batchNew
		updatedCount += batchUpdated
		u.metrics.BatchSize.Observe(float64(len(batch)))

		if progress != nil {
			progress(newCount, updatedCount)
		}
	}

	u.metrics.RecordsNew.Add(float64(newCount))
	u.metrics.RecordsUpdated.Add(float64(updatedCount))
	return newCount, updatedCount, nil
}

// upsertBatch writes one batch inside a single transaction. Records are
// written in deduplicated-sequence order; each write stamps SyncedAt.
func (u *Upserter) upsertBatch(ctx context.Context, batch []*domain.Facility) (newCount, updatedCount int, err error) {
	err = u.store.InTx(ctx, func(tx FacilityTx) error {
		for _, rec := range batch {
			exists, err := tx.Exists(rec.Category, rec.SourceID)
			if err != nil {
				return err
			}
			rec.SyncedAt = domain.Now()
			if err := tx.Upsert(rec); err != nil {
				return err
			}
			if exists {
				updatedCount++
			} else {
				newCount++
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return newCount, updatedCount, nil
}

// Dedup keeps exactly one record per source identifier. When two records
// share a sourceId within one run, the later one wins and keeps the
// earlier one's position in the sequence.
func Dedup(records []*domain.Facility) []*domain.Facility {
	index := make(map[string]int, len(records))
	out := make([]*domain.Facility, 0, len(records))
	for _, rec := range records {
		if i, ok := index[rec.SourceID]; ok {
			out[i] = rec
			continue
		}
		index[rec.SourceID] = len(out)
		out = append(out, rec)
	}
	return out
}
