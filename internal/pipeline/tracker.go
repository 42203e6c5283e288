package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dongnemap/facility-sync/internal/domain"
)

// Tracker records sync-run audit history. Lifecycle per run:
// Begin (before any I/O) → Progress* → Finish (exactly once, on every exit
// path).
type Tracker struct {
	store  SyncRunStore
	logger *slog.Logger
}

// NewTracker creates a run tracker over the given store.
func NewTracker(store SyncRunStore, logger *slog.Logger) *Tracker {
	return &Tracker{store: store, logger: logger}
}

// Begin creates the audit record in the running state.
func (t *Tracker) Begin(ctx context.Context, category domain.Category) (*domain.SyncRun, error) {
	run := &domain.SyncRun{
		ID:        uuid.NewString(),
		Category:  category,
		Status:    domain.RunRunning,
		StartedAt: domain.Now(),
	}
	if err := t.store.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("create sync run: %w", err)
	}
	return run, nil
}

// Progress pushes running totals onto the audit record. Failures are logged
// and swallowed: losing a mid-flight progress update must not fail a sync
// that is otherwise working.
func (t *Tracker) Progress(ctx context.Context, run *domain.SyncRun, newCount, updatedCount int) {
	run.NewRecords = newCount
	run.UpdatedRecords = updatedCount
	if err := t.store.Update(ctx, run); err != nil {
		t.logger.Warn("progress update failed", "run_id", run.ID, "error", err)
	}
}

// Finish finalizes the run exactly once. A nil runErr finalizes to success;
// otherwise the run fails and the error message is recorded.
func (t *Tracker) Finish(ctx context.Context, run *domain.SyncRun, runErr error, total, newCount, updatedCount int) {
	run.TotalRecords = total
	run.NewRecords = newCount
	run.UpdatedRecords = updatedCount
	now := domain.Now()
	run.CompletedAt = &now

	if runErr != nil {
		run.Status = domain.RunFailed
		run.ErrorMessage = runErr.Error()
	} else {
		run.Status = domain.RunSuccess
	}

	if err := t.store.Update(ctx, run); err != nil {
		// The run outcome is already decided; the audit write failing is
		// worth an error log but must not mask runErr.
		t.logger.Error("finalize sync run failed", "run_id", run.ID, "error", err)
	}
}
