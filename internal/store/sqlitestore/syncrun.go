package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dongnemap/facility-sync/internal/domain"
)

// Create inserts a new sync-run audit row.
func (s *Store) Create(ctx context.Context, run *domain.SyncRun) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO sync_runs
			(id, category, status, total_records, new_records, updated_records,
			 error_message, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, string(run.Category), string(run.Status),
		run.TotalRecords, run.NewRecords, run.UpdatedRecords,
		run.ErrorMessage, run.StartedAt, run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("create sync run %s: %w", run.ID, err)
	}
	return nil
}

// Update rewrites an existing sync-run row in place.
func (s *Store) Update(ctx context.Context, run *domain.SyncRun) error {
	res, err := s.conn.ExecContext(ctx, `
		UPDATE sync_runs SET
			status = ?, total_records = ?, new_records = ?, updated_records = ?,
			error_message = ?, completed_at = ?
		WHERE id = ?`,
		string(run.Status), run.TotalRecords, run.NewRecords, run.UpdatedRecords,
		run.ErrorMessage, run.CompletedAt, run.ID,
	)
	if err != nil {
		return fmt.Errorf("update sync run %s: %w", run.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update sync run %s: no such run", run.ID)
	}
	return nil
}

// LatestRun returns the most recently started run for a category, or nil
// when the category has never synced.
func (s *Store) LatestRun(ctx context.Context, category domain.Category) (*domain.SyncRun, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT id, category, status, total_records, new_records, updated_records,
		       error_message, started_at, completed_at
		FROM sync_runs WHERE category = ?
		ORDER BY started_at DESC LIMIT 1`, string(category))

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return run, err
}

func scanRun(row *sql.Row) (*domain.SyncRun, error) {
	var (
		run         domain.SyncRun
		category    string
		status      string
		completedAt sql.NullTime
	)
	err := row.Scan(&run.ID, &category, &status,
		&run.TotalRecords, &run.NewRecords, &run.UpdatedRecords,
		&run.ErrorMessage, &run.StartedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	run.Category = domain.Category(category)
	run.Status = domain.RunStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	return &run, nil
}
