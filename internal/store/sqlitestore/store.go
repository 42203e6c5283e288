// Package sqlitestore persists canonical facility records and sync-run
// audit rows in a single SQLite file using the pure-Go driver.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/dongnemap/facility-sync/internal/domain"
	"github.com/dongnemap/facility-sync/internal/pipeline"
)

// Store wraps the SQLite connection. It satisfies both pipeline.FacilityStore
// and pipeline.SyncRunStore.
type Store struct {
	conn *sql.DB
}

var (
	_ pipeline.FacilityStore = (*Store)(nil)
	_ pipeline.SyncRunStore  = (*Store)(nil)
)

// Open opens (or creates) the SQLite file at path and applies the schema.
// Pass ":memory:" for an ephemeral database.
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows one writer. A single connection avoids SQLITE_BUSY
	// and keeps :memory: databases from silently forking per connection.
	conn.SetMaxOpenConns(1)

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Ping verifies the connection is usable.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS facilities (
			id TEXT PRIMARY KEY,
			category TEXT NOT NULL,
			name TEXT NOT NULL,
			address TEXT NOT NULL DEFAULT '',
			road_address TEXT NOT NULL DEFAULT '',
			lat REAL,
			lng REAL,
			city TEXT NOT NULL DEFAULT '',
			district TEXT NOT NULL DEFAULT '',
			source_id TEXT NOT NULL,
			source_url TEXT NOT NULL DEFAULT '',
			details TEXT NOT NULL DEFAULT '',
			synced_at DATETIME NOT NULL,
			UNIQUE (category, source_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_facilities_category ON facilities(category)`,
		`CREATE INDEX IF NOT EXISTS idx_facilities_region ON facilities(city, district)`,
		`CREATE TABLE IF NOT EXISTS sync_runs (
			id TEXT PRIMARY KEY,
			category TEXT NOT NULL,
			status TEXT NOT NULL,
			total_records INTEGER NOT NULL DEFAULT 0,
			new_records INTEGER NOT NULL DEFAULT 0,
			updated_records INTEGER NOT NULL DEFAULT 0,
			error_message TEXT NOT NULL DEFAULT '',
			started_at DATETIME NOT NULL,
			completed_at DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_runs_category ON sync_runs(category, started_at)`,
	}

	for _, m := range migrations {
		if _, err := s.conn.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// InTx runs fn inside a single transaction. The transaction commits when fn
// returns nil and rolls back otherwise, so a failed batch leaves no partial
// rows behind.
func (s *Store) InTx(ctx context.Context, fn func(tx pipeline.FacilityTx) error) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(&facilityTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type facilityTx struct {
	tx *sql.Tx
}

func (t *facilityTx) Exists(category domain.Category, sourceID string) (bool, error) {
	var n int
	err := t.tx.QueryRow(
		`SELECT COUNT(1) FROM facilities WHERE category = ? AND source_id = ?`,
		string(category), sourceID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("exists %s/%s: %w", category, sourceID, err)
	}
	return n > 0, nil
}

func (t *facilityTx) Upsert(f *domain.Facility) error {
	details, err := domain.EncodeDetails(f.Details)
	if err != nil {
		return fmt.Errorf("encode details for %s: %w", f.ID, err)
	}

	var lat, lng sql.NullFloat64
	if f.Coord != nil {
		lat = sql.NullFloat64{Float64: f.Coord.Lat, Valid: true}
		lng = sql.NullFloat64{Float64: f.Coord.Lng, Valid: true}
	}

	_, err = t.tx.Exec(`
		INSERT INTO facilities
			(id, category, name, address, road_address, lat, lng,
			 city, district, source_id, source_url, details, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (category, source_id) DO UPDATE SET
			name = excluded.name,
			address = excluded.address,
			road_address = excluded.road_address,
			lat = excluded.lat,
			lng = excluded.lng,
			city = excluded.city,
			district = excluded.district,
			source_url = excluded.source_url,
			details = excluded.details,
			synced_at = excluded.synced_at`,
		f.ID, string(f.Category), f.Name, f.Address, f.RoadAddress, lat, lng,
		f.City, f.District, f.SourceID, f.SourceURL, string(details), f.SyncedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", f.ID, err)
	}
	return nil
}

// GetFacility loads one record by ID. Returns sql.ErrNoRows when absent.
func (s *Store) GetFacility(ctx context.Context, id string) (*domain.Facility, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT id, category, name, address, road_address, lat, lng,
		       city, district, source_id, source_url, details, synced_at
		FROM facilities WHERE id = ?`, id)
	return scanFacility(row)
}

// CountByCategory returns how many records a category currently holds.
func (s *Store) CountByCategory(ctx context.Context, category domain.Category) (int, error) {
	var n int
	err := s.conn.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM facilities WHERE category = ?`, string(category),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", category, err)
	}
	return n, nil
}

func scanFacility(row *sql.Row) (*domain.Facility, error) {
	var (
		f        domain.Facility
		category string
		lat, lng sql.NullFloat64
		details  string
	)
	err := row.Scan(&f.ID, &category, &f.Name, &f.Address, &f.RoadAddress,
		&lat, &lng, &f.City, &f.District, &f.SourceID, &f.SourceURL,
		&details, &f.SyncedAt)
	if err != nil {
		return nil, err
	}

	f.Category = domain.Category(category)
	if lat.Valid && lng.Valid {
		f.Coord = &domain.Coord{Lat: lat.Float64, Lng: lng.Float64}
	}
	if details != "" {
		d, err := domain.DecodeDetails(f.Category, []byte(details))
		if err != nil {
			return nil, err
		}
		f.Details = d
	}
	return &f, nil
}
