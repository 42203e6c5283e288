package pipeline_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/dongnemap/facility-sync/internal/domain"
	"github.com/dongnemap/facility-sync/internal/observability"
	"github.com/dongnemap/facility-sync/internal/pipeline"
)

func newTestMetrics() *observability.Metrics {
	// Fresh unregistered collectors avoid "already registered" panics.
	return observability.NewMetricsForTesting()
}

// memStore is an in-memory FacilityStore with real transaction semantics:
// writes stage into a copy and only land on commit.
type memStore struct {
	facilities map[string]*domain.Facility
	txCalls    int
	failOnTx   int // 1-based InTx call that fails; 0 disables
}

func newMemStore() *memStore {
	return &memStore{facilities: make(map[string]*domain.Facility)}
}

func facilityKey(category domain.Category, sourceID string) string {
	return string(category) + "|" + sourceID
}

func (s *memStore) InTx(_ context.Context, fn func(tx pipeline.FacilityTx) error) error {
	s.txCalls++
	if s.failOnTx != 0 && s.txCalls == s.failOnTx {
		return fmt.Errorf("tx %d: database gone away", s.txCalls)
	}

	staged := make(map[string]*domain.Facility, len(s.facilities))
	for k, v := range s.facilities {
		staged[k] = v
	}
	if err := fn(&memTx{staged: staged}); err != nil {
		return err
	}
	s.facilities = staged
	return nil
}

type memTx struct {
	staged map[string]*domain.Facility
}

func (t *memTx) Exists(category domain.Category, sourceID string) (bool, error) {
	_, ok := t.staged[facilityKey(category, sourceID)]
	return ok, nil
}

func (t *memTx) Upsert(f *domain.Facility) error {
	cp := *f
	t.staged[facilityKey(f.Category, f.SourceID)] = &cp
	return nil
}

// memRunStore records sync-run audit writes, keeping snapshots so later
// mutation of the caller's struct does not leak in.
type memRunStore struct {
	runs      map[string]domain.SyncRun
	order     []string
	updates   int
	createErr error
	updateErr error
}

func newMemRunStore() *memRunStore {
	return &memRunStore{runs: make(map[string]domain.SyncRun)}
}

func (s *memRunStore) Create(_ context.Context, run *domain.SyncRun) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.runs[run.ID] = *run
	s.order = append(s.order, run.ID)
	return nil
}

func (s *memRunStore) Update(_ context.Context, run *domain.SyncRun) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	if _, ok := s.runs[run.ID]; !ok {
		return errors.New("no such run")
	}
	s.runs[run.ID] = *run
	s.updates++
	return nil
}

func (s *memRunStore) lastRun() domain.SyncRun {
	return s.runs[s.order[len(s.order)-1]]
}

// stubSource returns canned rows or a fixed error.
type stubSource struct {
	rows []domain.RawRow
	err  error
}

func (s stubSource) Rows(_ context.Context) ([]domain.RawRow, error) {
	return s.rows, s.err
}

// stubResolver answers lookups from an address→coordinate table.
type stubResolver struct {
	coords map[string]*domain.Coord
	calls  int
}

func (r *stubResolver) ResolveAll(_ context.Context, addresses []string) []*domain.Coord {
	r.calls++
	out := make([]*domain.Coord, len(addresses))
	for i, addr := range addresses {
		if addr == "" {
			continue
		}
		out[i] = r.coords[addr]
	}
	return out
}
