// Package pipeline turns raw source rows into persisted canonical facility
// records: transform, geocode-fill, dedup, batch upsert, with every run
// audited from start to terminal status.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dongnemap/facility-sync/internal/domain"
	"github.com/dongnemap/facility-sync/internal/observability"
)

// AddressResolver fills missing coordinates from free-text addresses.
// Implemented by geocode.Resolver.
type AddressResolver interface {
	ResolveAll(ctx context.Context, addresses []string) []*domain.Coord
}

// Pipeline runs one category's sync end to end. Stages run strictly in
// sequence: each depends on the previous stage's complete output.
type Pipeline struct {
	category    domain.Category
	source      RowSource
	transformer Transformer
	resolver    AddressResolver // nil when the category never geocodes
	upserter    *Upserter
	tracker     *Tracker
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// NewPipeline assembles a category pipeline from its stages.
func NewPipeline(
	source RowSource,
	transformer Transformer,
	resolver AddressResolver,
	upserter *Upserter,
	tracker *Tracker,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Pipeline {
	return &Pipeline{
		category:    transformer.Category(),
		source:      source,
		transformer: transformer,
		resolver:    resolver,
		upserter:    upserter,
		tracker:     tracker,
		logger:      logger.With("category", transformer.Category()),
		metrics:     metrics,
	}
}

func (p *Pipeline) Category() domain.Category { return p.category }

// NeedsGeocoding reports whether this pipeline consumes the shared
// geocoding rate budget.
func (p *Pipeline) NeedsGeocoding() bool { return p.resolver != nil }

// Run executes one sync run for the category. The audit record is created
// before any I/O and finalized on every exit path; the returned count is
// the number of accepted records.
func (p *Pipeline) Run(ctx context.Context) (total int, err error) {
	run, err := p.tracker.Begin(ctx, p.category)
	if err != nil {
		return 0, err
	}

	var newCount, updatedCount int
	defer func() {
		// Finalize even when ctx is already cancelled or the run failed.
		p.tracker.Finish(context.WithoutCancel(ctx), run, err, total, newCount, updatedCount)
		p.metrics.RunsTotal.WithLabelValues(string(p.category), string(run.Status)).Inc()
	}()

	rows, err := p.source.Rows(ctx)
	if err != nil {
		return 0, err
	}
	p.metrics.RowsFetched.Add(float64(len(rows)))

	records := p.transformAll(rows)
	total = len(records)

	if p.resolver != nil {
		p.fillCoordinates(ctx, records)
	}

	newCount, updatedCount, err = p.upserter.UpsertAll(ctx, records, func(n, u int) {
		p.tracker.Progress(ctx, run, n, u)
	})
	if err != nil {
		return total, err
	}

	p.logger.Info("sync run complete",
		"total", total, "new", newCount, "updated", updatedCount)
	return total, nil
}

// transformAll maps raw rows to canonical records, skipping and counting
// rejected rows. Row-level failures never abort the run.
func (p *Pipeline) transformAll(rows []domain.RawRow) []*domain.Facility {
	records := make([]*domain.Facility, 0, len(rows))
	rejected := 0
	for _, row := range rows {
		rec, err := p.transformer.Transform(row)
		if err != nil {
			rejected++
			p.metrics.RowsRejected.Inc()
			if !errors.Is(err, ErrRowRejected) {
				p.logger.Warn("unexpected transform failure, skipping row", "error", err)
				continue
			}
			p.logger.Debug("row rejected", "error", err)
			continue
		}
		records = append(records, rec)
	}
	if rejected > 0 {
		p.logger.Info("rows rejected during transform", "rejected", rejected, "accepted", len(records))
	}
	return records
}

// fillCoordinates geocodes records whose coordinate pair is still absent.
// Records the geocoder cannot resolve keep a null pair; for geocoding
// categories a missing location is not a rejection.
func (p *Pipeline) fillCoordinates(ctx context.Context, records []*domain.Facility) {
	addresses := make([]string, len(records))
	missing := 0
	for i, rec := range records {
		if rec.Coord != nil {
			continue
		}
		addr := rec.Address
		if addr == "" {
			addr = rec.RoadAddress
		}
		addresses[i] = addr
		if addr != "" {
			missing++
		}
	}
	if missing == 0 {
		return
	}

	start := domain.Now()
	coords := p.resolver.ResolveAll(ctx, addresses)

	resolved := 0
	for i, coord := range coords {
		if coord == nil {
			continue
		}
		records[i].Coord = coord
		resolved++
	}
	p.metrics.GeocodeLookups.Add(float64(missing))
	p.metrics.GeocodeResolved.Add(float64(resolved))
	p.logger.Info("geocoding pass complete",
		"missing", missing, "resolved", resolved,
		"duration", domain.Now().Sub(start).Round(time.Millisecond))
}
