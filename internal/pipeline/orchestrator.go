package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/dongnemap/facility-sync/internal/domain"
)

// Result summarizes one category's sync outcome.
type Result struct {
	Category domain.Category
	Success  bool
	Count    int
	Err      error
	Duration time.Duration
}

// Orchestrator runs category pipelines sequentially, deferring
// geocoding-dependent categories to the end so earlier categories cannot
// starve the shared geocoding rate budget. One category failing never
// aborts its siblings.
type Orchestrator struct {
	pipelines []*Pipeline
	delay     time.Duration // cooperative pause between categories
	clock     clockwork.Clock
	logger    *slog.Logger
}

// NewOrchestrator creates an orchestrator over the given pipelines.
func NewOrchestrator(pipelines []*Pipeline, delay time.Duration, clock clockwork.Clock, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		pipelines: pipelines,
		delay:     delay,
		clock:     clock,
		logger:    logger,
	}
}

// Plan returns the execution order after include/exclude filtering:
// the include list (when non-empty) narrows the candidates, the exclude
// list then trims them, and geocoding categories move to the tail with
// relative order otherwise preserved.
func (o *Orchestrator) Plan(include, exclude []domain.Category) []*Pipeline {
	includeSet := toSet(include)
	excludeSet := toSet(exclude)

	var plain, geocoded []*Pipeline
	for _, p := range o.pipelines {
		if len(includeSet) > 0 && !includeSet[p.Category()] {
			continue
		}
		if excludeSet[p.Category()] {
			continue
		}
		if p.NeedsGeocoding() {
			geocoded = append(geocoded, p)
		} else {
			plain = append(plain, p)
		}
	}
	return append(plain, geocoded...)
}

// Run executes the planned categories to completion, collecting per-category
// results. Cancellation is coarse-grained: it is checked between categories,
// never mid-pipeline.
func (o *Orchestrator) Run(ctx context.Context, include, exclude []domain.Category) []Result {
	plan := o.Plan(include, exclude)
	results := make([]Result, 0, len(plan))

	for i, p := range plan {
		if i > 0 {
			if !o.pause(ctx) {
				break
			}
		}
		if ctx.Err() != nil {
			break
		}

		o.logger.Info("category sync starting", "category", p.Category())
		start := o.clock.Now()
		count, err := p.Run(ctx)
		duration := o.clock.Since(start)

		res := Result{
			Category: p.Category(),
			Success:  err == nil,
			Count:    count,
			Err:      err,
			Duration: duration,
		}
		results = append(results, res)

		if err != nil {
			o.logger.Error("category sync failed",
				"category", p.Category(), "duration", duration, "error", err)
			continue
		}
		o.logger.Info("category sync succeeded",
			"category", p.Category(), "records", count, "duration", duration)
	}

	return results
}

func (o *Orchestrator) pause(ctx context.Context) bool {
	if o.delay <= 0 {
		return true
	}
	timer := o.clock.NewTimer(o.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}

func toSet(categories []domain.Category) map[domain.Category]bool {
	set := make(map[domain.Category]bool, len(categories))
	for _, c := range categories {
		set[c] = true
	}
	return set
}
