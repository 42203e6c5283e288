package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dongnemap/facility-sync/internal/domain"
	"github.com/dongnemap/facility-sync/internal/pipeline"
)

// buildPipeline wires a minimal pipeline for orchestration tests; the
// resolver is a marker deciding whether the category counts as geocoded.
func buildPipeline(t *testing.T, cat domain.Category, source pipeline.RowSource, geocoded bool) *pipeline.Pipeline {
	t.Helper()
	transformer, err := pipeline.NewTransformer(cat, domain.DefaultRegionTable(), testSourceURL)
	require.NoError(t, err)

	var resolver pipeline.AddressResolver
	if geocoded {
		resolver = &stubResolver{}
	}
	metrics := newTestMetrics()
	return pipeline.NewPipeline(
		source,
		transformer,
		resolver,
		pipeline.NewUpserter(newMemStore(), 10, slog.Default(), metrics),
		pipeline.NewTracker(newMemRunStore(), slog.Default()),
		slog.Default(),
		metrics,
	)
}

func categoriesOf(plan []*pipeline.Pipeline) []domain.Category {
	out := make([]domain.Category, len(plan))
	for i, p := range plan {
		out[i] = p.Category()
	}
	return out
}

func testOrchestrator(t *testing.T, delay time.Duration, clock clockwork.Clock) *pipeline.Orchestrator {
	t.Helper()
	pipelines := []*pipeline.Pipeline{
		buildPipeline(t, domain.CategoryLibrary, stubSource{}, false),
		buildPipeline(t, domain.CategoryPark, stubSource{}, true),
		buildPipeline(t, domain.CategoryToilet, stubSource{}, false),
		buildPipeline(t, domain.CategoryMarket, stubSource{}, true),
	}
	return pipeline.NewOrchestrator(pipelines, delay, clock, slog.Default())
}

func TestPlan_GeocodedCategoriesRunLast(t *testing.T) {
	o := testOrchestrator(t, 0, clockwork.NewRealClock())

	plan := o.Plan(nil, nil)
	assert.Equal(t,
		[]domain.Category{domain.CategoryLibrary, domain.CategoryToilet, domain.CategoryPark, domain.CategoryMarket},
		categoriesOf(plan))
}

func TestPlan_IncludeNarrows(t *testing.T) {
	o := testOrchestrator(t, 0, clockwork.NewRealClock())

	plan := o.Plan([]domain.Category{domain.CategoryPark, domain.CategoryLibrary}, nil)
	assert.Equal(t,
		[]domain.Category{domain.CategoryLibrary, domain.CategoryPark},
		categoriesOf(plan))
}

func TestPlan_ExcludeTrims(t *testing.T) {
	o := testOrchestrator(t, 0, clockwork.NewRealClock())

	plan := o.Plan(nil, []domain.Category{domain.CategoryToilet, domain.CategoryMarket})
	assert.Equal(t,
		[]domain.Category{domain.CategoryLibrary, domain.CategoryPark},
		categoriesOf(plan))
}

func TestPlan_ExcludeBeatsInclude(t *testing.T) {
	o := testOrchestrator(t, 0, clockwork.NewRealClock())

	plan := o.Plan(
		[]domain.Category{domain.CategoryLibrary, domain.CategoryToilet},
		[]domain.Category{domain.CategoryToilet})
	assert.Equal(t, []domain.Category{domain.CategoryLibrary}, categoriesOf(plan))
}

func TestRun_AllCategories(t *testing.T) {
	o := testOrchestrator(t, 0, clockwork.NewRealClock())

	results := o.Run(context.Background(), nil, nil)
	require.Len(t, results, 4)
	for _, r := range results {
		assert.True(t, r.Success, r.Category)
		assert.NoError(t, r.Err)
	}
}

func TestRun_FailureDoesNotAbortSiblings(t *testing.T) {
	pipelines := []*pipeline.Pipeline{
		buildPipeline(t, domain.CategoryLibrary, stubSource{}, false),
		buildPipeline(t, domain.CategoryToilet, stubSource{err: errors.New("boom")}, false),
		buildPipeline(t, domain.CategoryWifi, stubSource{}, false),
	}
	o := pipeline.NewOrchestrator(pipelines, 0, clockwork.NewRealClock(), slog.Default())

	results := o.Run(context.Background(), nil, nil)
	require.Len(t, results, 3)

	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.ErrorContains(t, results[1].Err, "boom")
	assert.True(t, results[2].Success, "the category after the failure still runs")
}

func TestRun_CancelledContextStopsBetweenCategories(t *testing.T) {
	o := testOrchestrator(t, 0, clockwork.NewRealClock())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := o.Run(ctx, nil, nil)
	assert.Empty(t, results)
}

func TestRun_PausesBetweenCategories(t *testing.T) {
	clock := clockwork.NewFakeClock()
	pipelines := []*pipeline.Pipeline{
		buildPipeline(t, domain.CategoryLibrary, stubSource{}, false),
		buildPipeline(t, domain.CategoryToilet, stubSource{}, false),
	}
	o := pipeline.NewOrchestrator(pipelines, time.Second, clock, slog.Default())

	done := make(chan []pipeline.Result, 1)
	go func() {
		done <- o.Run(context.Background(), nil, nil)
	}()

	// The orchestrator parks on the inter-category timer; release it.
	require.NoError(t, clock.BlockUntilContext(context.Background(), 1))
	clock.Advance(time.Second)

	select {
	case results := <-done:
		require.Len(t, results, 2)
	case <-time.After(5 * time.Second):
		t.Fatal("orchestrator did not finish after clock advance")
	}
}

func TestRun_CancelDuringPause(t *testing.T) {
	clock := clockwork.NewFakeClock()
	pipelines := []*pipeline.Pipeline{
		buildPipeline(t, domain.CategoryLibrary, stubSource{}, false),
		buildPipeline(t, domain.CategoryToilet, stubSource{}, false),
	}
	o := pipeline.NewOrchestrator(pipelines, time.Minute, clock, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan []pipeline.Result, 1)
	go func() {
		done <- o.Run(ctx, nil, nil)
	}()

	require.NoError(t, clock.BlockUntilContext(context.Background(), 1))
	cancel()

	select {
	case results := <-done:
		require.Len(t, results, 1, "only the category before the pause ran")
		assert.Equal(t, domain.CategoryLibrary, results[0].Category)
	case <-time.After(5 * time.Second):
		t.Fatal("orchestrator did not stop on cancellation")
	}
}
