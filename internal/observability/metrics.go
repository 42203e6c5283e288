package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// sync pipeline.
type Metrics struct {
	RowsFetched    prometheus.Counter
	RowsRejected   prometheus.Counter
	RecordsNew     prometheus.Counter
	RecordsUpdated prometheus.Counter
	RunsTotal      *prometheus.CounterVec // labels: category, status={success,failed}
	SyncRunning    prometheus.Gauge

	// Batch upsert metrics.
	BatchSize prometheus.Histogram

	// Geocoding metrics.
	GeocodeLookups  prometheus.Counter
	GeocodeResolved prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RowsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "facility_sync",
			Name:      "rows_fetched_total",
			Help:      "Total raw rows read from all sources.",
		}),
		RowsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "facility_sync",
			Name:      "rows_rejected_total",
			Help:      "Total rows skipped by transform validation.",
		}),
		RecordsNew: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "facility_sync",
			Name:      "records_new_total",
			Help:      "Total records inserted for the first time.",
		}),
		RecordsUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "facility_sync",
			Name:      "records_updated_total",
			Help:      "Total records updated by idempotent re-sync.",
		}),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "facility_sync",
			Name:      "runs_total",
			Help:      "Sync runs by category and terminal status.",
		}, []string{"category", "status"}),
		SyncRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "facility_sync",
			Name:      "sync_running",
			Help:      "1 while a sync invocation is active, 0 otherwise.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "facility_sync",
			Name:      "upsert_batch_size",
			Help:      "Number of records per committed upsert batch.",
			Buckets:   []float64{1, 5, 10, 25, 50, 75, 100},
		}),
		GeocodeLookups: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "facility_sync",
			Name:      "geocode_lookups_total",
			Help:      "Addresses submitted to the geocoding resolver.",
		}),
		GeocodeResolved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "facility_sync",
			Name:      "geocode_resolved_total",
			Help:      "Addresses successfully resolved to coordinates.",
		}),
	}

	prometheus.MustRegister(
		m.RowsFetched,
		m.RowsRejected,
		m.RecordsNew,
		m.RecordsUpdated,
		m.RunsTotal,
		m.SyncRunning,
		m.BatchSize,
		m.GeocodeLookups,
		m.GeocodeResolved,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RowsFetched:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "facility_sync", Name: "rows_fetched_total"}),
		RowsRejected:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "facility_sync", Name: "rows_rejected_total"}),
		RecordsNew:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "facility_sync", Name: "records_new_total"}),
		RecordsUpdated:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "facility_sync", Name: "records_updated_total"}),
		RunsTotal:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "facility_sync", Name: "runs_total"}, []string{"category", "status"}),
		SyncRunning:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "facility_sync", Name: "sync_running"}),
		BatchSize:       prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "facility_sync", Name: "upsert_batch_size"}),
		GeocodeLookups:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "facility_sync", Name: "geocode_lookups_total"}),
		GeocodeResolved: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "facility_sync", Name: "geocode_resolved_total"}),
	}
}
