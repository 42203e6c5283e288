// Command sync runs one full synchronization pass: it pulls every configured
// facility dataset, normalizes the rows, geocodes what needs it, and upserts
// the results into the local database. Exit status is non-zero when any
// category fails.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/jonboulle/clockwork"

	httpadapter "github.com/dongnemap/facility-sync/internal/adapter/http"
	"github.com/dongnemap/facility-sync/internal/config"
	"github.com/dongnemap/facility-sync/internal/domain"
	"github.com/dongnemap/facility-sync/internal/fetch"
	"github.com/dongnemap/facility-sync/internal/geocode"
	"github.com/dongnemap/facility-sync/internal/observability"
	"github.com/dongnemap/facility-sync/internal/pipeline"
	"github.com/dongnemap/facility-sync/internal/store/sqlitestore"
)

func main() {
	var (
		onlyFlag = flag.String("only", "", "comma-separated categories to sync (default: all)")
		skipFlag = flag.String("skip", "", "comma-separated categories to skip")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)

	include, err := parseCategories(*onlyFlag)
	if err != nil {
		logger.Error("invalid -only flag", "error", err)
		os.Exit(1)
	}
	exclude, err := parseCategories(*skipFlag)
	if err != nil {
		logger.Error("invalid -skip flag", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, logger, include, exclude); err != nil {
		logger.Error("sync failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, include, exclude []domain.Category) error {
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	store, err := sqlitestore.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	// Geocoding is feature-flagged. Without it, coordinate-less categories
	// still sync; their records just keep null coordinates.
	var resolver pipeline.AddressResolver
	if cfg.KakaoEnabled {
		client := geocode.NewClient(cfg.KakaoAPIKey, cfg.KakaoTimeout, logger)
		cached := geocode.NewCachedGeocoder(client, cfg.KakaoCacheSize)
		resolver = geocode.NewResolver(cached, cfg.GeocodeBatchSize, cfg.GeocodeBatchDelay, clock, logger)
		logger.Info("kakao geocoding enabled",
			"cache_size", cfg.KakaoCacheSize, "batch_size", cfg.GeocodeBatchSize)
	} else {
		logger.Info("kakao geocoding disabled")
	}

	if cfg.ServiceKey == "" {
		logger.Warn("OPENAPI_SERVICE_KEY is not set; API-sourced categories will fail")
	}

	fetchClient := fetch.NewClient(cfg.FetchTimeout, cfg.PageDelay, fetch.DefaultBackoff(), clock, logger)
	upserter := pipeline.NewUpserter(store, cfg.BatchSize, logger, metrics)
	tracker := pipeline.NewTracker(store, logger)
	regions := domain.DefaultRegionTable()

	var pipelines []*pipeline.Pipeline
	for _, cat := range domain.AllCategories() {
		source, sourceURL := categorySource(cfg, fetchClient, cat, logger)
		transformer, err := pipeline.NewTransformer(cat, regions, sourceURL)
		if err != nil {
			return err
		}

		var res pipeline.AddressResolver
		if cat.NeedsGeocoding() {
			res = resolver // may be nil when geocoding is disabled
		}
		pipelines = append(pipelines,
			pipeline.NewPipeline(source, transformer, res, upserter, tracker, logger, metrics))
	}

	orch := pipeline.NewOrchestrator(pipelines, cfg.CategoryDelay, clock, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *httpadapter.Server
	if cfg.HTTPAddr != "" {
		srv = httpadapter.NewServer(cfg.HTTPAddr, storeReadiness{store}, store, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	metrics.SyncRunning.Set(1)
	results := orch.Run(ctx, include, exclude)
	metrics.SyncRunning.Set(0)

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}

	var failed int
	for _, r := range results {
		if r.Success {
			logger.Info("category synced",
				"category", r.Category, "records", r.Count, "duration", r.Duration)
			continue
		}
		failed++
		logger.Error("category failed",
			"category", r.Category, "error", r.Err, "duration", r.Duration)
	}
	logger.Info("sync complete", "categories", len(results), "failed", failed)

	if failed > 0 {
		return fmt.Errorf("%d of %d categories failed", failed, len(results))
	}
	return nil
}

// categorySource maps a category to its configured row source. CSV datasets
// are periodic bulk downloads sitting under DataDir; the rest are paginated
// open-API endpoints.
func categorySource(cfg *config.Config, client *fetch.Client, cat domain.Category, logger *slog.Logger) (pipeline.RowSource, string) {
	apiEndpoint := func(baseURL string, format fetch.Format) (pipeline.RowSource, string) {
		return pipeline.APISource{
			Client: client,
			Endpoint: fetch.Endpoint{
				BaseURL:    baseURL,
				ServiceKey: cfg.ServiceKey,
				PageSize:   cfg.PageSize,
				Format:     format,
			},
			Logger: logger,
		}, baseURL
	}

	switch cat {
	case domain.CategoryPharmacy:
		return apiEndpoint(cfg.PharmacyURL, fetch.FormatJSON)
	case domain.CategoryHospital:
		return apiEndpoint(cfg.HospitalURL, fetch.FormatXML)
	case domain.CategoryParking:
		return apiEndpoint(cfg.ParkingURL, fetch.FormatJSON)
	case domain.CategoryMarket:
		return apiEndpoint(cfg.MarketURL, fetch.FormatJSON)
	case domain.CategoryEvent:
		return apiEndpoint(cfg.EventURL, fetch.FormatXML)
	default:
		path := filepath.Join(cfg.DataDir, string(cat)+".csv")
		return pipeline.FileSource{
			Path:      path,
			Delimiter: ',',
			Logger:    logger,
		}, path
	}
}

// storeReadiness reports ready once the database connection answers pings.
type storeReadiness struct {
	store *sqlitestore.Store
}

func (r storeReadiness) CheckReadiness(ctx context.Context) error {
	return r.store.Ping(ctx)
}

func parseCategories(s string) ([]domain.Category, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []domain.Category
	for _, part := range strings.Split(s, ",") {
		cat := domain.Category(strings.TrimSpace(part))
		if !cat.Valid() {
			return nil, fmt.Errorf("unknown category %q", part)
		}
		out = append(out, cat)
	}
	return out, nil
}
