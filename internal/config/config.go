package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Default open-API endpoints. Each can be overridden per environment, which
// also lets tests point a category at an httptest server.
const (
	defaultPharmacyURL = "https://apis.data.go.kr/B552657/ErmctInsttInfoInqireService/getParmacyFullDown"
	defaultHospitalURL = "https://apis.data.go.kr/B552657/HsptlAsembySearchService/getHsptlMdcncFullDown"
	defaultParkingURL  = "https://api.data.go.kr/openapi/tn_pubr_prkplce_info_api"
	defaultMarketURL   = "https://api.data.go.kr/openapi/tn_pubr_public_trditml_api"
	defaultEventURL    = "https://apis.data.go.kr/B553457/cultureinfo/period2"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DBPath   string
	DataDir  string
	HTTPAddr string // empty disables the ops server

	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Open-API fetching.
	ServiceKey   string
	PageSize     int
	FetchTimeout time.Duration
	PageDelay    time.Duration

	PharmacyURL string
	HospitalURL string
	ParkingURL  string
	MarketURL   string
	EventURL    string

	// Kakao geocoding.
	KakaoAPIKey       string
	KakaoEnabled      bool
	KakaoTimeout      time.Duration
	KakaoCacheSize    int
	GeocodeBatchSize  int
	GeocodeBatchDelay time.Duration

	// Upsert batching and orchestration pacing.
	BatchSize     int
	CategoryDelay time.Duration
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := parseDuration("FETCH_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	pageDelay, err := parseDuration("FETCH_PAGE_DELAY", "200ms")
	if err != nil {
		return nil, err
	}
	kakaoTimeout, err := parseDuration("KAKAO_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	geocodeDelay, err := parseDuration("GEOCODE_BATCH_DELAY", "200ms")
	if err != nil {
		return nil, err
	}
	categoryDelay, err := parseDuration("CATEGORY_DELAY", "1s")
	if err != nil {
		return nil, err
	}

	pageSize, err := parsePositiveInt("OPENAPI_PAGE_SIZE", 100)
	if err != nil {
		return nil, err
	}
	batchSize, err := parsePositiveInt("UPSERT_BATCH_SIZE", 100)
	if err != nil {
		return nil, err
	}
	geocodeBatch, err := parsePositiveInt("GEOCODE_BATCH_SIZE", 10)
	if err != nil {
		return nil, err
	}
	cacheSize, err := parsePositiveInt("KAKAO_CACHE_SIZE", 1000)
	if err != nil {
		return nil, err
	}

	kakaoKey := os.Getenv("KAKAO_API_KEY")
	kakaoEnabled := kakaoKey != ""
	if v := os.Getenv("KAKAO_ENABLED"); v != "" {
		kakaoEnabled = v == "true"
	}

	cfg := &Config{
		DBPath:   envOrDefault("FACILITY_DB", "data/facilities.db"),
		DataDir:  envOrDefault("DATA_DIR", "data/sources"),
		HTTPAddr: os.Getenv("HTTP_ADDR"),

		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		ServiceKey:   os.Getenv("OPENAPI_SERVICE_KEY"),
		PageSize:     pageSize,
		FetchTimeout: fetchTimeout,
		PageDelay:    pageDelay,

		PharmacyURL: envOrDefault("PHARMACY_API_URL", defaultPharmacyURL),
		HospitalURL: envOrDefault("HOSPITAL_API_URL", defaultHospitalURL),
		ParkingURL:  envOrDefault("PARKING_API_URL", defaultParkingURL),
		MarketURL:   envOrDefault("MARKET_API_URL", defaultMarketURL),
		EventURL:    envOrDefault("EVENT_API_URL", defaultEventURL),

		KakaoAPIKey:       kakaoKey,
		KakaoEnabled:      kakaoEnabled,
		KakaoTimeout:      kakaoTimeout,
		KakaoCacheSize:    cacheSize,
		GeocodeBatchSize:  geocodeBatch,
		GeocodeBatchDelay: geocodeDelay,

		BatchSize:     batchSize,
		CategoryDelay: categoryDelay,
	}

	if cfg.KakaoEnabled && cfg.KakaoAPIKey == "" {
		return nil, errors.New("KAKAO_ENABLED is true but KAKAO_API_KEY is not set")
	}
	if cfg.DBPath == "" {
		return nil, errors.New("FACILITY_DB is required")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	s := envOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return n, nil
}
