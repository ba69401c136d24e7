package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures runtime configuration for the report exporter API and CLI.
type Config struct {
	HTTP      HTTPConfig
	Source    SourceConfig
	Database  DatabaseConfig
	Fonts     FontsConfig
	Report    ReportConfig
	Telemetry TelemetryConfig
	Service   ServiceConfig
}

type HTTPConfig struct {
	Port          int
	ShutdownGrace int
}

// SourceConfig selects where orders are read from.
type SourceConfig struct {
	Kind         string
	BackendURL   string
	PageLimit    int
	FetchTimeout time.Duration
}

type DatabaseConfig struct {
	URL            string
	AutoMigrate    bool
	MigrationsPath string
}

type FontsConfig struct {
	PrimaryURL   string
	SecondaryURL string
	FetchTimeout time.Duration
	CacheTTL     time.Duration
}

type ReportConfig struct {
	Renderer   string
	OutputDir  string
	Locale     string
	DateLayout string
	Timezone   string
}

type TelemetryConfig struct {
	LogLevel      string
	OTelEndpoint  string
	EnableTracing bool
	EnableMetrics bool
	SampleRate    float64
}

type ServiceConfig struct {
	Name        string
	Version     string
	Environment string
}

const (
	SourceREST     = "rest"
	SourcePostgres = "postgres"
	SourceMemory   = "memory"

	RendererTable = "table"
	RendererGrid  = "grid"
)

const (
	defaultHTTPPort       = 8080
	defaultShutdownGrace  = 15
	defaultBackendURL     = "http://localhost:5000"
	defaultPageLimit      = 10
	defaultFetchTimeout   = 30 * time.Second
	defaultFontCacheTTL   = 24 * time.Hour
	defaultMigrationsPath = "migrations"
	defaultAutoMigrate    = false
	defaultOutputDir      = "."
	defaultLocale         = "en-US"
	defaultDateLayout     = "1/2/2006"
	defaultTimezone       = "UTC"
	defaultServiceName    = "orderreport-api"
	defaultServiceVersion = "0.1.0"
	defaultEnvironment    = "development"
	defaultLogLevel       = "info"
	defaultOTelSampleRate = 1.0

	DefaultPrimaryFontURL   = "https://fonts.gstatic.com/s/amiri/v16/J7aRnpd8CGxBHpUrtLMA7w.ttf"
	DefaultSecondaryFontURL = "https://fonts.gstatic.com/s/notonaskharabic/v1/RWmBoL3J3LtZRdbA_ehuqg6hAQJ9NwM.ttf"
)

// Load reads configuration from environment variables, applying defaults when needed.
func Load() (*Config, error) {
	httpCfg, err := loadHTTPConfig()
	if err != nil {
		return nil, fmt.Errorf("loading HTTP config: %w", err)
	}

	sourceCfg, err := loadSourceConfig()
	if err != nil {
		return nil, fmt.Errorf("loading source config: %w", err)
	}

	fontsCfg, err := loadFontsConfig()
	if err != nil {
		return nil, fmt.Errorf("loading fonts config: %w", err)
	}

	reportCfg, err := loadReportConfig()
	if err != nil {
		return nil, fmt.Errorf("loading report config: %w", err)
	}

	telCfg, err := loadTelemetryConfig()
	if err != nil {
		return nil, fmt.Errorf("loading telemetry config: %w", err)
	}

	return &Config{
		HTTP:      httpCfg,
		Source:    sourceCfg,
		Database:  loadDatabaseConfig(),
		Fonts:     fontsCfg,
		Report:    reportCfg,
		Telemetry: telCfg,
		Service:   loadServiceConfig(),
	}, nil
}

// FontURLs lists the configured font sources in fallback order.
func (c FontsConfig) FontURLs() []string {
	var urls []string
	for _, u := range []string{c.PrimaryURL, c.SecondaryURL} {
		if u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

func loadHTTPConfig() (HTTPConfig, error) {
	port, err := getIntEnv("API_HTTP_PORT", defaultHTTPPort)
	if err != nil {
		return HTTPConfig{}, err
	}

	shutdownGrace, err := getIntEnv("API_SHUTDOWN_GRACE_SECONDS", defaultShutdownGrace)
	if err != nil {
		return HTTPConfig{}, err
	}

	return HTTPConfig{
		Port:          port,
		ShutdownGrace: shutdownGrace,
	}, nil
}

func loadSourceConfig() (SourceConfig, error) {
	kind := strings.ToLower(getEnvOrDefault("ORDER_SOURCE", SourceREST))
	switch kind {
	case SourceREST, SourcePostgres, SourceMemory:
	default:
		return SourceConfig{}, fmt.Errorf("invalid ORDER_SOURCE %q", kind)
	}

	pageLimit, err := getIntEnv("ORDER_PAGE_LIMIT", defaultPageLimit)
	if err != nil {
		return SourceConfig{}, err
	}
	if pageLimit < 1 {
		return SourceConfig{}, fmt.Errorf("invalid ORDER_PAGE_LIMIT: must be positive, got %d", pageLimit)
	}

	fetchTimeout, err := getDurationEnv("ORDER_FETCH_TIMEOUT", defaultFetchTimeout)
	if err != nil {
		return SourceConfig{}, err
	}

	return SourceConfig{
		Kind:         kind,
		BackendURL:   strings.TrimRight(getEnvOrDefault("BACKEND_URL", defaultBackendURL), "/"),
		PageLimit:    pageLimit,
		FetchTimeout: fetchTimeout,
	}, nil
}

func loadDatabaseConfig() DatabaseConfig {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		databaseURL = buildDatabaseURL()
	}

	return DatabaseConfig{
		URL:            databaseURL,
		AutoMigrate:    getBoolEnv("AUTO_MIGRATE", defaultAutoMigrate),
		MigrationsPath: getEnvOrDefault("MIGRATIONS_PATH", defaultMigrationsPath),
	}
}

func loadFontsConfig() (FontsConfig, error) {
	fetchTimeout, err := getDurationEnv("FONT_FETCH_TIMEOUT", defaultFetchTimeout)
	if err != nil {
		return FontsConfig{}, err
	}

	cacheTTL, err := getDurationEnv("FONT_CACHE_TTL", defaultFontCacheTTL)
	if err != nil {
		return FontsConfig{}, err
	}

	return FontsConfig{
		PrimaryURL:   lookupOrDefault("FONT_PRIMARY_URL", DefaultPrimaryFontURL),
		SecondaryURL: lookupOrDefault("FONT_SECONDARY_URL", DefaultSecondaryFontURL),
		FetchTimeout: fetchTimeout,
		CacheTTL:     cacheTTL,
	}, nil
}

func loadReportConfig() (ReportConfig, error) {
	renderer := strings.ToLower(getEnvOrDefault("REPORT_RENDERER", RendererTable))
	switch renderer {
	case RendererTable, RendererGrid:
	default:
		return ReportConfig{}, fmt.Errorf("invalid REPORT_RENDERER %q", renderer)
	}

	timezone := getEnvOrDefault("REPORT_TIMEZONE", defaultTimezone)
	if _, err := time.LoadLocation(timezone); err != nil {
		return ReportConfig{}, fmt.Errorf("invalid REPORT_TIMEZONE: %w", err)
	}

	return ReportConfig{
		Renderer:   renderer,
		OutputDir:  getEnvOrDefault("REPORT_OUTPUT_DIR", defaultOutputDir),
		Locale:     getEnvOrDefault("REPORT_LOCALE", defaultLocale),
		DateLayout: getEnvOrDefault("REPORT_DATE_LAYOUT", defaultDateLayout),
		Timezone:   timezone,
	}, nil
}

func loadTelemetryConfig() (TelemetryConfig, error) {
	sampleRate := defaultOTelSampleRate
	if value, ok := os.LookupEnv("OTEL_SAMPLE_RATE"); ok {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return TelemetryConfig{}, fmt.Errorf("invalid OTEL_SAMPLE_RATE: %w", err)
		}
		sampleRate = parsed
	}

	return TelemetryConfig{
		LogLevel:      getEnvOrDefault("LOG_LEVEL", defaultLogLevel),
		OTelEndpoint:  getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		EnableTracing: getBoolEnv("OTEL_ENABLE_TRACING", true),
		EnableMetrics: getBoolEnv("OTEL_ENABLE_METRICS", true),
		SampleRate:    sampleRate,
	}, nil
}

func loadServiceConfig() ServiceConfig {
	return ServiceConfig{
		Name:        getEnvOrDefault("API_SERVICE_NAME", defaultServiceName),
		Version:     getEnvOrDefault("SERVICE_VERSION", defaultServiceVersion),
		Environment: getEnvOrDefault("ENVIRONMENT", defaultEnvironment),
	}
}

func buildDatabaseURL() string {
	host := getEnvOrDefault("DB_HOST", "localhost")
	port := getEnvOrDefault("DB_PORT", "5432")
	user := getEnvOrDefault("DB_USER", "postgres")
	password := getEnvOrDefault("DB_PASSWORD", "postgres")
	dbName := getEnvOrDefault("DB_NAME", "orders")
	sslMode := getEnvOrDefault("DB_SSLMODE", "disable")
	maxConns := getEnvOrDefault("DB_MAX_CONNS", "10")

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&pool_max_conns=%s",
		user, password, host, port, dbName, sslMode, maxConns,
	)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// lookupOrDefault treats an explicitly empty variable as "disabled".
func lookupOrDefault(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		return value == "true"
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

// getDurationEnv accepts Go durations ("30s") or a plain number of seconds.
func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue, nil
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}
