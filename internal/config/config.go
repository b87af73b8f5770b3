package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/kma-forecast/internal/forecast"
	"github.com/i474232898/kma-forecast/internal/regions"
)

type AppConfig struct {
	Port string

	KMAServiceKey  string
	KMABaseURL     string
	GeocoderAPIKey string

	// HTTPTimeout bounds a single outbound request; FetchTimeout bounds one
	// resolution's fetch including retries.
	HTTPTimeout        time.Duration
	FetchTimeout       time.Duration
	UpstreamMaxRetries int

	// Regions refreshed by the scheduler.
	TrackedRegions []string
	RefreshCron    string

	// In-memory store retention.
	StoreMaxHistory int           // max number of answers per region (0 = unlimited)
	StoreMaxAge     time.Duration // max age of answers (0 = unlimited)

	RegionsFile    string
	Vocabulary     string
	VocabularyFile string
	DefaultRegion  string
	FullDayCap     int

	UltraIssueMinute     int
	UltraAvailableMinute int

	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	return FromEnv()
}

// FromEnv reads configuration from the process environment only.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}
	var err error

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.KMAServiceKey = os.Getenv("KMA_SERVICE_KEY")
	cfg.KMABaseURL = os.Getenv("KMA_BASE_URL")
	cfg.GeocoderAPIKey = os.Getenv("GOOGLE_GEOCODER_API_KEY")

	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.FetchTimeout, err = getenvDuration("FETCH_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	cfg.UpstreamMaxRetries = getenvInt("UPSTREAM_MAX_RETRIES", 1)

	cfg.TrackedRegions = splitList(getenvDefault("TRACKED_REGIONS", "춘천,서울,노원"))
	cfg.RefreshCron = getenvDefault("REFRESH_CRON", "10 * * * *")

	// Store retention: a day of hourly refreshes.
	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 24)
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", 24*time.Hour); err != nil {
		return nil, err
	}

	cfg.RegionsFile = os.Getenv("REGIONS_FILE")
	cfg.Vocabulary = getenvDefault("VOCABULARY", "ko")
	cfg.VocabularyFile = os.Getenv("VOCABULARY_FILE")
	cfg.DefaultRegion = getenvDefault("DEFAULT_REGION", "춘천")
	cfg.FullDayCap = getenvInt("FULL_DAY_CAP", forecast.DefaultFullDayCap)

	def := forecast.DefaultScheduleTable().UltraForecast
	cfg.UltraIssueMinute = getenvInt("ULTRA_ISSUE_MINUTE", def.IssueMinute)
	cfg.UltraAvailableMinute = getenvInt("ULTRA_AVAILABLE_MINUTE", def.IssueMinute+int(def.Lag/time.Minute))

	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.LogFormat = getenvDefault("LOG_FORMAT", "json")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	if c.UltraIssueMinute < 0 || c.UltraIssueMinute > 59 {
		return fmt.Errorf("invalid ULTRA_ISSUE_MINUTE: %d", c.UltraIssueMinute)
	}
	if c.UltraAvailableMinute < c.UltraIssueMinute || c.UltraAvailableMinute-c.UltraIssueMinute >= 60 {
		return fmt.Errorf("invalid ULTRA_AVAILABLE_MINUTE: %d must be within an hour after ULTRA_ISSUE_MINUTE", c.UltraAvailableMinute)
	}
	if c.FullDayCap <= 0 {
		return fmt.Errorf("invalid FULL_DAY_CAP: %d", c.FullDayCap)
	}
	return nil
}

// ScheduleTable returns the default publication table with the configured
// ultra-short release applied.
func (c *AppConfig) ScheduleTable() forecast.ScheduleTable {
	t := forecast.DefaultScheduleTable()
	t.UltraForecast = forecast.HourlyRelease{
		IssueMinute: c.UltraIssueMinute,
		Lag:         time.Duration(c.UltraAvailableMinute-c.UltraIssueMinute) * time.Minute,
	}
	return t
}

// LoadVocabulary returns the vocabulary file when set, else the named built-in.
func (c *AppConfig) LoadVocabulary() (forecast.Vocabulary, error) {
	if c.VocabularyFile == "" {
		return forecast.BuiltinVocabulary(c.Vocabulary)
	}
	data, err := os.ReadFile(c.VocabularyFile)
	if err != nil {
		return forecast.Vocabulary{}, fmt.Errorf("read VOCABULARY_FILE: %w", err)
	}
	return forecast.ParseVocabularyYAML(data)
}

// LoadRegions returns the region file when set, else the built-in table.
func (c *AppConfig) LoadRegions() (*regions.Table, error) {
	if c.RegionsFile == "" {
		return regions.Default(), nil
	}
	return regions.Load(c.RegionsFile)
}

// NewResolver assembles the engine from this configuration.
func (c *AppConfig) NewResolver() (*forecast.Resolver, error) {
	sched, err := forecast.NewScheduler(c.ScheduleTable())
	if err != nil {
		return nil, err
	}
	vocab, err := c.LoadVocabulary()
	if err != nil {
		return nil, err
	}
	parser, err := forecast.NewParser(vocab)
	if err != nil {
		return nil, err
	}
	return forecast.NewResolver(sched, parser, forecast.NewSelector(c.FullDayCap)), nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
