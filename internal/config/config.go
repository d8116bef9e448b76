package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kjstillabower/seattle-weather-dashboard/internal/dataset"
)

// Config holds service configuration loaded from YAML and env.
type Config struct {
	ServerPort string

	DatasetSource         string // "url", "csv" or "sqlite"
	DatasetURL            string
	DatasetPath           string
	DatasetSQLitePath     string
	DatasetTimeout        time.Duration
	DatasetRetryAttempts  int
	DatasetRetryBaseDelay time.Duration
	DatasetRetryMaxDelay  time.Duration

	// Zero CurrentYear means the latest year in the table; zero PreviousYear means CurrentYear-1.
	CurrentYear  int
	PreviousYear int

	IconPolicy   string // "fallback" or "strict"
	IconFallback string

	WindWindowDays int
	LegendOrient   string

	RequestTimeout time.Duration
	CacheTTL       time.Duration
	CacheBackend   string // "in_memory", "memcached" or "none"
	CacheWarm      bool

	MemcachedAddrs        string
	MemcachedTimeout      time.Duration
	MemcachedMaxIdleConns int

	RateLimitRPS   int
	RateLimitBurst int

	ShutdownTimeout time.Duration
}

type fileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Dataset struct {
		Source     string `yaml:"source"`
		URL        string `yaml:"url"`
		Path       string `yaml:"path"`
		SQLitePath string `yaml:"sqlite_path"`
		Timeout    string `yaml:"timeout"`
		Retry      struct {
			MaxAttempts int    `yaml:"max_attempts"`
			BaseDelay   string `yaml:"base_delay"`
			MaxDelay    string `yaml:"max_delay"`
		} `yaml:"retry"`
	} `yaml:"dataset"`

	Summary struct {
		CurrentYear  *int `yaml:"current_year"`
		PreviousYear *int `yaml:"previous_year"`
	} `yaml:"summary"`

	Icons struct {
		UnknownPolicy string `yaml:"unknown_policy"`
		Fallback      string `yaml:"fallback"`
	} `yaml:"icons"`

	Charts struct {
		WindWindowDays int    `yaml:"wind_window_days"`
		LegendOrient   string `yaml:"legend_orient"`
	} `yaml:"charts"`

	Request struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"request"`

	Cache struct {
		Backend   string `yaml:"backend"`
		TTL       string `yaml:"ttl"`
		Warm      *bool  `yaml:"warm"`
		Memcached struct {
			Addrs        string `yaml:"addrs"`
			Timeout      string `yaml:"timeout"`
			MaxIdleConns int    `yaml:"max_idle_conns"`
		} `yaml:"memcached"`
	} `yaml:"cache"`

	Reliability struct {
		RateLimitRPS   int `yaml:"rate_limit_rps"`
		RateLimitBurst int `yaml:"rate_limit_burst"`
	} `yaml:"reliability"`

	Shutdown struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"shutdown"`
}

// Load reads configuration from config/{ENV_NAME}.yaml (default dev) relative to the
// working directory, then applies env overrides. Call from project root.
func Load() (*Config, error) {
	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Config, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg := &Config{}

	cfg.ServerPort = envOr("SERVER_PORT", fc.Server.Port)
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}

	cfg.DatasetSource = strings.ToLower(envOr("DATASET_SOURCE", fc.Dataset.Source))
	if cfg.DatasetSource == "" {
		cfg.DatasetSource = "url"
	}
	cfg.DatasetURL = envOr("DATASET_URL", fc.Dataset.URL)
	if cfg.DatasetURL == "" {
		cfg.DatasetURL = dataset.DefaultURL
	}
	cfg.DatasetPath = envOr("DATASET_PATH", fc.Dataset.Path)
	if cfg.DatasetPath == "" {
		cfg.DatasetPath = "data/seattle-weather.csv"
	}
	cfg.DatasetSQLitePath = strings.TrimSpace(fc.Dataset.SQLitePath)
	if cfg.DatasetSQLitePath == "" {
		cfg.DatasetSQLitePath = "data/seattle-weather.db"
	}
	cfg.DatasetTimeout = parseDuration(fc.Dataset.Timeout, 10*time.Second)
	cfg.DatasetRetryAttempts = fc.Dataset.Retry.MaxAttempts
	if cfg.DatasetRetryAttempts <= 0 {
		cfg.DatasetRetryAttempts = 3
	}
	cfg.DatasetRetryBaseDelay = parseDuration(fc.Dataset.Retry.BaseDelay, 200*time.Millisecond)
	cfg.DatasetRetryMaxDelay = parseDuration(fc.Dataset.Retry.MaxDelay, 2*time.Second)

	cfg.CurrentYear = 2015
	if fc.Summary.CurrentYear != nil {
		cfg.CurrentYear = *fc.Summary.CurrentYear
	}
	cfg.PreviousYear = 2014
	if fc.Summary.PreviousYear != nil {
		cfg.PreviousYear = *fc.Summary.PreviousYear
	}

	cfg.IconPolicy = strings.ToLower(strings.TrimSpace(fc.Icons.UnknownPolicy))
	if cfg.IconPolicy == "" {
		cfg.IconPolicy = "fallback"
	}
	cfg.IconFallback = strings.TrimSpace(fc.Icons.Fallback)

	cfg.WindWindowDays = fc.Charts.WindWindowDays
	if cfg.WindWindowDays == 0 {
		cfg.WindWindowDays = 15
	}
	cfg.LegendOrient = strings.TrimSpace(fc.Charts.LegendOrient)
	if cfg.LegendOrient == "" {
		cfg.LegendOrient = "bottom"
	}

	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 5*time.Second)
	cfg.CacheTTL = parseDuration(fc.Cache.TTL, 10*time.Minute)
	cfg.CacheBackend = strings.ToLower(envOr("CACHE_BACKEND", fc.Cache.Backend))
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = "in_memory"
	}
	cfg.CacheWarm = true
	if fc.Cache.Warm != nil {
		cfg.CacheWarm = *fc.Cache.Warm
	}
	cfg.MemcachedAddrs = envOr("MEMCACHED_ADDRS", fc.Cache.Memcached.Addrs)
	if cfg.MemcachedAddrs == "" {
		cfg.MemcachedAddrs = "localhost:11211"
	}
	cfg.MemcachedTimeout = parseDuration(fc.Cache.Memcached.Timeout, 500*time.Millisecond)
	cfg.MemcachedMaxIdleConns = fc.Cache.Memcached.MaxIdleConns
	if cfg.MemcachedMaxIdleConns <= 0 {
		cfg.MemcachedMaxIdleConns = 2
	}

	cfg.RateLimitRPS = fc.Reliability.RateLimitRPS
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 50
	}
	cfg.RateLimitBurst = fc.Reliability.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 100
	}

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envOr returns the trimmed env var when set, else the trimmed file value.
func envOr(key, fileVal string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return strings.TrimSpace(fileVal)
}

// parseDuration parses a duration string and returns defaultVal if parsing fails or result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

// validate performs post-load validation of configuration values.
func validate(cfg *Config) error {
	switch cfg.DatasetSource {
	case "url", "csv", "sqlite":
	default:
		return fmt.Errorf("dataset.source must be url, csv or sqlite, got %q", cfg.DatasetSource)
	}
	switch cfg.CacheBackend {
	case "in_memory", "memcached", "none":
	default:
		return fmt.Errorf("cache.backend must be in_memory, memcached or none, got %q", cfg.CacheBackend)
	}
	switch cfg.IconPolicy {
	case "fallback", "strict":
	default:
		return fmt.Errorf("icons.unknown_policy must be fallback or strict, got %q", cfg.IconPolicy)
	}
	if cfg.WindWindowDays < 1 {
		return fmt.Errorf("charts.wind_window_days must be at least 1, got %d", cfg.WindWindowDays)
	}
	if cfg.CurrentYear < 0 || cfg.PreviousYear < 0 {
		return fmt.Errorf("summary years must not be negative")
	}
	if cfg.CurrentYear != 0 && cfg.PreviousYear != 0 && cfg.PreviousYear == cfg.CurrentYear {
		return fmt.Errorf("summary.previous_year must differ from summary.current_year (%d)", cfg.CurrentYear)
	}
	return nil
}
