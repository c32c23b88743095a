package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for jobdeck.
type Config struct {
	Database     DatabaseConfig
	Ingest       IngestConfig
	Boards       []BoardConfig
	Sources      SourcesConfig
	Queue        QueueConfig
	Worker       WorkerConfig
	HTTP         HTTPConfig
	RateLimits   map[string]RateLimitConfig
	Resolve      ResolveConfig
	Server       ServerConfig
	Schedule     ScheduleConfig
	Notification NotificationConfig
	Export       ExportConfig
	Keys         Keys
}

type DatabaseConfig struct {
	Path string
}

// IngestConfig controls the normalizer and deduplicator.
type IngestConfig struct {
	DedupWindow    time.Duration // trailing window searched for existing keys
	WriteBatchSize int           // rows per insert transaction
	AdapterTimeout time.Duration // per-adapter deadline within one run
	Filters        FilterConfig
}

// FilterConfig holds optional keyword and location filters applied before dedup.
type FilterConfig struct {
	TitleKeywords        []string `yaml:"title_keywords"`
	TitleExcludeKeywords []string `yaml:"title_exclude_keywords"`
	Locations            []string `yaml:"locations"`
	ExcludeLocations     []string `yaml:"exclude_locations"`
}

// BoardConfig describes a single company ATS board to ingest.
type BoardConfig struct {
	Name       string `yaml:"name"`
	ATS        string `yaml:"ats"`
	BoardToken string `yaml:"board_token"`
	WorkdayURL string `yaml:"workday_url"`
	Enabled    bool   `yaml:"enabled"`
}

// SourcesConfig tunes the aggregator adapters.
type SourcesConfig struct {
	Disabled      []string `yaml:"disabled"`        // adapter names to skip even when keys exist
	Query         string   `yaml:"query"`           // search phrase for keyed search APIs
	AdzunaCountry string   `yaml:"adzuna_country"`  // ISO country for Adzuna
	Limit         int      `yaml:"limit"`           // per-source cap on returned postings
	WorkdayMaxAge int      `yaml:"workday_max_age"` // days; workday and microsoft postings older than this are skipped
}

// IsDisabled reports whether the named adapter is switched off in config.
func (s SourcesConfig) IsDisabled(name string) bool {
	for _, d := range s.Disabled {
		if strings.EqualFold(d, name) {
			return true
		}
	}
	return false
}

type QueueConfig struct {
	BatchSize         int
	MaxRetries        int
	StuckAfter        time.Duration
	AutoRequeueFailed bool
}

type WorkerConfig struct {
	Concurrency int
	JobTimeout  time.Duration
}

type HTTPConfig struct {
	Timeout       time.Duration // adapters and enrichment APIs
	VerifyTimeout time.Duration // HEAD checks on images
}

// RateLimitConfig bounds calls to one external service. Zero disables a window.
type RateLimitConfig struct {
	PerSecond   int `yaml:"per_second"`
	PerMinute   int `yaml:"per_minute"`
	PerDay      int `yaml:"per_day"`
	MaxAttempts int `yaml:"max_attempts"`
}

type ResolveConfig struct {
	HunterMinConfidence int
	HeadshotPoolSize    int
	PhotoAllowedHosts   []string
}

type ServerConfig struct {
	Addr string
}

type ScheduleConfig struct {
	Interval   time.Duration
	MaxBatches int
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

// ExportConfig controls the optional S3 card export.
type ExportConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// rawConfig is used for YAML unmarshaling (snake_case fields and durations as strings).
type rawConfig struct {
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Ingest struct {
		DedupWindow    string       `yaml:"dedup_window"`
		WriteBatchSize int          `yaml:"write_batch_size"`
		AdapterTimeout string       `yaml:"adapter_timeout"`
		Filters        FilterConfig `yaml:"filters"`
	} `yaml:"ingest"`
	Boards  []BoardConfig `yaml:"boards"`
	Sources SourcesConfig `yaml:"sources"`
	Queue   struct {
		BatchSize         int    `yaml:"batch_size"`
		MaxRetries        int    `yaml:"max_retries"`
		StuckAfter        string `yaml:"stuck_after"`
		AutoRequeueFailed *bool  `yaml:"auto_requeue_failed"`
	} `yaml:"queue"`
	Worker struct {
		Concurrency int    `yaml:"concurrency"`
		JobTimeout  string `yaml:"job_timeout"`
	} `yaml:"worker"`
	HTTP struct {
		Timeout       string `yaml:"timeout"`
		VerifyTimeout string `yaml:"verify_timeout"`
	} `yaml:"http"`
	RateLimits map[string]RateLimitConfig `yaml:"rate_limits"`
	Resolve    struct {
		HunterMinConfidence int      `yaml:"hunter_min_confidence"`
		HeadshotPoolSize    int      `yaml:"headshot_pool_size"`
		PhotoAllowedHosts   []string `yaml:"photo_allowed_hosts"`
	} `yaml:"resolve"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Schedule struct {
		Interval   string `yaml:"interval"`
		MaxBatches int    `yaml:"max_batches"`
	} `yaml:"schedule"`
	Notification NotificationConfig `yaml:"notification"`
	Export       ExportConfig       `yaml:"export"`
}

// DefaultPhotoHosts are the image hosts a resolved contact photo may live on.
var DefaultPhotoHosts = []string{
	"media.licdn.com",
	"licdn.com",
	"gravatar.com",
	"generated.photos",
	"thispersondoesnotexist.com",
	"ui-avatars.com",
	"googleusercontent.com",
	"githubusercontent.com",
	"s3.us-west-000.backblazeb2.com",
}

// DefaultRateLimits are applied for services the config does not mention.
var DefaultRateLimits = map[string]RateLimitConfig{
	"hunter":           {PerSecond: 10, PerMinute: 300, MaxAttempts: 3},
	"proxycurl":        {PerSecond: 2, PerMinute: 300, MaxAttempts: 4},
	"generated_photos": {PerSecond: 1, PerMinute: 50, PerDay: 1000, MaxAttempts: 3},
	"clearbit":         {PerSecond: 10, PerMinute: 600, MaxAttempts: 2},
	"verify":           {PerSecond: 20, MaxAttempts: 1},
	"adzuna":           {PerSecond: 1, PerMinute: 25, PerDay: 250, MaxAttempts: 3},
	"jsearch":          {PerSecond: 1, PerMinute: 10, PerDay: 200, MaxAttempts: 3},
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg, _ := fromRaw(rawConfig{})
	return cfg
}

// Load reads and parses the YAML config file at path, validates it, and
// returns Config. Environment keys are read separately by LoadKeys.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// LoadOrDefault behaves like Load but returns defaults when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Parse parses YAML config bytes.
func Parse(data []byte) (*Config, error) {
	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg, err := fromRaw(raw)
	if err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromRaw(raw rawConfig) (*Config, error) {
	var err error
	cfg := &Config{
		Database: DatabaseConfig{Path: raw.Database.Path},
		Ingest: IngestConfig{
			WriteBatchSize: raw.Ingest.WriteBatchSize,
			Filters:        raw.Ingest.Filters,
		},
		Boards:  raw.Boards,
		Sources: raw.Sources,
		Queue: QueueConfig{
			BatchSize:         raw.Queue.BatchSize,
			MaxRetries:        raw.Queue.MaxRetries,
			AutoRequeueFailed: true,
		},
		Worker:       WorkerConfig{Concurrency: raw.Worker.Concurrency},
		RateLimits:   make(map[string]RateLimitConfig),
		Server:       ServerConfig{Addr: raw.Server.Addr},
		Schedule:     ScheduleConfig{MaxBatches: raw.Schedule.MaxBatches},
		Notification: raw.Notification,
		Export:       raw.Export,
		Resolve: ResolveConfig{
			HunterMinConfidence: raw.Resolve.HunterMinConfidence,
			HeadshotPoolSize:    raw.Resolve.HeadshotPoolSize,
			PhotoAllowedHosts:   raw.Resolve.PhotoAllowedHosts,
		},
	}
	if raw.Queue.AutoRequeueFailed != nil {
		cfg.Queue.AutoRequeueFailed = *raw.Queue.AutoRequeueFailed
	}

	if cfg.Ingest.DedupWindow, err = parseDuration("ingest.dedup_window", raw.Ingest.DedupWindow, 30*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.Ingest.AdapterTimeout, err = parseDuration("ingest.adapter_timeout", raw.Ingest.AdapterTimeout, 45*time.Second); err != nil {
		return nil, err
	}
	if cfg.Queue.StuckAfter, err = parseDuration("queue.stuck_after", raw.Queue.StuckAfter, 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.Worker.JobTimeout, err = parseDuration("worker.job_timeout", raw.Worker.JobTimeout, 90*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTP.Timeout, err = parseDuration("http.timeout", raw.HTTP.Timeout, 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTP.VerifyTimeout, err = parseDuration("http.verify_timeout", raw.HTTP.VerifyTimeout, 4*time.Second); err != nil {
		return nil, err
	}
	if cfg.Schedule.Interval, err = parseDuration("schedule.interval", raw.Schedule.Interval, 30*time.Minute); err != nil {
		return nil, err
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = "jobdeck.db"
	}
	if cfg.Ingest.WriteBatchSize <= 0 {
		cfg.Ingest.WriteBatchSize = 400
	}
	if cfg.Sources.Query == "" {
		cfg.Sources.Query = "software engineer"
	}
	if cfg.Sources.AdzunaCountry == "" {
		cfg.Sources.AdzunaCountry = "us"
	}
	if cfg.Sources.Limit <= 0 {
		cfg.Sources.Limit = 100
	}
	if cfg.Sources.WorkdayMaxAge <= 0 {
		cfg.Sources.WorkdayMaxAge = 7
	}
	if cfg.Queue.BatchSize <= 0 {
		cfg.Queue.BatchSize = 10
	}
	if cfg.Queue.MaxRetries <= 0 {
		cfg.Queue.MaxRetries = 3
	}
	if cfg.Worker.Concurrency <= 0 {
		cfg.Worker.Concurrency = 3
	}
	if cfg.Resolve.HunterMinConfidence <= 0 {
		cfg.Resolve.HunterMinConfidence = 70
	}
	if cfg.Resolve.HeadshotPoolSize <= 0 {
		cfg.Resolve.HeadshotPoolSize = 20
	}
	if len(cfg.Resolve.PhotoAllowedHosts) == 0 {
		cfg.Resolve.PhotoAllowedHosts = DefaultPhotoHosts
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Schedule.MaxBatches <= 0 {
		cfg.Schedule.MaxBatches = 10
	}
	if cfg.Notification.Type == "" {
		cfg.Notification.Type = "log"
	}
	if cfg.Export.Prefix == "" {
		cfg.Export.Prefix = "cards"
	}

	for name, rl := range DefaultRateLimits {
		cfg.RateLimits[name] = rl
	}
	for name, rl := range raw.RateLimits {
		if rl.MaxAttempts <= 0 {
			rl.MaxAttempts = 3
		}
		cfg.RateLimits[name] = rl
	}

	return cfg, nil
}

func parseDuration(field, value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, value, err)
	}
	return d, nil
}

// RateLimitFor returns the limits configured for service, or a permissive default.
func (c *Config) RateLimitFor(service string) RateLimitConfig {
	if rl, ok := c.RateLimits[service]; ok {
		return rl
	}
	return RateLimitConfig{PerSecond: 5, MaxAttempts: 3}
}

func validate(cfg *Config) error {
	if cfg.Ingest.DedupWindow <= 0 {
		return fmt.Errorf("ingest.dedup_window must be positive, got %v", cfg.Ingest.DedupWindow)
	}
	if cfg.Queue.MaxRetries > 20 {
		return fmt.Errorf("queue.max_retries must be at most 20, got %d", cfg.Queue.MaxRetries)
	}
	if cfg.Worker.Concurrency > 32 {
		return fmt.Errorf("worker.concurrency must be at most 32, got %d", cfg.Worker.Concurrency)
	}
	if cfg.Schedule.Interval < time.Minute {
		return fmt.Errorf("schedule.interval must be at least 1m, got %v", cfg.Schedule.Interval)
	}

	for _, b := range cfg.Boards {
		switch b.ATS {
		case "greenhouse", "lever", "ashby", "gem":
			if b.Enabled && b.BoardToken == "" {
				return fmt.Errorf("board %q: board_token is required for %s", b.Name, b.ATS)
			}
		case "workday":
			if b.Enabled && b.WorkdayURL == "" {
				return fmt.Errorf("board %q: workday_url is required for workday", b.Name)
			}
		case "microsoft":
		default:
			return fmt.Errorf("board %q: unsupported ats %q", b.Name, b.ATS)
		}
	}

	switch cfg.Notification.Type {
	case "log":
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	default:
		return fmt.Errorf("notification.type must be \"log\" or \"slack\", got %q", cfg.Notification.Type)
	}

	if cfg.Export.Enabled && cfg.Export.Bucket == "" {
		return fmt.Errorf("export.bucket is required when export.enabled is true")
	}

	return nil
}
