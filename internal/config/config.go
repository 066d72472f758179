// Package config loads and validates application configuration.
// Values are layered: built-in defaults, then an optional YAML file named by
// CONFIG_FILE, then environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds all configuration values for the API server.
// Each koanf key is the lower-cased name of its environment variable.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string `koanf:"port"`

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string `koanf:"cors_origins"`

	// StoreDriver selects the waiting-pool backend: "postgres" or "memory".
	StoreDriver string `koanf:"store_driver"`

	// DatabaseURL is the Postgres connection string. Required for postgres.
	DatabaseURL string `koanf:"database_url"`

	GroupSize           int     `koanf:"group_size"`
	SimilarityThreshold float64 `koanf:"similarity_threshold"`

	// MaxPoolPerSlot caps how many users may wait for one meeting time,
	// which bounds the group search.
	MaxPoolPerSlot int `koanf:"max_pool_per_slot"`

	// MaxBodyBytes limits request bodies.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	// GeminiAPIKey enables answer scoring; without it every answer scores 0.
	GeminiAPIKey string `koanf:"gemini_api_key"`
	GeminiModel  string `koanf:"gemini_model"`

	// SMTPHost enables email notification; without it notifications are
	// only logged.
	SMTPHost     string `koanf:"smtp_host"`
	SMTPPort     int    `koanf:"smtp_port"`
	SMTPUsername string `koanf:"smtp_username"`
	SMTPPassword string `koanf:"smtp_password"`
	SMTPFrom     string `koanf:"smtp_from"`

	// MeetingTimezone is the IANA zone meeting times are written in.
	MeetingTimezone string        `koanf:"meeting_timezone"`
	MeetingDuration time.Duration `koanf:"meeting_duration"`
	NotifyTimeout   time.Duration `koanf:"notify_timeout"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() Config {
	return Config{
		Port:                "8080",
		LogLevel:            "info",
		CORSOrigins:         []string{"http://localhost:5173"},
		StoreDriver:         StorePostgres,
		GroupSize:           5,
		SimilarityThreshold: 1.0,
		MaxPoolPerSlot:      25,
		MaxBodyBytes:        1 << 20,
		GeminiModel:         "gemini-2.5-flash",
		SMTPPort:            587,
		MeetingTimezone:     "UTC",
		MeetingDuration:     2 * time.Hour,
		NotifyTimeout:       10 * time.Second,
	}
}

// Load builds a Config by layering defaults, the optional CONFIG_FILE, and
// environment variables. Empty environment variables are ignored so they
// never blank out a default. Returns an error naming every missing or invalid
// setting.
func Load() (Config, error) {
	k := koanf.New(".")

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("config.Load: read %s: %w", path, err)
		}
	}

	known := knownKeys()
	envProvider := env.ProviderWithValue("", ".", func(key, value string) (string, any) {
		key = strings.ToLower(key)
		if _, ok := known[key]; !ok || strings.TrimSpace(value) == "" {
			return "", nil
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, fmt.Errorf("config.Load: environment: %w", err)
	}

	cfg := Defaults()
	cfg.CORSOrigins = nil
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("config.Load: %w", err)
	}
	if cfg.CORSOrigins = splitCSV(cfg.CORSOrigins); len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = Defaults().CORSOrigins
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Location resolves MeetingTimezone. Load has already validated it.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.MeetingTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c Config) validate() error {
	var missing, invalid []string

	switch c.StoreDriver {
	case StorePostgres:
		if c.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case StoreMemory:
	default:
		invalid = append(invalid, fmt.Sprintf("STORE_DRIVER must be %q or %q, got %q", StorePostgres, StoreMemory, c.StoreDriver))
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, strings.ToLower(c.LogLevel)) {
		invalid = append(invalid, fmt.Sprintf("LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel))
	}
	if c.GroupSize < 2 {
		invalid = append(invalid, fmt.Sprintf("GROUP_SIZE must be at least 2, got %d", c.GroupSize))
	}
	if c.SimilarityThreshold < 0 {
		invalid = append(invalid, fmt.Sprintf("SIMILARITY_THRESHOLD must not be negative, got %g", c.SimilarityThreshold))
	}
	if c.MaxPoolPerSlot < c.GroupSize {
		invalid = append(invalid, fmt.Sprintf("MAX_POOL_PER_SLOT (%d) must be at least GROUP_SIZE (%d)", c.MaxPoolPerSlot, c.GroupSize))
	}
	if c.MaxBodyBytes <= 0 {
		invalid = append(invalid, "MAX_BODY_BYTES must be positive")
	}
	if c.SMTPHost != "" && c.SMTPFrom == "" {
		missing = append(missing, "SMTP_FROM")
	}
	if _, err := time.LoadLocation(c.MeetingTimezone); err != nil {
		invalid = append(invalid, fmt.Sprintf("MEETING_TIMEZONE %q: %v", c.MeetingTimezone, err))
	}
	if c.MeetingDuration <= 0 {
		invalid = append(invalid, "MEETING_DURATION must be positive")
	}

	var errs []error
	if len(missing) > 0 {
		errs = append(errs, fmt.Errorf("required settings not set: %s", strings.Join(missing, ", ")))
	}
	for _, msg := range invalid {
		errs = append(errs, errors.New(msg))
	}
	return errors.Join(errs...)
}

// knownKeys is the set of koanf keys Config understands.
func knownKeys() map[string]struct{} {
	keys := []string{
		"port", "log_level", "cors_origins", "store_driver", "database_url",
		"group_size", "similarity_threshold", "max_pool_per_slot", "max_body_bytes",
		"gemini_api_key", "gemini_model",
		"smtp_host", "smtp_port", "smtp_username", "smtp_password", "smtp_from",
		"meeting_timezone", "meeting_duration", "notify_timeout",
	}
	out := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		out[k] = struct{}{}
	}
	return out
}

// splitCSV splits every entry on commas into a trimmed slice, ignoring empty
// entries. An env var arrives as one comma-separated string; a YAML list
// arrives already split.
func splitCSV(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if t := strings.TrimSpace(part); t != "" {
				out = append(out, t)
			}
		}
	}
	return out
}
