package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a configuration file.
func Load(_ context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks a configuration for errors and fills in defaults for
// zero-valued fields.
func Validate(cfg *Config) error {
	if err := validateAnalysis(&cfg.Analysis); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}

	if err := validateTiming(&cfg.Timing); err != nil {
		return fmt.Errorf("timing: %w", err)
	}

	if cfg.Export.ClickHouse != nil {
		if err := validateClickHouse(cfg.Export.ClickHouse); err != nil {
			return fmt.Errorf("export.clickhouse: %w", err)
		}
	}

	for i := range cfg.Webhooks {
		if err := validateWebhook(&cfg.Webhooks[i]); err != nil {
			name := cfg.Webhooks[i].Name
			if name == "" {
				name = cfg.Webhooks[i].URL
			}
			return fmt.Errorf("webhooks[%d] (%s): %w", i, name, err)
		}
	}

	switch cfg.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: invalid level %q (must be debug, info, warn, or error)", cfg.Logging.Level)
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}

	return nil
}

func validateAnalysis(a *AnalysisConfig) error {
	if a.SlowQueryThresholdMS < 0 {
		return errors.New("slow_query_threshold_ms must not be negative")
	}
	if a.SlowQueryThresholdMS == 0 {
		a.SlowQueryThresholdMS = DefaultSlowQueryThresholdMS
	}
	if a.MaxSlowQueries < 0 || a.MaxFrequentQueries < 0 {
		return errors.New("query list caps must not be negative")
	}
	if a.MaxSlowQueries == 0 {
		a.MaxSlowQueries = DefaultMaxSlowQueries
	}
	if a.MaxFrequentQueries == 0 {
		a.MaxFrequentQueries = DefaultMaxFrequentQueries
	}
	return nil
}

func validateTiming(t *TimingConfig) error {
	if t.DailyBucket < 0 {
		return errors.New("daily_bucket must not be negative")
	}
	if t.DailyBucket == 0 {
		t.DailyBucket = DefaultDailyBucket
	}
	return nil
}

func validateClickHouse(ch *ClickHouseConfig) error {
	if ch.Address == "" {
		return errors.New("address is required")
	}
	if ch.Database == "" {
		return errors.New("database is required")
	}
	switch ch.Protocol {
	case "":
		ch.Protocol = DefaultClickHouseProtocol
	case "native", "http":
	default:
		return fmt.Errorf("invalid protocol %q (must be native or http)", ch.Protocol)
	}
	if ch.Table == "" {
		ch.Table = DefaultClickHouseTable
	}
	if ch.BatchSize < 0 {
		return errors.New("batch_size must not be negative")
	}
	if ch.BatchSize == 0 {
		ch.BatchSize = DefaultClickHouseBatchSize
	}
	ch.Password = expandEnvVar(ch.Password)
	return nil
}

func validateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	u, err := url.Parse(wh.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("url must have a host")
	}

	wh.Token = expandEnvVar(wh.Token)

	switch wh.Trigger {
	case "":
		wh.Trigger = WebhookTriggerOnErrors
	case WebhookTriggerOnErrors, WebhookTriggerAlways, WebhookTriggerNever:
	default:
		return fmt.Errorf("invalid trigger %q (must be on_errors, always, or never)", wh.Trigger)
	}

	if wh.Timeout <= 0 {
		wh.Timeout = DefaultWebhookTimeout
	}

	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if s == "" {
		return s
	}

	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}

	if strings.HasPrefix(s, "$") {
		return os.Getenv(s[1:])
	}

	return s
}
