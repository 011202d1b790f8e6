package config

import (
	"os"
	"strings"
	"time"
)

// Default values for configuration.
const (
	DefaultSlowQueryThresholdMS = 1000.0
	DefaultMaxSlowQueries       = 10
	DefaultMaxFrequentQueries   = 20
	DefaultDailyBucket          = 24 * time.Hour
	DefaultWebhookTimeout       = 10 * time.Second
	DefaultClickHouseTable      = "pg_log_entries"
	DefaultClickHouseProtocol   = "native"
	DefaultClickHouseBatchSize  = 1000
	DefaultLogLevel             = "info"
)

// Environment variable names.
const (
	EnvLogSources = "PG_LOGSTATS_LOG_SOURCES"
	EnvLogLevel   = "PG_LOGSTATS_LOG_LEVEL"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogSources: []string{},
		Analysis: AnalysisConfig{
			SlowQueryThresholdMS: DefaultSlowQueryThresholdMS,
			MaxSlowQueries:       DefaultMaxSlowQueries,
			MaxFrequentQueries:   DefaultMaxFrequentQueries,
		},
		Timing: TimingConfig{
			DailyBucket: DefaultDailyBucket,
		},
		Logging: LoggingConfig{
			Level: DefaultLogLevel,
		},
	}
}

// applyEnvironmentOverrides applies environment variable overrides.
func (c *Config) applyEnvironmentOverrides() {
	if sources := os.Getenv(EnvLogSources); sources != "" {
		c.LogSources = splitAndTrim(sources)
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.Logging.Level = level
	}
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
