// Package config provides configuration loading and validation for
// pg-logstats.
package config

import "time"

// Config is the root configuration structure loaded from YAML. Every field
// has a working default; the config file and CLI flags only override.
type Config struct {
	// LogSources lists log file paths or glob patterns to analyze.
	LogSources []string `yaml:"log_sources"`

	Analysis AnalysisConfig  `yaml:"analysis,omitempty"`
	Timing   TimingConfig    `yaml:"timing,omitempty"`
	Export   ExportConfig    `yaml:"export,omitempty"`
	Webhooks []WebhookConfig `yaml:"webhooks,omitempty"`
	Logging  LoggingConfig   `yaml:"logging,omitempty"`
}

// AnalysisConfig tunes the query analyzer.
type AnalysisConfig struct {
	// SlowQueryThresholdMS is the duration above which a statement counts
	// as slow.
	SlowQueryThresholdMS float64 `yaml:"slow_query_threshold_ms,omitempty"`

	// MaxSlowQueries caps the slowest-queries list.
	MaxSlowQueries int `yaml:"max_slow_queries,omitempty"`

	// MaxFrequentQueries caps the most-frequent-queries list.
	MaxFrequentQueries int `yaml:"max_frequent_queries,omitempty"`
}

// TimingConfig tunes the timing analyzer.
type TimingConfig struct {
	// DailyBucket is the bucket size for daily patterns.
	DailyBucket time.Duration `yaml:"daily_bucket,omitempty"`

	// ExcludeStatementDurations keeps statement-carried durations out of
	// the timing sample, restricting it to standalone duration entries.
	ExcludeStatementDurations bool `yaml:"exclude_statement_durations,omitempty"`
}

// ExportConfig configures the optional ClickHouse sink for parsed entries.
type ExportConfig struct {
	ClickHouse *ClickHouseConfig `yaml:"clickhouse,omitempty"`
}

// ClickHouseConfig holds ClickHouse connection settings.
type ClickHouseConfig struct {
	// Address is the host:port of the ClickHouse server.
	Address string `yaml:"address"`

	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	Database string `yaml:"database"`

	// Table is the destination table for log entries.
	Table string `yaml:"table,omitempty"`

	// Protocol is "native" or "http".
	Protocol string `yaml:"protocol,omitempty"`

	// BatchSize is the number of entries per insert batch.
	BatchSize int `yaml:"batch_size,omitempty"`
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnErrors fires only when the logs contained error
	// entries (default).
	WebhookTriggerOnErrors WebhookTrigger = "on_errors"
	// WebhookTriggerAlways fires after every analysis.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines a webhook endpoint for sending analysis reports.
type WebhookConfig struct {
	// Name identifies the webhook in logs and error messages.
	Name string `yaml:"name,omitempty"`

	// URL is the webhook endpoint (http or https).
	URL string `yaml:"url"`

	// Token is an optional bearer token. Supports ${VAR} expansion.
	Token string `yaml:"token,omitempty"`

	// Trigger controls when the webhook fires.
	Trigger WebhookTrigger `yaml:"trigger,omitempty"`

	// Timeout is the request timeout.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// LoggingConfig configures diagnostic logging.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level,omitempty"`
}
