package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vrajat/pg-logstats/pkg/detector"
)

// DetectOptions holds command-line options for the detect command.
type DetectOptions struct {
	Output      string
	SampleSize  int
	WriteConfig string
}

// NewDetectCommand creates the detect command.
func NewDetectCommand() *cobra.Command {
	opts := &DetectOptions{}

	cmd := &cobra.Command{
		Use:   "detect <log-file>",
		Short: "Check whether a file looks like a PostgreSQL stderr log",
		Long: `Sample lines from a file and score them against the PostgreSQL stderr
log prefix (timestamp, timezone, process id, severity keyword).

Reports a confidence score, whether timestamps carry fractional seconds,
and how much of the sample is multi-line continuation content.

Optionally generates a starter config file with --write-config.

Example:
  pg-logstats detect /var/log/postgresql/postgresql.log
  pg-logstats detect --sample 500 /var/log/postgresql/postgresql.log
  pg-logstats detect -w pg-logstats.yaml /var/log/postgresql/postgresql.log`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().IntVarP(&opts.SampleSize, "sample", "n", 100, "Number of lines to sample")
	cmd.Flags().StringVarP(&opts.WriteConfig, "write-config", "w", "", "Write starter config to file (will not overwrite)")

	return cmd
}

func runDetect(cmd *cobra.Command, args []string, opts *DetectOptions) error {
	logFile := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		return fmt.Errorf("log file not found: %s", logFile)
	}

	d := detector.New(detector.WithSampleSize(opts.SampleSize))

	result, err := d.DetectFromFile(ctx, logFile)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	if opts.WriteConfig != "" {
		if err := writeStarterConfig(result, logFile, opts.WriteConfig); err != nil {
			return err
		}
	}

	switch opts.Output {
	case "json":
		return outputDetectJSON(result, logFile)
	default:
		return outputDetectText(result, logFile)
	}
}

func outputDetectText(result *detector.DetectionResult, logFile string) error {
	fmt.Println("=== PostgreSQL Log Format Detection ===")
	fmt.Println()
	fmt.Printf("File: %s\n", logFile)
	fmt.Printf("Lines sampled: %d\n", result.SampledLines)
	fmt.Printf("Prefix lines: %d\n", result.PrefixLines)
	fmt.Printf("Continuation lines: %d\n", result.ContinuationLines)
	fmt.Println()

	if !result.Matches() {
		fmt.Println("This does not look like a PostgreSQL stderr log.")
		fmt.Println()
		fmt.Println("Expected line shape:")
		fmt.Println("  2024-08-14 10:30:15.123 UTC [12345] user@db app: LOG:  message")
		fmt.Println()
		fmt.Println("Check log_destination and log_line_prefix in postgresql.conf.")
		return nil
	}

	fmt.Printf("Confidence: %.1f%%\n", result.Confidence()*100)
	if result.FractionalSeconds {
		fmt.Println("Timestamps: millisecond precision")
	} else {
		fmt.Println("Timestamps: second precision (consider log_line_prefix '%m')")
	}
	fmt.Println()
	fmt.Printf("Sample line:\n  %s\n", result.SampleLine)
	fmt.Printf("Parsed as: %s\n", result.SampleTime.Format("2006-01-02 15:04:05 MST"))
	fmt.Println()

	return nil
}

// detectJSON is the JSON shape of a detection run.
type detectJSON struct {
	File              string  `json:"file"`
	Matches           bool    `json:"matches"`
	Confidence        float64 `json:"confidence"`
	SampledLines      int     `json:"sampled_lines"`
	PrefixLines       int     `json:"prefix_lines"`
	ContinuationLines int     `json:"continuation_lines"`
	FractionalSeconds bool    `json:"fractional_seconds"`
	SampleLine        string  `json:"sample_line,omitempty"`
}

func outputDetectJSON(result *detector.DetectionResult, logFile string) error {
	out := detectJSON{
		File:              logFile,
		Matches:           result.Matches(),
		Confidence:        result.Confidence(),
		SampledLines:      result.SampledLines,
		PrefixLines:       result.PrefixLines,
		ContinuationLines: result.ContinuationLines,
		FractionalSeconds: result.FractionalSeconds,
		SampleLine:        result.SampleLine,
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

// writeStarterConfig generates a starter config file pointing at the
// detected log file.
func writeStarterConfig(result *detector.DetectionResult, logFile, configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s (will not overwrite)", configPath)
	}

	if !result.Matches() {
		return fmt.Errorf("cannot generate config: file does not look like a PostgreSQL stderr log")
	}

	content := generateStarterConfig(logFile, result)

	// #nosec G306 - config file doesn't need restrictive permissions
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("Wrote starter config to: %s\n\n", configPath)
	return nil
}

// generateStarterConfig creates a YAML config template.
func generateStarterConfig(logFile string, result *detector.DetectionResult) string {
	absLogFile := logFile
	if abs, err := filepath.Abs(logFile); err == nil {
		absLogFile = abs
	}

	return fmt.Sprintf(`# pg-logstats Configuration
# Generated by: pg-logstats detect (%.0f%% confidence)

log_sources:
  - %s
  # Add more log files or use globs:
  # - /var/log/postgresql/*.log

analysis:
  slow_query_threshold_ms: 1000
  max_slow_queries: 10
  max_frequent_queries: 20

# timing:
#   daily_bucket: 24h

# webhooks:
#   - name: alerts
#     url: https://alerts.example.com/hook
#     token: ${ALERT_TOKEN}
#     trigger: on_errors

# export:
#   clickhouse:
#     address: localhost:9000
#     database: logs
#     username: default
#     password: ${CLICKHOUSE_PASSWORD}
`, result.Confidence()*100, absLogFile)
}
