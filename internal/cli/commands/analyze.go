package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vrajat/pg-logstats/internal/export"
	"github.com/vrajat/pg-logstats/internal/logging"
	"github.com/vrajat/pg-logstats/pkg/analyzer"
	"github.com/vrajat/pg-logstats/pkg/config"
	"github.com/vrajat/pg-logstats/pkg/output"
	"github.com/vrajat/pg-logstats/pkg/parser"
	"github.com/vrajat/pg-logstats/pkg/webhook"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// AnalyzeOptions holds command-line options for the analyze command.
type AnalyzeOptions struct {
	Config      string
	LogDir      string
	LogfileList string
	Output      string
	Outfile     string
	Quick       bool
	SampleSize  int
	Quiet       bool
	Export      bool

	// Webhook options
	WebhookURL     string
	WebhookToken   string
	WebhookTrigger string
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	opts := &AnalyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze [log-files...]",
		Short: "Analyze PostgreSQL stderr logs",
		Long: `Parse PostgreSQL stderr-format log files and report query statistics.

Reports:
  - Query counts by type (SELECT, INSERT, UPDATE, DELETE, DDL, OTHER)
  - Most frequent normalized queries
  - Slowest queries and duration percentiles
  - Error and connection counts
  - Hourly and daily activity patterns

Log files come from positional arguments (paths or globs), --log-dir,
--logfile-list, or the config file, in that order of preference.

Exit codes:
  0 - Analysis completed, no errors found in the logs
  1 - Analysis completed, logs contained error entries
  2 - Configuration or runtime error`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args, opts)
		},
	}

	// Flags
	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "Config file (YAML)")
	cmd.Flags().StringVar(&opts.LogDir, "log-dir", "", "Directory to scan for PostgreSQL log files")
	cmd.Flags().StringVarP(&opts.LogfileList, "logfile-list", "L", "", "File containing log file paths, one per line")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().StringVar(&opts.Outfile, "outfile", "", "Write report to file instead of stdout")
	cmd.Flags().BoolVar(&opts.Quick, "quick", false, "Summary only, skip detailed sections")
	cmd.Flags().IntVar(&opts.SampleSize, "sample-size", 0, "Max lines to read per file (0 = all)")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Suppress diagnostic logging")
	cmd.Flags().BoolVar(&opts.Export, "export", false, "Export parsed entries to ClickHouse (requires config)")

	// Webhook flags
	cmd.Flags().StringVar(&opts.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&opts.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&opts.WebhookTrigger, "webhook-trigger", "on_errors", "When to fire webhook (on_errors|always|never)")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string, opts *AnalyzeOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Load configuration
	cfg, err := loadConfig(ctx, opts.Config)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level := cfg.Logging.Level
	if opts.Quiet {
		level = "error"
	}
	logger, err := logging.New(level)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	// Collect log files
	files, err := collectLogFiles(args, opts, cfg)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no log files to analyze (pass paths, --log-dir, --logfile-list, or log_sources in config)")
	}
	logger.Debug("log files collected", zap.Int("count", len(files)))

	// Read and parse
	var sourceOpts []parser.FileOption
	if opts.SampleSize > 0 {
		sourceOpts = append(sourceOpts, parser.WithSampleSize(opts.SampleSize))
	}
	source := parser.NewFileSource(files, sourceOpts...)
	defer source.Close()

	entries, linesRead, err := parser.ReadEntries(ctx, source, parser.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("parsing logs: %w", err)
	}
	logger.Info("logs parsed",
		zap.Int("lines", linesRead),
		zap.Int("entries", len(entries)))

	// Pair standalone duration entries with their statements
	entries = analyzer.AttachDurations(entries)

	// Run analysis
	qa := analyzer.NewQueryAnalyzer(
		analyzer.WithSlowQueryThreshold(cfg.Analysis.SlowQueryThresholdMS),
		analyzer.WithMaxSlowQueries(cfg.Analysis.MaxSlowQueries),
		analyzer.WithMaxFrequentQueries(cfg.Analysis.MaxFrequentQueries),
	)
	queries, err := qa.Analyze(entries)
	if err != nil {
		return fmt.Errorf("query analysis: %w", err)
	}

	ta := analyzer.NewTimingAnalyzer(
		analyzer.WithDailyBucket(cfg.Timing.DailyBucket),
		analyzer.WithStatementDurations(!cfg.Timing.ExcludeStatementDurations),
	)
	timing, err := ta.AnalyzeTiming(entries)
	if err != nil {
		return fmt.Errorf("timing analysis: %w", err)
	}

	// Create report
	report := output.NewReport(Version, files, linesRead, len(entries), queries, timing)

	// Output report
	formatter, err := createFormatter(opts)
	if err != nil {
		return err
	}
	w, closeOut, err := openOutput(opts.Outfile)
	if err != nil {
		return err
	}
	if err := formatter.Format(ctx, report, w); err != nil {
		_ = closeOut()
		return fmt.Errorf("formatting output: %w", err)
	}
	if err := closeOut(); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	// Send webhooks (errors logged but don't fail the analysis)
	sendWebhooks(ctx, cfg, opts, report)

	// Export parsed entries to ClickHouse if requested
	if opts.Export {
		if err := exportEntries(ctx, cfg, logger, files, entries); err != nil {
			return fmt.Errorf("exporting entries: %w", err)
		}
	}

	// Set exit code based on results
	if report.HasErrors() {
		ExitCode = 1
	}

	return nil
}

// loadConfig loads the given config file, or defaults when none was passed.
func loadConfig(ctx context.Context, path string) (*config.Config, error) {
	if path == "" {
		cfg := config.DefaultConfig()
		if err := config.Validate(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return config.Load(ctx, path)
}

// collectLogFiles gathers log files from positional args, --log-dir,
// --logfile-list, and the config, in that order of preference.
func collectLogFiles(args []string, opts *AnalyzeOptions, cfg *config.Config) ([]string, error) {
	if len(args) > 0 {
		files, err := parser.ExpandGlobs(args)
		if err != nil {
			return nil, fmt.Errorf("expanding log patterns: %w", err)
		}
		return files, nil
	}
	if opts.LogDir != "" {
		files, err := parser.DiscoverDir(opts.LogDir)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", opts.LogDir, err)
		}
		return files, nil
	}
	if opts.LogfileList != "" {
		files, err := parser.ReadFileList(opts.LogfileList)
		if err != nil {
			return nil, fmt.Errorf("reading file list: %w", err)
		}
		return files, nil
	}
	files, err := parser.ExpandGlobs(cfg.LogSources)
	if err != nil {
		return nil, fmt.Errorf("expanding log sources: %w", err)
	}
	return files, nil
}

func createFormatter(opts *AnalyzeOptions) (output.Formatter, error) {
	formatOpts := output.FormatOptions{
		Quick: opts.Quick,
	}

	switch opts.Output {
	case "text":
		return output.NewTextFormatter(formatOpts), nil
	case "json":
		return output.NewJSONFormatter(formatOpts), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (use text or json)", opts.Output)
	}
}

// openOutput returns the report writer and a close function. Stdout is
// never closed.
func openOutput(outfile string) (io.Writer, func() error, error) {
	if outfile == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(outfile) // #nosec G304 - user-supplied output path
	if err != nil {
		return nil, nil, fmt.Errorf("creating %s: %w", outfile, err)
	}
	return f, f.Close, nil
}

// sendWebhooks sends the report to all configured webhooks.
// Errors are logged to stderr but don't fail the analysis.
func sendWebhooks(ctx context.Context, cfg *config.Config, opts *AnalyzeOptions, report *output.Report) {
	webhooks := collectWebhooks(cfg, opts)
	if len(webhooks) == 0 {
		return
	}

	client := webhook.NewClient()

	for _, wh := range webhooks {
		if !shouldFireWebhook(wh.Trigger, report.HasErrors()) {
			continue
		}

		resp := client.Send(ctx, report, webhook.SendOptions{
			URL:     wh.URL,
			Token:   wh.Token,
			Timeout: wh.Timeout,
		})

		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		if resp.Success() {
			fmt.Fprintf(os.Stderr, "Webhook %s: sent (%d, %s)\n", name, resp.StatusCode, resp.Duration)
		} else {
			fmt.Fprintf(os.Stderr, "Webhook %s: failed (%v)\n", name, resp.Error)
		}
	}
}

// collectWebhooks merges config file webhooks with the CLI webhook.
func collectWebhooks(cfg *config.Config, opts *AnalyzeOptions) []config.WebhookConfig {
	webhooks := make([]config.WebhookConfig, 0, len(cfg.Webhooks)+1)
	webhooks = append(webhooks, cfg.Webhooks...)

	if opts.WebhookURL != "" {
		trigger := config.WebhookTrigger(opts.WebhookTrigger)
		if trigger == "" {
			trigger = config.WebhookTriggerOnErrors
		}

		webhooks = append(webhooks, config.WebhookConfig{
			Name:    "cli",
			URL:     opts.WebhookURL,
			Token:   opts.WebhookToken,
			Trigger: trigger,
			Timeout: config.DefaultWebhookTimeout,
		})
	}

	return webhooks
}

// shouldFireWebhook determines if a webhook should fire based on trigger
// and whether the logs contained errors.
func shouldFireWebhook(trigger config.WebhookTrigger, hasErrors bool) bool {
	switch trigger {
	case config.WebhookTriggerAlways:
		return true
	case config.WebhookTriggerNever:
		return false
	case config.WebhookTriggerOnErrors:
		return hasErrors
	default:
		return hasErrors
	}
}

// exportEntries batch-inserts parsed entries into the configured ClickHouse
// table.
func exportEntries(ctx context.Context, cfg *config.Config, logger *zap.Logger, files []string, entries []parser.LogEntry) error {
	if cfg.Export.ClickHouse == nil {
		return fmt.Errorf("--export requires an export.clickhouse config section")
	}

	client, err := export.New(cfg.Export.ClickHouse, logger)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	if err := client.EnsureTable(ctx); err != nil {
		return err
	}

	source := ""
	if len(files) == 1 {
		source = files[0]
	}
	if err := client.InsertEntries(ctx, source, entries); err != nil {
		return err
	}
	logger.Info("entries exported",
		zap.Int("count", len(entries)),
		zap.String("table", cfg.Export.ClickHouse.Table))
	return nil
}
