package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vrajat/pg-logstats/pkg/config"
	"github.com/vrajat/pg-logstats/pkg/parser"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a pg-logstats configuration file without running analysis.

Checks:
  - YAML syntax
  - Analysis and timing thresholds
  - Webhook URLs and triggers
  - ClickHouse export settings
  - Log source file existence (warning only)`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	fmt.Printf("Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Printf("\nConfiguration valid!\n")
	fmt.Printf("  Log sources: %d pattern(s)\n", len(cfg.LogSources))
	fmt.Printf("  Slow query threshold: %.0f ms\n", cfg.Analysis.SlowQueryThresholdMS)
	fmt.Printf("  Webhooks:    %d\n", len(cfg.Webhooks))
	if cfg.Export.ClickHouse != nil {
		fmt.Printf("  Export:      clickhouse (%s, table %s)\n",
			cfg.Export.ClickHouse.Address, cfg.Export.ClickHouse.Table)
	}

	// Check if log sources exist (warnings only)
	files, err := parser.ExpandGlobs(cfg.LogSources)
	if err != nil {
		fmt.Printf("\nWarning: Error expanding log source patterns: %v\n", err)
	} else if len(files) == 0 {
		fmt.Printf("\nWarning: No files match log source patterns\n")
	} else {
		fmt.Printf("\nLog files matched: %d\n", len(files))
		for _, f := range files {
			fmt.Printf("  - %s\n", f)
		}
	}

	return nil
}
