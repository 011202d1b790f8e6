// Package cli provides the command-line interface for pg-logstats.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vrajat/pg-logstats/internal/cli/commands"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	rootCmd := NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		// Print error to stderr (SilenceErrors prevents Cobra from doing this)
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2 // Configuration or runtime error
	}
	return commands.ExitCode
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pg-logstats",
		Short: "Analyze PostgreSQL stderr logs",
		Long: `pg-logstats is a batch analysis tool for PostgreSQL stderr-format logs.

It parses log files (including multi-line statements) and reports:
  - Query counts by type and the most frequent normalized queries
  - Slowest queries, with duration percentiles
  - Error and connection counts
  - Hourly and daily activity patterns

Reports render as text or JSON, and can be pushed to webhooks or
exported to ClickHouse.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add subcommands
	rootCmd.AddCommand(commands.NewAnalyzeCommand())
	rootCmd.AddCommand(commands.NewDetectCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
