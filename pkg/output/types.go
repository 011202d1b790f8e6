// Package output renders computed analysis results as text or JSON. It is
// a pure read-only consumer of the analyzer result types.
package output

import (
	"time"

	"github.com/google/uuid"

	"github.com/vrajat/pg-logstats/pkg/analyzer"
)

// Report is the complete analysis output handed to a formatter.
type Report struct {
	// Metadata provides context about the analysis run.
	Metadata Metadata `json:"metadata"`

	// Summary provides aggregate statistics.
	Summary Summary `json:"summary"`

	// Queries contains the query analysis, nil when not computed.
	Queries *analyzer.QueryAnalysis `json:"query_analysis,omitempty"`

	// Timing contains the timing analysis, nil when not computed.
	Timing *analyzer.TimingAnalysis `json:"timing_analysis,omitempty"`
}

// Metadata provides context about the analysis run.
type Metadata struct {
	// RunID uniquely identifies this analysis run.
	RunID string `json:"run_id"`

	// ToolVersion is the pg-logstats version that produced the report.
	ToolVersion string `json:"tool_version"`

	// GeneratedAt is when the report was produced.
	GeneratedAt time.Time `json:"generated_at"`

	// Sources lists the log files that were analyzed.
	Sources []string `json:"sources"`

	// LinesRead is the number of raw lines fed to the parser.
	LinesRead int `json:"lines_read"`

	// TotalEntries is the number of log entries parsed from those lines.
	TotalEntries int `json:"total_entries"`
}

// Summary provides the headline numbers of a run.
type Summary struct {
	TotalQueries    int     `json:"total_queries"`
	TotalDurationMS float64 `json:"total_duration_ms"`
	AvgDurationMS   float64 `json:"avg_duration_ms"`
	ErrorCount      int     `json:"error_count"`
	ConnectionCount int     `json:"connection_count"`
}

// NewReport assembles a Report from analysis results.
func NewReport(version string, sources []string, linesRead, totalEntries int,
	queries *analyzer.QueryAnalysis, timing *analyzer.TimingAnalysis) *Report {

	report := &Report{
		Metadata: Metadata{
			RunID:        uuid.NewString(),
			ToolVersion:  version,
			GeneratedAt:  time.Now().UTC(),
			Sources:      sources,
			LinesRead:    linesRead,
			TotalEntries: totalEntries,
		},
		Queries: queries,
		Timing:  timing,
	}

	if queries != nil {
		report.Summary = Summary{
			TotalQueries:    queries.TotalQueries,
			TotalDurationMS: queries.TotalDuration,
			AvgDurationMS:   queries.AverageDuration,
			ErrorCount:      queries.ErrorCount,
			ConnectionCount: queries.ConnectionCount,
		}
	}

	return report
}

// HasErrors reports whether the analyzed logs contained error entries.
func (r *Report) HasErrors() bool {
	return r.Summary.ErrorCount > 0
}
