package analyzer

import (
	"sort"
	"strings"

	"github.com/vrajat/pg-logstats/pkg/parser"
	"github.com/vrajat/pg-logstats/pkg/query"
)

// Default analyzer settings.
const (
	DefaultSlowQueryThreshold = 1000.0 // milliseconds
	DefaultMaxSlowQueries     = 10
	DefaultMaxFrequentQueries = 20
)

// connectionPhrases are the message substrings counted as connection
// events.
var connectionPhrases = []string{
	"connection received",
	"connection authorized",
	"disconnection",
}

// QueryAnalyzer classifies and aggregates statement entries. Each Analyze
// call owns a fresh accumulator, so a single analyzer may be shared across
// goroutines operating on disjoint inputs.
type QueryAnalyzer struct {
	slowThreshold float64
	maxSlow       int
	maxFrequent   int
}

// QueryOption configures a QueryAnalyzer.
type QueryOption func(*QueryAnalyzer)

// WithSlowQueryThreshold sets the duration, in milliseconds, above which a
// statement counts as slow for FindSlowQueries.
func WithSlowQueryThreshold(ms float64) QueryOption {
	return func(a *QueryAnalyzer) {
		a.slowThreshold = ms
	}
}

// WithMaxSlowQueries caps the slowest-queries list.
func WithMaxSlowQueries(n int) QueryOption {
	return func(a *QueryAnalyzer) {
		a.maxSlow = n
	}
}

// WithMaxFrequentQueries caps the most-frequent-queries list.
func WithMaxFrequentQueries(n int) QueryOption {
	return func(a *QueryAnalyzer) {
		a.maxFrequent = n
	}
}

// NewQueryAnalyzer creates a query analyzer with default settings.
func NewQueryAnalyzer(opts ...QueryOption) *QueryAnalyzer {
	a := &QueryAnalyzer{
		slowThreshold: DefaultSlowQueryThreshold,
		maxSlow:       DefaultMaxSlowQueries,
		maxFrequent:   DefaultMaxFrequentQueries,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SlowQueryThreshold returns the configured slow-query threshold in
// milliseconds.
func (a *QueryAnalyzer) SlowQueryThreshold() float64 { return a.slowThreshold }

// MaxSlowQueries returns the slowest-queries list cap.
func (a *QueryAnalyzer) MaxSlowQueries() int { return a.maxSlow }

// MaxFrequentQueries returns the most-frequent-queries list cap.
func (a *QueryAnalyzer) MaxFrequentQueries() int { return a.maxFrequent }

// Analyze aggregates statement entries in a single pass. The analyzer
// treats each entry independently: statement text comes from entries
// carrying a query, durations from entries carrying one. Callers wanting
// statement durations attributed to query text run AttachDurations first.
// An empty input yields zeroed aggregates, not an error.
func (a *QueryAnalyzer) Analyze(entries []parser.LogEntry) (*QueryAnalysis, error) {
	result := &QueryAnalysis{
		QueryTypes: make(map[string]int),
	}

	counts := make(map[string]int)
	var firstSeen []string
	var slow []SlowQuery
	var durations []float64

	for i := range entries {
		entry := &entries[i]

		if entry.Severity.IsError() {
			result.ErrorCount++
		}
		if isConnectionEvent(entry.Message) {
			result.ConnectionCount++
		}
		if entry.HasDuration() {
			durations = append(durations, entry.DurationMS())
		}

		if !entry.IsQuery() {
			continue
		}

		result.TotalQueries++
		result.QueryTypes[string(query.Classify(entry.Query))]++

		normalized := query.Normalize(entry.Query)
		if _, ok := counts[normalized]; !ok {
			firstSeen = append(firstSeen, normalized)
		}
		counts[normalized]++

		if entry.HasDuration() {
			slow = append(slow, SlowQuery{
				Query:      normalized,
				DurationMS: entry.DurationMS(),
			})
		}
	}

	// Top-N by occurrence, stable on first appearance.
	frequent := make([]QueryCount, 0, len(firstSeen))
	for _, q := range firstSeen {
		frequent = append(frequent, QueryCount{Query: q, Count: counts[q]})
	}
	sort.SliceStable(frequent, func(i, j int) bool {
		return frequent[i].Count > frequent[j].Count
	})
	if len(frequent) > a.maxFrequent {
		frequent = frequent[:a.maxFrequent]
	}
	result.MostFrequentQueries = frequent

	// Top-N by duration, descending, stable on first appearance.
	sort.SliceStable(slow, func(i, j int) bool {
		return slow[i].DurationMS > slow[j].DurationMS
	})
	if len(slow) > a.maxSlow {
		slow = slow[:a.maxSlow]
	}
	result.SlowestQueries = slow

	for _, d := range durations {
		result.TotalDuration += d
	}
	if len(durations) > 0 {
		result.AverageDuration = result.TotalDuration / float64(len(durations))
	}
	ps := Percentiles(durations, []float64{95, 99})
	result.P95Duration = ps[0].Value
	result.P99Duration = ps[1].Value

	return result, nil
}

// FindSlowQueries returns the statement entries whose attached duration
// exceeds thresholdMS, in input order.
func (a *QueryAnalyzer) FindSlowQueries(entries []parser.LogEntry, thresholdMS float64) []parser.LogEntry {
	var slow []parser.LogEntry
	for _, entry := range entries {
		if entry.IsQuery() && entry.HasDuration() && entry.DurationMS() > thresholdMS {
			slow = append(slow, entry)
		}
	}
	return slow
}

// ErrorRate returns the fraction of entries with an error severity, or 0
// for empty input.
func (a *QueryAnalyzer) ErrorRate(entries []parser.LogEntry) float64 {
	if len(entries) == 0 {
		return 0
	}
	errors := 0
	for i := range entries {
		if entries[i].Severity.IsError() {
			errors++
		}
	}
	return float64(errors) / float64(len(entries))
}

func isConnectionEvent(message string) bool {
	for _, phrase := range connectionPhrases {
		if strings.Contains(message, phrase) {
			return true
		}
	}
	return false
}

// AttachDurations correlates standalone DURATION entries with the
// statement that produced them. The parser deliberately emits statement
// text and its execution time as two separate entries; consumers wanting
// them paired correlate by adjacency and process id. A DURATION entry is
// attached to the most recent unpaired STATEMENT entry from the same
// backend process and dropped from the output; everything else passes
// through unchanged. The input is not mutated.
func AttachDurations(entries []parser.LogEntry) []parser.LogEntry {
	out := make([]parser.LogEntry, 0, len(entries))
	// Index into out of the last statement per pid still awaiting a
	// duration.
	open := make(map[string]int)

	for i := range entries {
		entry := entries[i]

		switch {
		case entry.Severity == parser.SeverityStatement:
			open[entry.ProcessID] = len(out)
			out = append(out, entry)
		case entry.Severity == parser.SeverityDuration && entry.HasDuration():
			if idx, ok := open[entry.ProcessID]; ok {
				d := entry.DurationMS()
				out[idx].Duration = &d
				delete(open, entry.ProcessID)
			} else {
				out = append(out, entry)
			}
		default:
			out = append(out, entry)
		}
	}

	return out
}
