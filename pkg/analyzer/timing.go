package analyzer

import (
	"time"

	"github.com/vrajat/pg-logstats/pkg/parser"
)

// DefaultDailyBucket is the default bucket size for daily patterns.
const DefaultDailyBucket = 24 * time.Hour

// TimingAnalyzer derives time-distribution statistics independent of query
// content. Like QueryAnalyzer, each call owns its own accumulator.
type TimingAnalyzer struct {
	dailyBucket       time.Duration
	includeStatements bool
}

// TimingOption configures a TimingAnalyzer.
type TimingOption func(*TimingAnalyzer)

// WithDailyBucket sets the bucket size for daily patterns. The default is
// one day.
func WithDailyBucket(d time.Duration) TimingOption {
	return func(a *TimingAnalyzer) {
		if d > 0 {
			a.dailyBucket = d
		}
	}
}

// WithStatementDurations controls whether durations carried on STATEMENT
// entries (attached upstream) join the sample alongside standalone
// DURATION entries. Enabled by default.
func WithStatementDurations(include bool) TimingOption {
	return func(a *TimingAnalyzer) {
		a.includeStatements = include
	}
}

// NewTimingAnalyzer creates a timing analyzer with default settings.
func NewTimingAnalyzer(opts ...TimingOption) *TimingAnalyzer {
	a := &TimingAnalyzer{
		dailyBucket:       DefaultDailyBucket,
		includeStatements: true,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AnalyzeTiming computes average, percentile and time-bucketed duration
// statistics over the entries carrying a duration. Empty input yields
// zeroed aggregates, not an error.
func (a *TimingAnalyzer) AnalyzeTiming(entries []parser.LogEntry) (*TimingAnalysis, error) {
	result := &TimingAnalysis{
		HourlyPatterns: make(map[int]float64),
		DailyPatterns:  make(map[int]float64),
	}

	type bucket struct {
		sum   float64
		count int
	}

	var (
		durations []float64
		total     float64
		hourly    = make(map[int]*bucket)
		daily     = make(map[int]*bucket)
		earliest  time.Time
	)

	sample := a.sample(entries)
	for _, entry := range sample {
		if earliest.IsZero() || entry.Timestamp.Before(earliest) {
			earliest = entry.Timestamp
		}
	}
	origin := earliest.Truncate(a.dailyBucket)

	for _, entry := range sample {
		d := entry.DurationMS()
		durations = append(durations, d)
		total += d

		hour := entry.Timestamp.Hour()
		if hourly[hour] == nil {
			hourly[hour] = &bucket{}
		}
		hourly[hour].sum += d
		hourly[hour].count++

		day := int(entry.Timestamp.Sub(origin) / a.dailyBucket)
		if daily[day] == nil {
			daily[day] = &bucket{}
		}
		daily[day].sum += d
		daily[day].count++
	}

	if len(durations) > 0 {
		result.AverageResponseTime = total / float64(len(durations))
	}
	ps := Percentiles(durations, []float64{95, 99})
	result.P95ResponseTime = ps[0].Value
	result.P99ResponseTime = ps[1].Value

	for hour, b := range hourly {
		result.HourlyPatterns[hour] = b.sum / float64(b.count)
	}
	for day, b := range daily {
		result.DailyPatterns[day] = b.sum / float64(b.count)
	}

	return result, nil
}

// sample selects the duration-carrying entries feeding this analysis.
func (a *TimingAnalyzer) sample(entries []parser.LogEntry) []*parser.LogEntry {
	var out []*parser.LogEntry
	for i := range entries {
		entry := &entries[i]
		if !entry.HasDuration() {
			continue
		}
		if entry.Severity == parser.SeverityStatement && !a.includeStatements {
			continue
		}
		out = append(out, entry)
	}
	return out
}
