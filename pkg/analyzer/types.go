// Package analyzer aggregates parsed PostgreSQL log entries into query
// frequency, latency and error statistics.
package analyzer

// QueryCount is a normalized query with its occurrence count.
type QueryCount struct {
	// Query is the normalized statement text used as the grouping key.
	Query string `json:"query"`

	// Count is the number of occurrences.
	Count int `json:"count"`
}

// SlowQuery is a statement with its observed execution time.
type SlowQuery struct {
	// Query is the normalized statement text.
	Query string `json:"query"`

	// DurationMS is the execution time in milliseconds.
	DurationMS float64 `json:"duration_ms"`
}

// QueryAnalysis is the aggregated output of QueryAnalyzer.Analyze.
// It is created once per call and not mutated afterwards.
type QueryAnalysis struct {
	// TotalQueries is the number of statement entries.
	TotalQueries int `json:"total_queries"`

	// QueryTypes maps statement class (SELECT, INSERT, ...) to count.
	QueryTypes map[string]int `json:"query_types"`

	// MostFrequentQueries holds the top normalized queries by occurrence,
	// ties broken by first appearance.
	MostFrequentQueries []QueryCount `json:"most_frequent_queries"`

	// SlowestQueries holds the top statements by duration, descending,
	// ties broken by first appearance.
	SlowestQueries []SlowQuery `json:"slowest_queries"`

	// TotalDuration and AverageDuration summarize all observed durations
	// in milliseconds.
	TotalDuration   float64 `json:"total_duration_ms"`
	AverageDuration float64 `json:"average_duration_ms"`

	// P95Duration and P99Duration are nearest-rank percentiles over the
	// duration sample.
	P95Duration float64 `json:"p95_duration_ms"`
	P99Duration float64 `json:"p99_duration_ms"`

	// ErrorCount is the number of ERROR, FATAL and PANIC entries.
	ErrorCount int `json:"error_count"`

	// ConnectionCount is the number of connection and disconnection
	// events.
	ConnectionCount int `json:"connection_count"`
}

// TimingAnalysis is the aggregated output of TimingAnalyzer.AnalyzeTiming.
type TimingAnalysis struct {
	// AverageResponseTime is the mean duration in milliseconds.
	AverageResponseTime float64 `json:"average_response_time_ms"`

	// P95ResponseTime and P99ResponseTime are nearest-rank percentiles
	// over the duration sample.
	P95ResponseTime float64 `json:"p95_response_time_ms"`
	P99ResponseTime float64 `json:"p99_response_time_ms"`

	// HourlyPatterns maps hour-of-day (0-23) to mean duration, across the
	// whole input regardless of date.
	HourlyPatterns map[int]float64 `json:"hourly_patterns"`

	// DailyPatterns maps bucket-of-period to mean duration. Bucket zero
	// starts at the earliest observed timestamp truncated to the bucket
	// size.
	DailyPatterns map[int]float64 `json:"daily_patterns"`
}
