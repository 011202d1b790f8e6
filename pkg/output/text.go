package output

import (
	"context"
	"fmt"
	"io"
	"sort"
)

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	fmt.Fprintln(w, "=== PostgreSQL Log Analysis ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Sources:       %d file(s)\n", len(report.Metadata.Sources))
	fmt.Fprintf(w, "Lines read:    %d\n", report.Metadata.LinesRead)
	fmt.Fprintf(w, "Entries:       %d\n", report.Metadata.TotalEntries)
	fmt.Fprintln(w)

	f.formatSummary(report, w)

	if f.opts.Quick {
		return nil
	}

	if report.Queries != nil {
		f.formatQueries(report, w)
	}
	if report.Timing != nil {
		f.formatTiming(report, w)
	}

	return nil
}

func (f *TextFormatter) formatSummary(report *Report, w io.Writer) {
	s := report.Summary
	fmt.Fprintln(w, "Summary")
	fmt.Fprintln(w, "-------")
	fmt.Fprintf(w, "Total queries:   %d\n", s.TotalQueries)
	fmt.Fprintf(w, "Total duration:  %.3f ms\n", s.TotalDurationMS)
	fmt.Fprintf(w, "Avg duration:    %.3f ms\n", s.AvgDurationMS)
	fmt.Fprintf(w, "Errors:          %d\n", s.ErrorCount)
	fmt.Fprintf(w, "Connections:     %d\n", s.ConnectionCount)
	fmt.Fprintln(w)
}

func (f *TextFormatter) formatQueries(report *Report, w io.Writer) {
	q := report.Queries

	fmt.Fprintln(w, "Query Types")
	fmt.Fprintln(w, "-----------")
	types := make([]string, 0, len(q.QueryTypes))
	for t := range q.QueryTypes {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Fprintf(w, "  %-8s %d\n", t, q.QueryTypes[t])
	}
	fmt.Fprintln(w)

	if len(q.SlowestQueries) > 0 {
		fmt.Fprintln(w, "Slowest Queries")
		fmt.Fprintln(w, "---------------")
		for i, sq := range q.SlowestQueries {
			fmt.Fprintf(w, "  %2d. %10.3f ms  %s\n", i+1, sq.DurationMS, sq.Query)
		}
		fmt.Fprintln(w)
	}

	if len(q.MostFrequentQueries) > 0 {
		fmt.Fprintln(w, "Most Frequent Queries")
		fmt.Fprintln(w, "---------------------")
		for i, fq := range q.MostFrequentQueries {
			fmt.Fprintf(w, "  %2d. %6dx  %s\n", i+1, fq.Count, fq.Query)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "p95 duration: %.3f ms, p99 duration: %.3f ms\n", q.P95Duration, q.P99Duration)
	fmt.Fprintln(w)
}

func (f *TextFormatter) formatTiming(report *Report, w io.Writer) {
	t := report.Timing

	fmt.Fprintln(w, "Timing")
	fmt.Fprintln(w, "------")
	fmt.Fprintf(w, "Average response time: %.3f ms\n", t.AverageResponseTime)
	fmt.Fprintf(w, "p95 response time:     %.3f ms\n", t.P95ResponseTime)
	fmt.Fprintf(w, "p99 response time:     %.3f ms\n", t.P99ResponseTime)

	if len(t.HourlyPatterns) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Hourly Patterns (hour -> avg ms)")
		hours := make([]int, 0, len(t.HourlyPatterns))
		for h := range t.HourlyPatterns {
			hours = append(hours, h)
		}
		sort.Ints(hours)
		for _, h := range hours {
			fmt.Fprintf(w, "  %02d:00  %.3f\n", h, t.HourlyPatterns[h])
		}
	}

	if len(t.DailyPatterns) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Daily Patterns (day -> avg ms)")
		days := make([]int, 0, len(t.DailyPatterns))
		for d := range t.DailyPatterns {
			days = append(days, d)
		}
		sort.Ints(days)
		for _, d := range days {
			fmt.Fprintf(w, "  day %d  %.3f\n", d, t.DailyPatterns[d])
		}
	}

	fmt.Fprintln(w)
}
