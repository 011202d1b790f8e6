// Package parser reconstructs structured log entries from PostgreSQL
// stderr-format log lines, including multi-line SQL statements.
package parser

import "time"

// Severity classifies a log entry. Most values map directly to PostgreSQL
// log levels; Statement and Duration are synthetic, produced by this parser
// from the "statement:" and "duration:" payloads of LOG lines.
type Severity string

const (
	SeverityDebug     Severity = "DEBUG"
	SeverityLog       Severity = "LOG"
	SeverityInfo      Severity = "INFO"
	SeverityNotice    Severity = "NOTICE"
	SeverityWarning   Severity = "WARNING"
	SeverityError     Severity = "ERROR"
	SeverityFatal     Severity = "FATAL"
	SeverityPanic     Severity = "PANIC"
	SeverityDetail    Severity = "DETAIL"
	SeverityStatement Severity = "STATEMENT"
	SeverityDuration  Severity = "DURATION"

	// SeverityUnknown is the fallback for level keywords this parser does
	// not recognize. PostgreSQL's keyword set is open-ended.
	SeverityUnknown Severity = "UNKNOWN"
)

// ParseSeverity maps a log-level keyword from a line prefix to a Severity.
// Unrecognized keywords map to SeverityUnknown rather than failing.
func ParseSeverity(keyword string) Severity {
	switch Severity(keyword) {
	case SeverityDebug, SeverityLog, SeverityInfo, SeverityNotice,
		SeverityWarning, SeverityError, SeverityFatal, SeverityPanic,
		SeverityDetail, SeverityStatement, SeverityDuration:
		return Severity(keyword)
	}
	// DEBUG1..DEBUG5 all collapse to DEBUG.
	if len(keyword) > 5 && keyword[:5] == "DEBUG" {
		return SeverityDebug
	}
	return SeverityUnknown
}

// IsError reports whether the severity denotes a failure condition.
func (s Severity) IsError() bool {
	return s == SeverityError || s == SeverityFatal || s == SeverityPanic
}

// LogEntry is one logical log record, possibly assembled from several
// physical lines. Entries are immutable once emitted by the parser.
type LogEntry struct {
	// Timestamp is the entry time parsed from the line prefix, in UTC.
	Timestamp time.Time `json:"timestamp"`

	// ProcessID is the backend process identifier from the bracketed prefix.
	ProcessID string `json:"process_id"`

	// User, Database and ApplicationName are session metadata. They are
	// empty when the %q part of the prefix was suppressed.
	User            string `json:"user,omitempty"`
	Database        string `json:"database,omitempty"`
	ClientHost      string `json:"client_host,omitempty"`
	ApplicationName string `json:"application_name,omitempty"`

	// Severity classifies the entry.
	Severity Severity `json:"severity"`

	// Message is the free-text payload of the entry.
	Message string `json:"message"`

	// Query holds the statement text for Statement entries, with
	// continuation lines joined in input order.
	Query string `json:"query,omitempty"`

	// Duration is the execution time in milliseconds for Duration entries.
	// A parser-emitted entry never carries both Query and Duration.
	Duration *float64 `json:"duration_ms,omitempty"`
}

// IsQuery reports whether the entry carries statement text.
func (e *LogEntry) IsQuery() bool {
	return e.Severity == SeverityStatement && e.Query != ""
}

// HasDuration reports whether the entry carries an execution time.
func (e *LogEntry) HasDuration() bool {
	return e.Duration != nil
}

// DurationMS returns the entry duration in milliseconds, or 0 when absent.
func (e *LogEntry) DurationMS() float64 {
	if e.Duration == nil {
		return 0
	}
	return *e.Duration
}

// Line is a raw log line before entry assembly.
type Line struct {
	// Content is the raw line text.
	Content string

	// Source is the file path this line came from.
	Source string

	// LineNum is the 1-based line number in the source file.
	LineNum int
}
