package parser

import (
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

var durationRegex = regexp.MustCompile(`^duration:\s+([\d.]+) ms`)

// openEntry is an entry currently being assembled. Continuation lines
// accumulate in lines until the entry is finalized.
type openEntry struct {
	entry LogEntry
	lines []string
}

// StderrParser converts an ordered sequence of raw text lines into log
// entries, one pass, no lookahead. It is a two-state machine: idle (pending
// is nil) or accumulating (pending holds the open entry and its buffered
// continuation lines).
//
// A parser instance holds per-pass state and is not safe for concurrent
// use; run one parser per file.
type StderrParser struct {
	pending *openEntry
	lineNum int
	skipped int
	logger  *zap.Logger
}

// Option configures a StderrParser.
type Option func(*StderrParser)

// WithLogger makes the parser report skipped lines at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(p *StderrParser) {
		p.logger = logger
	}
}

// NewStderrParser creates a parser for the stderr log format with
// log_line_prefix '%m [%p] %q%u@%d %a: '.
func NewStderrParser(opts ...Option) *StderrParser {
	p := &StderrParser{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Skipped returns the number of lines dropped so far because they matched
// neither the prefix nor an open entry, or carried a malformed prefix.
func (p *StderrParser) Skipped() int {
	return p.skipped
}

// ParseLine advances the parser by one line. It returns a finalized entry
// when the line closes the previously open entry, and nil otherwise.
// Malformed lines are absorbed, never returned as errors; the error return
// is reserved for structural failures.
func (p *StderrParser) ParseLine(line string) (*LogEntry, error) {
	p.lineNum++
	line = strings.TrimRight(line, "\r")

	matched, prefix, err := matchPrefix(line)
	if !matched {
		return p.continuation(line), nil
	}
	if err != nil {
		// Prefix-shaped line with unparseable fields: drop it without
		// disturbing the open entry.
		p.skip(line, err.Error())
		return nil, nil
	}

	finalized := p.finalize()
	p.open(prefix)
	return finalized, nil
}

// Flush finalizes the open entry at end of input, if any.
func (p *StderrParser) Flush() *LogEntry {
	return p.finalize()
}

// ParseLines parses a whole sequence of lines, finalizing the trailing
// entry. Individual malformed lines are dropped, so the entry count may be
// smaller than the line count.
func (p *StderrParser) ParseLines(lines []string) ([]LogEntry, error) {
	entries := make([]LogEntry, 0, len(lines))
	for _, line := range lines {
		entry, err := p.ParseLine(line)
		if err != nil {
			return entries, err
		}
		if entry != nil {
			entries = append(entries, *entry)
		}
	}
	if entry := p.Flush(); entry != nil {
		entries = append(entries, *entry)
	}
	return entries, nil
}

// open starts assembling a new entry from a matched prefix line.
func (p *StderrParser) open(prefix linePrefix) {
	entry := LogEntry{
		Timestamp:       prefix.Timestamp,
		ProcessID:       prefix.ProcessID,
		User:            prefix.User,
		Database:        prefix.Database,
		ApplicationName: prefix.ApplicationName,
		Severity:        ParseSeverity(prefix.Level),
		Message:         prefix.Payload,
	}

	// "statement:" and "duration:" payloads of LOG lines become synthetic
	// STATEMENT and DURATION entries. A bare STATEMENT keyword (emitted
	// after errors) carries the query directly.
	switch {
	case entry.Severity == SeverityStatement:
		entry.Query = prefix.Payload
	case strings.HasPrefix(prefix.Payload, "statement:"):
		entry.Severity = SeverityStatement
		entry.Query = strings.TrimSpace(strings.TrimPrefix(prefix.Payload, "statement:"))
	case durationRegex.MatchString(prefix.Payload):
		if ms, ok := extractDuration(prefix.Payload); ok {
			entry.Severity = SeverityDuration
			entry.Duration = &ms
		}
	}

	p.pending = &openEntry{entry: entry}
}

// continuation appends a non-prefix line to the open entry, or drops it
// when no entry is open.
func (p *StderrParser) continuation(line string) *LogEntry {
	if p.pending == nil {
		if strings.TrimSpace(line) != "" {
			p.skip(line, "no open entry for continuation line")
		}
		return nil
	}
	p.pending.lines = append(p.pending.lines, line)
	return nil
}

// finalize closes the open entry, folding buffered continuation lines into
// the query or message, and returns it. Returns nil when idle.
func (p *StderrParser) finalize() *LogEntry {
	if p.pending == nil {
		return nil
	}
	entry := p.pending.entry
	if len(p.pending.lines) > 0 {
		joined := strings.Join(p.pending.lines, "\n")
		if entry.Severity == SeverityStatement {
			entry.Query = entry.Query + "\n" + joined
		} else {
			entry.Message = entry.Message + "\n" + joined
		}
	}
	p.pending = nil
	return &entry
}

func (p *StderrParser) skip(line, reason string) {
	p.skipped++
	p.logger.Debug("skipping unparseable line",
		zap.Int("line", p.lineNum),
		zap.String("reason", reason),
		zap.String("content", line))
}

// extractDuration pulls the millisecond value out of a "duration: X ms"
// payload.
func extractDuration(payload string) (float64, bool) {
	m := durationRegex.FindStringSubmatch(payload)
	if m == nil {
		return 0, false
	}
	ms, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return ms, true
}
