package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// linePrefix holds the fields extracted from a log_line_prefix match.
// The supported convention is '%m [%p] %q%u@%d %a: ' followed by the
// level keyword and message payload.
type linePrefix struct {
	Timestamp       time.Time
	ProcessID       string
	User            string
	Database        string
	ApplicationName string
	Level           string
	Payload         string
}

var prefixRegex = regexp.MustCompile(
	`^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}(?:\.\d+)?) (\w+) \[(\d+)\] (?:(\S+)@(\S+) (\S+): )?([A-Z]+\d*):\s{0,2}(.*)$`)

const timestampLayout = "2006-01-02 15:04:05 MST"

// matchPrefix reports whether the line carries the standard prefix and, if
// so, extracts its fields. A line that matches the prefix shape but has an
// unparseable timestamp returns matched=true with a non-nil error so the
// caller can drop it without treating it as a continuation line.
func matchPrefix(line string) (bool, linePrefix, error) {
	m := prefixRegex.FindStringSubmatch(line)
	if m == nil {
		return false, linePrefix{}, nil
	}

	ts, err := parseTimestamp(m[1], m[2])
	if err != nil {
		return true, linePrefix{}, err
	}

	return true, linePrefix{
		Timestamp:       ts,
		ProcessID:       m[3],
		User:            m[4],
		Database:        m[5],
		ApplicationName: m[6],
		Level:           m[7],
		Payload:         strings.TrimSpace(m[8]),
	}, nil
}

// parseTimestamp parses the %m timestamp plus timezone word into UTC.
// Fractional seconds are optional.
func parseTimestamp(value, timezone string) (time.Time, error) {
	ts, err := time.Parse(timestampLayout, value+" "+timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", value, err)
	}
	return ts.UTC(), nil
}
