package parser

import (
	"strings"
	"testing"
	"time"
)

func TestStderrParser_SingleLine(t *testing.T) {
	p := NewStderrParser()

	entries, err := p.ParseLines([]string{
		"2024-08-14 10:30:15.123 UTC [12345] myuser@mydb psql: LOG:  connection received: host=127.0.0.1",
	})
	if err != nil {
		t.Fatalf("ParseLines() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Got %d entries, want 1", len(entries))
	}

	e := entries[0]
	want := time.Date(2024, 8, 14, 10, 30, 15, 123000000, time.UTC)
	if !e.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", e.Timestamp, want)
	}
	if e.ProcessID != "12345" {
		t.Errorf("ProcessID = %q, want %q", e.ProcessID, "12345")
	}
	if e.User != "myuser" || e.Database != "mydb" || e.ApplicationName != "psql" {
		t.Errorf("Session = %q@%q %q, want myuser@mydb psql", e.User, e.Database, e.ApplicationName)
	}
	if e.Severity != SeverityLog {
		t.Errorf("Severity = %q, want LOG", e.Severity)
	}
	if e.Message != "connection received: host=127.0.0.1" {
		t.Errorf("Message = %q", e.Message)
	}
}

func TestStderrParser_PrefixWithoutSession(t *testing.T) {
	p := NewStderrParser()

	entries, err := p.ParseLines([]string{
		"2024-08-14 10:30:15 UTC [999] LOG:  checkpoint starting: time",
	})
	if err != nil {
		t.Fatalf("ParseLines() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.User != "" || e.Database != "" || e.ApplicationName != "" {
		t.Errorf("Session fields should be empty, got %q@%q %q", e.User, e.Database, e.ApplicationName)
	}
	if e.Message != "checkpoint starting: time" {
		t.Errorf("Message = %q", e.Message)
	}
}

func TestStderrParser_StatementAndDuration(t *testing.T) {
	p := NewStderrParser()

	entries, err := p.ParseLines([]string{
		"2024-08-14 10:30:15.123 UTC [111] u@d a: LOG:  statement: SELECT 1",
		"2024-08-14 10:30:15.130 UTC [111] u@d a: LOG:  duration: 7.141 ms",
	})
	if err != nil {
		t.Fatalf("ParseLines() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Got %d entries, want 2", len(entries))
	}

	stmt := entries[0]
	if stmt.Severity != SeverityStatement {
		t.Errorf("Severity = %q, want STATEMENT", stmt.Severity)
	}
	if stmt.Query != "SELECT 1" {
		t.Errorf("Query = %q, want %q", stmt.Query, "SELECT 1")
	}
	if stmt.HasDuration() {
		t.Error("statement entry should not carry a duration")
	}

	dur := entries[1]
	if dur.Severity != SeverityDuration {
		t.Errorf("Severity = %q, want DURATION", dur.Severity)
	}
	if !dur.HasDuration() || dur.DurationMS() != 7.141 {
		t.Errorf("DurationMS = %v, want 7.141", dur.DurationMS())
	}
	if dur.Query != "" {
		t.Errorf("duration entry should not carry query text, got %q", dur.Query)
	}
}

func TestStderrParser_MultiLineStatement(t *testing.T) {
	p := NewStderrParser()

	entries, err := p.ParseLines([]string{
		"2024-08-14 10:30:15 UTC [42] u@d a: LOG:  statement: SELECT id, name",
		"\tFROM users",
		"\tWHERE active = true;",
		"2024-08-14 10:30:16 UTC [42] u@d a: LOG:  duration: 12.5 ms",
	})
	if err != nil {
		t.Fatalf("ParseLines() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Got %d entries, want 2", len(entries))
	}

	stmt := entries[0]
	wantQuery := "SELECT id, name\n\tFROM users\n\tWHERE active = true;"
	if stmt.Query != wantQuery {
		t.Errorf("Query = %q, want %q", stmt.Query, wantQuery)
	}
	if !strings.Contains(stmt.Query, "\n") {
		t.Error("multi-line query should preserve line breaks")
	}
}

func TestStderrParser_ErrorWithDetail(t *testing.T) {
	p := NewStderrParser()

	entries, err := p.ParseLines([]string{
		`2024-08-14 10:31:00 UTC [77] u@d a: ERROR:  relation "missing" does not exist`,
		"2024-08-14 10:31:00 UTC [77] u@d a: STATEMENT:  SELECT * FROM missing",
	})
	if err != nil {
		t.Fatalf("ParseLines() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Got %d entries, want 2", len(entries))
	}
	if entries[0].Severity != SeverityError {
		t.Errorf("Severity = %q, want ERROR", entries[0].Severity)
	}
	if !entries[0].Severity.IsError() {
		t.Error("ERROR severity should report IsError")
	}
	if entries[1].Severity != SeverityStatement || entries[1].Query != "SELECT * FROM missing" {
		t.Errorf("STATEMENT entry = %q %q", entries[1].Severity, entries[1].Query)
	}
}

func TestStderrParser_Severities(t *testing.T) {
	tests := []struct {
		keyword string
		want    Severity
	}{
		{"LOG", SeverityLog},
		{"ERROR", SeverityError},
		{"FATAL", SeverityFatal},
		{"PANIC", SeverityPanic},
		{"WARNING", SeverityWarning},
		{"NOTICE", SeverityNotice},
		{"INFO", SeverityInfo},
		{"DEBUG", SeverityDebug},
		{"DEBUG1", SeverityDebug},
		{"DEBUG5", SeverityDebug},
		{"DETAIL", SeverityDetail},
		{"WHATEVER", SeverityUnknown},
	}

	for _, tt := range tests {
		if got := ParseSeverity(tt.keyword); got != tt.want {
			t.Errorf("ParseSeverity(%q) = %q, want %q", tt.keyword, got, tt.want)
		}
	}
}

func TestStderrParser_UnknownSeverityKept(t *testing.T) {
	p := NewStderrParser()

	entries, err := p.ParseLines([]string{
		"2024-08-14 10:30:15 UTC [1] u@d a: CUSTOMLEVEL:  something odd",
	})
	if err != nil {
		t.Fatalf("ParseLines() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Got %d entries, want 1", len(entries))
	}
	if entries[0].Severity != SeverityUnknown {
		t.Errorf("Severity = %q, want UNKNOWN", entries[0].Severity)
	}
	if entries[0].Message != "something odd" {
		t.Errorf("Message = %q", entries[0].Message)
	}
}

func TestStderrParser_SkipsMalformedLines(t *testing.T) {
	p := NewStderrParser()

	entries, err := p.ParseLines([]string{
		"complete garbage with no timestamp",
		"2024-08-14 10:30:15 UTC [1] u@d a: LOG:  first",
		"2024-13-99 99:99:99 UTC [2] u@d a: LOG:  bad timestamp",
		"2024-08-14 10:30:16 UTC [1] u@d a: LOG:  second",
	})
	if err != nil {
		t.Fatalf("ParseLines() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Got %d entries, want 2", len(entries))
	}
	if entries[0].Message != "first" || entries[1].Message != "second" {
		t.Errorf("Messages = %q, %q", entries[0].Message, entries[1].Message)
	}
	if p.Skipped() != 2 {
		t.Errorf("Skipped() = %d, want 2", p.Skipped())
	}
}

func TestStderrParser_MalformedLineDoesNotBreakOpenEntry(t *testing.T) {
	p := NewStderrParser()

	// A bad-timestamp line between a statement and its continuation must
	// not close the statement or become part of it.
	entries, err := p.ParseLines([]string{
		"2024-08-14 10:30:15 UTC [1] u@d a: LOG:  statement: SELECT 1,",
		"2024-99-99 10:30:15 UTC [2] u@d a: LOG:  bogus",
		"\t2",
	})
	if err != nil {
		t.Fatalf("ParseLines() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Got %d entries, want 1", len(entries))
	}
	if entries[0].Query != "SELECT 1,\n\t2" {
		t.Errorf("Query = %q", entries[0].Query)
	}
}

func TestStderrParser_ContinuationWithoutOpenEntry(t *testing.T) {
	p := NewStderrParser()

	entries, err := p.ParseLines([]string{
		"\torphan continuation",
		"",
		"2024-08-14 10:30:15 UTC [1] u@d a: LOG:  ok",
	})
	if err != nil {
		t.Fatalf("ParseLines() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Got %d entries, want 1", len(entries))
	}
	// Blank lines are not counted as skipped, orphan content is.
	if p.Skipped() != 1 {
		t.Errorf("Skipped() = %d, want 1", p.Skipped())
	}
}

func TestStderrParser_FlushTrailingEntry(t *testing.T) {
	p := NewStderrParser()

	entry, err := p.ParseLine("2024-08-14 10:30:15 UTC [1] u@d a: LOG:  statement: SELECT 1")
	if err != nil {
		t.Fatalf("ParseLine() error = %v", err)
	}
	if entry != nil {
		t.Fatal("first prefix line should not emit an entry yet")
	}

	flushed := p.Flush()
	if flushed == nil {
		t.Fatal("Flush() returned nil, want trailing entry")
	}
	if flushed.Query != "SELECT 1" {
		t.Errorf("Query = %q", flushed.Query)
	}
	if again := p.Flush(); again != nil {
		t.Error("second Flush() should return nil")
	}
}

func TestStderrParser_EmptyInput(t *testing.T) {
	p := NewStderrParser()

	entries, err := p.ParseLines(nil)
	if err != nil {
		t.Fatalf("ParseLines() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Got %d entries, want 0", len(entries))
	}
}

func TestStderrParser_TimezoneNormalizedToUTC(t *testing.T) {
	p := NewStderrParser()

	entries, err := p.ParseLines([]string{
		"2024-08-14 10:30:15 GMT [1] u@d a: LOG:  hello",
	})
	if err != nil {
		t.Fatalf("ParseLines() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Got %d entries, want 1", len(entries))
	}
	if entries[0].Timestamp.Location() != time.UTC {
		t.Errorf("Timestamp location = %v, want UTC", entries[0].Timestamp.Location())
	}
}
