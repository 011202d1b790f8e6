// Package detector checks how well a log file matches the PostgreSQL
// stderr prefix convention before a full analysis run.
package detector

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"
)

// Line shapes the detector distinguishes within a sample.
const (
	shapePrefix       = "prefix"
	shapeContinuation = "continuation"
	shapeUnknown      = "unknown"
)

var (
	prefixShapeRegex = regexp.MustCompile(
		`^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}(\.\d+)?) (\w+) \[\d+\] `)
	continuationRegex = regexp.MustCompile(`^[\t ]`)
)

// DetectionResult holds the result of sampling a log file.
type DetectionResult struct {
	// SampledLines is the number of non-empty lines examined.
	SampledLines int

	// PrefixLines is the number of lines matching the stderr prefix.
	PrefixLines int

	// ContinuationLines is the number of indented lines, typically
	// multi-line SQL bodies.
	ContinuationLines int

	// FractionalSeconds reports whether sampled timestamps carry
	// sub-second precision.
	FractionalSeconds bool

	// SampleLine is an example line that matched the prefix.
	SampleLine string

	// SampleTime is the timestamp parsed from SampleLine.
	SampleTime time.Time
}

// Confidence returns the fraction of sampled lines explained by the stderr
// format: prefix lines plus continuation lines that follow one.
func (r *DetectionResult) Confidence() float64 {
	if r.SampledLines == 0 {
		return 0
	}
	return float64(r.PrefixLines+r.ContinuationLines) / float64(r.SampledLines)
}

// Matches reports whether the file plausibly uses the stderr prefix
// format. Half the sample explained is the bar; real postgres logs score
// far higher.
func (r *DetectionResult) Matches() bool {
	return r.PrefixLines > 0 && r.Confidence() >= 0.5
}

// Detector samples log files and scores them against the stderr prefix
// convention.
type Detector struct {
	sampleSize int
}

// Option configures the Detector.
type Option func(*Detector)

// WithSampleSize sets the number of lines to sample (default 100).
func WithSampleSize(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.sampleSize = n
		}
	}
}

// New creates a new Detector.
func New(opts ...Option) *Detector {
	d := &Detector{sampleSize: 100}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DetectFromFile samples a log file and scores it.
func (d *Detector) DetectFromFile(ctx context.Context, path string) (*DetectionResult, error) {
	lines, err := d.sampleFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return d.DetectFromLines(lines), nil
}

// DetectFromLines scores a slice of log lines.
func (d *Detector) DetectFromLines(lines []string) *DetectionResult {
	result := &DetectionResult{}
	sawPrefix := false

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		result.SampledLines++

		switch classifyLine(line) {
		case shapePrefix:
			result.PrefixLines++
			sawPrefix = true
			m := prefixShapeRegex.FindStringSubmatch(line)
			if m[2] != "" {
				result.FractionalSeconds = true
			}
			if result.SampleLine == "" {
				if ts, err := time.Parse("2006-01-02 15:04:05 MST", m[1]+" "+m[3]); err == nil {
					result.SampleLine = line
					result.SampleTime = ts.UTC()
				}
			}
		case shapeContinuation:
			// Only meaningful after at least one prefix line.
			if sawPrefix {
				result.ContinuationLines++
			}
		}
	}

	return result
}

func classifyLine(line string) string {
	if prefixShapeRegex.MatchString(line) {
		return shapePrefix
	}
	if continuationRegex.MatchString(line) {
		return shapeContinuation
	}
	return shapeUnknown
}

func (d *Detector) sampleFile(ctx context.Context, path string) ([]string, error) {
	f, err := os.Open(path) // #nosec G304 -- user-provided path is expected
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() && len(lines) < d.sampleSize {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return lines, nil
}
