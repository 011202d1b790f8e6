package output

import (
	"context"
	"encoding/json"
	"io"
)

// JSONFormatter formats reports as indented JSON.
type JSONFormatter struct {
	opts FormatOptions
}

// NewJSONFormatter creates a new JSON formatter with the given options.
func NewJSONFormatter(opts FormatOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Name returns the format name.
func (f *JSONFormatter) Name() string {
	return "json"
}

// quickReport drops the detailed query lists for quick mode.
type quickReport struct {
	Metadata Metadata `json:"metadata"`
	Summary  Summary  `json:"summary"`
}

// Format renders the report as JSON.
func (f *JSONFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if f.opts.Quick {
		return encoder.Encode(quickReport{
			Metadata: report.Metadata,
			Summary:  report.Summary,
		})
	}

	return encoder.Encode(report)
}
