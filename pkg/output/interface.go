package output

import (
	"context"
	"io"
)

// Formatter renders a comparison report in a specific format.
type Formatter interface {
	// Format renders the report to the given writer.
	Format(ctx context.Context, report *Report, w io.Writer) error

	// Name returns the format name (text, json, chart, prometheus).
	Name() string
}

// FormatOptions controls formatter behavior.
type FormatOptions struct {
	// Verbose adds the finish timeline and scan statistics.
	Verbose bool

	// Quiet enables minimal summary-only output.
	Quiet bool

	// NoColor disables ANSI styling in the chart.
	NoColor bool

	// ChartWidth is the maximum bar length in cells (chart only).
	ChartWidth int
}
