package output

import (
	"context"
	"fmt"
	"io"
	"strings"
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
	ew := &errWriter{w: w}
	if f.opts.Quiet {
		f.formatQuiet(report, ew)
	} else {
		f.formatFull(report, ew)
	}
	return ew.err
}

func (f *TextFormatter) formatQuiet(report *Report, w io.Writer) {
	for _, s := range report.Schedulers {
		fmt.Fprintf(w, "%s: idle %.2f%%, %d context switches\n",
			s.Name, s.Metrics.IdlePercentage, s.Metrics.ContextSwitchCount)
	}
}

func (f *TextFormatter) formatFull(report *Report, w io.Writer) {
	for _, s := range report.Schedulers {
		f.formatResult(s, w)
	}

	if f.opts.Verbose {
		fmt.Fprintf(w, "Duration: %s\n", report.Metadata.Duration.Round(1e6))
	}
}

// FormatResult renders a single scheduler's metrics block. It is used
// when only one trace was extracted.
func (f *TextFormatter) FormatResult(r SchedulerResult, w io.Writer) error {
	ew := &errWriter{w: w}
	if f.opts.Quiet {
		fmt.Fprintf(ew, "%s: idle %.2f%%, %d context switches\n",
			r.Name, r.Metrics.IdlePercentage, r.Metrics.ContextSwitchCount)
	} else {
		f.formatResult(r, ew)
	}
	return ew.err
}

func (f *TextFormatter) formatResult(s SchedulerResult, w io.Writer) {
	m := s.Metrics
	fmt.Fprintf(w, "%s Metrics:\n", s.Name)
	fmt.Fprintf(w, "Total Execution Time: %d\n", m.TotalExecutionTime)
	fmt.Fprintf(w, "Idle Time Percentage: %.2f%%\n", m.IdlePercentage)
	fmt.Fprintf(w, "Context Switches: %d\n", m.ContextSwitchCount)

	if f.opts.Verbose {
		f.formatDetails(s, w)
	}
}

func (f *TextFormatter) formatDetails(s SchedulerResult, w io.Writer) {
	m := s.Metrics
	fmt.Fprintf(w, "  Trace: %s\n", s.Trace)
	fmt.Fprintf(w, "  Idle Events: %d\n", m.IdleCount)
	if m.FirstIdleStart != nil {
		fmt.Fprintf(w, "  First Idle Start: %d\n", *m.FirstIdleStart)
	} else {
		fmt.Fprintln(w, "  First Idle Start: none")
	}
	fmt.Fprintf(w, "  Last Finish Time: %d\n", m.LastFinishTime)
	fmt.Fprintf(w, "  Task Finish Timestamps: %s\n", formatTimeline(m.TaskFinishTimestamps))
	fmt.Fprintf(w, "  Lines Processed: %d (%d matched)\n", m.Stats.LinesProcessed, m.Stats.LinesMatched)
}

func formatTimeline(ts []int64) string {
	if len(ts) == 0 {
		return "none"
	}
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = fmt.Sprintf("%d", t)
	}
	return strings.Join(parts, ", ")
}

// errWriter remembers the first write error so formatters can print
// line by line and check once.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}
