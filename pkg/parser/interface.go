package parser

import (
	"context"
	"io"
)

// TraceSource provides an iterator over the lines of one trace.
// Implementations must be safe for sequential access (not concurrent).
type TraceSource interface {
	// Next returns the next line of the trace.
	// Returns io.EOF when no more lines are available.
	// Read failures are reported as *SourceUnavailableError.
	Next(ctx context.Context) (*LogLine, error)

	// Name identifies the trace in errors and reports.
	Name() string

	// Close releases any resources held by the source.
	Close() error
}

// Ensure io.EOF is available for callers
var _ = io.EOF
