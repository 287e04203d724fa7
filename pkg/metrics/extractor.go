package metrics

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/ccollicutt/schedcompare/pkg/parser"
)

// Extractor turns a trace into TraceMetrics. It holds no per-trace state and
// can be reused for any number of traces.
type Extractor struct {
	totalExecutionTime int
	classifier         *parser.Classifier
	logger             *zap.Logger
}

// ExtractorOption configures extractor behavior.
type ExtractorOption func(*Extractor)

// WithTotalExecutionTime sets the observation window used for percentages.
func WithTotalExecutionTime(total int) ExtractorOption {
	return func(e *Extractor) {
		e.totalExecutionTime = total
	}
}

// WithMarkers sets the substrings used to classify lines.
func WithMarkers(markers parser.Markers) ExtractorOption {
	return func(e *Extractor) {
		e.classifier = parser.NewClassifier(markers)
	}
}

// WithLogger sets the logger for extraction diagnostics.
func WithLogger(logger *zap.Logger) ExtractorOption {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExtractor creates an extractor. Without options it uses the default
// window and markers.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		totalExecutionTime: DefaultTotalExecutionTime,
		classifier:         parser.NewClassifier(parser.DefaultMarkers()),
		logger:             zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// TotalExecutionTime returns the configured observation window.
func (e *Extractor) TotalExecutionTime() int {
	return e.totalExecutionTime
}

// ExtractFile opens the trace at path and extracts its metrics.
func (e *Extractor) ExtractFile(ctx context.Context, path string) (*TraceMetrics, error) {
	return e.Extract(ctx, parser.NewFileSource(path))
}

// Extract reads src to the end in a single pass and returns its metrics.
// The source is closed before returning. Errors are *parser.SourceUnavailableError
// or *parser.ParseError (or the context error); no partial result is returned.
func (e *Extractor) Extract(ctx context.Context, src parser.TraceSource) (*TraceMetrics, error) {
	defer src.Close()

	state := newScanState(src.Name())

	for {
		line, err := src.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading trace %s: %w", src.Name(), err)
		}

		ev, err := e.classifier.ClassifyLine(line)
		if err != nil {
			return nil, fmt.Errorf("extracting metrics from %s: %w", src.Name(), err)
		}
		state.process(ev)
	}

	m := state.finalize(e.totalExecutionTime)

	e.logger.Debug("extracted trace metrics",
		zap.String("source", m.Stats.Source),
		zap.Int("lines", m.Stats.LinesProcessed),
		zap.Int("idle_count", m.IdleCount),
		zap.Int("finishes", len(m.TaskFinishTimestamps)),
		zap.Int("context_switches", m.ContextSwitchCount))

	return m, nil
}
