// Package output provides the comparison report and its renderings.
package output

import (
	"errors"
	"fmt"
	"time"

	"github.com/ccollicutt/schedcompare/pkg/metrics"
)

// Comparison categories, in display order.
const (
	CategoryTotalExecutionTime = "Total Execution Time"
	CategoryIdlePercentage     = "Idle Time Percentage"
	CategoryContextSwitches    = "Context Switches"
)

// Categories returns the compared metrics in display order.
func Categories() []string {
	return []string{CategoryTotalExecutionTime, CategoryIdlePercentage, CategoryContextSwitches}
}

// SchedulerResult pairs a scheduler's display name with its extracted metrics.
type SchedulerResult struct {
	// Name is the scheduler label used in reports and legends.
	Name string `json:"name"`

	// Trace is the trace the metrics came from.
	Trace string `json:"trace"`

	// Metrics is the extractor output for the trace.
	Metrics *metrics.TraceMetrics `json:"metrics"`
}

// Series is one scheduler's values across the comparison categories.
type Series struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// Comparison is the grouped-bar data: one group per category, one series
// per scheduler. Values[i] belongs to Categories[i].
type Comparison struct {
	Categories []string `json:"categories"`
	Series     []Series `json:"series"`
}

// NewComparison builds the three-metric comparison for two schedulers.
func NewComparison(a, b SchedulerResult) Comparison {
	return Comparison{
		Categories: Categories(),
		Series:     []Series{seriesFor(a), seriesFor(b)},
	}
}

func seriesFor(r SchedulerResult) Series {
	m := r.Metrics
	return Series{
		Name: r.Name,
		Values: []float64{
			float64(m.TotalExecutionTime),
			m.IdlePercentage,
			float64(m.ContextSwitchCount),
		},
	}
}

// Max returns the largest value across all series, or 0.
func (c Comparison) Max() float64 {
	var max float64
	for _, s := range c.Series {
		for _, v := range s.Values {
			if v > max {
				max = v
			}
		}
	}
	return max
}

// Report is the complete comparison output.
type Report struct {
	// Schedulers holds both results, rate-monotonic first.
	Schedulers []SchedulerResult `json:"schedulers"`

	// Comparison is the chart-ready view of the three metrics.
	Comparison Comparison `json:"comparison"`

	// Metadata provides context about the run.
	Metadata Metadata `json:"metadata"`
}

// Metadata provides context about the comparison run.
type Metadata struct {
	// ConfigFile is the configuration used, if any.
	ConfigFile string `json:"config_file,omitempty"`

	// TotalExecutionTime is the observation window applied to both traces.
	TotalExecutionTime int `json:"total_execution_time"`

	// AnalyzedAt is when the comparison completed.
	AnalyzedAt time.Time `json:"analyzed_at"`

	// Duration is how long extraction took.
	Duration time.Duration `json:"duration"`
}

// ErrSchedulerCount is returned when a report is built from the wrong
// number of results.
var ErrSchedulerCount = errors.New("a comparison needs exactly two schedulers")

// NewReport creates a Report from exactly two scheduler results.
func NewReport(results []SchedulerResult, meta Metadata) (*Report, error) {
	if len(results) != 2 {
		return nil, fmt.Errorf("%w, got %d", ErrSchedulerCount, len(results))
	}
	for i, r := range results {
		if r.Metrics == nil {
			return nil, fmt.Errorf("scheduler %d (%s) has no metrics", i, r.Name)
		}
	}

	return &Report{
		Schedulers: results,
		Comparison: NewComparison(results[0], results[1]),
		Metadata:   meta,
	}, nil
}
