// Package metrics extracts scheduler metrics from execution traces.
package metrics

// DefaultTotalExecutionTime is the observation window of the reference
// traces, in the same unit as the idle-event count.
const DefaultTotalExecutionTime = 120

// TraceMetrics is the summary extracted from one trace. It is not modified
// after Extract returns it.
type TraceMetrics struct {
	// TotalExecutionTime is the observation window the percentages use.
	TotalExecutionTime int `json:"total_execution_time"`

	// IdleCount is the number of idle events after collapsing adjacent
	// idle lines that repeat the same timestamp.
	IdleCount int `json:"idle_count"`

	// IdlePercentage is IdleCount relative to TotalExecutionTime, in percent.
	IdlePercentage float64 `json:"idle_percentage"`

	// TaskFinishTimestamps holds one entry per finish line, in file order.
	TaskFinishTimestamps []int64 `json:"task_finish_timestamps"`

	// LastFinishTime is the largest finish timestamp seen, or 0.
	LastFinishTime int64 `json:"last_finish_time"`

	// ContextSwitchCount is the number of task-running lines.
	ContextSwitchCount int `json:"context_switch_count"`

	// FirstIdleStart is the timestamp of the first idle-start line, if any.
	FirstIdleStart *int64 `json:"first_idle_start,omitempty"`

	// Stats describes the scan itself.
	Stats ScanStats `json:"stats"`
}

// ScanStats contains statistics about the extraction pass.
type ScanStats struct {
	// Source is the name of the trace that was read.
	Source string `json:"source"`

	// LinesProcessed is the total number of lines read.
	LinesProcessed int `json:"lines_processed"`

	// LinesMatched is the number of lines that matched a marker.
	LinesMatched int `json:"lines_matched"`
}

// FinishTimeline returns a copy of the finish timestamps.
func (m *TraceMetrics) FinishTimeline() []int64 {
	out := make([]int64, len(m.TaskFinishTimestamps))
	copy(out, m.TaskFinishTimestamps)
	return out
}

// IdlePercentage returns idleCount as a percentage of total. It returns 0
// for a non-positive window.
func IdlePercentage(idleCount, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(idleCount) / float64(total) * 100
}
