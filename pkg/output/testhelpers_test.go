package output

import (
	"time"

	"github.com/ccollicutt/schedcompare/pkg/metrics"
)

func createTestResults() []SchedulerResult {
	start := int64(3)
	return []SchedulerResult{
		{
			Name:  "Rate Monotonic",
			Trace: "outputs/output_RM.txt",
			Metrics: &metrics.TraceMetrics{
				TotalExecutionTime:   120,
				IdleCount:            10,
				IdlePercentage:       metrics.IdlePercentage(10, 120),
				TaskFinishTimestamps: []int64{5, 12, 20},
				LastFinishTime:       20,
				ContextSwitchCount:   12,
				FirstIdleStart:       &start,
				Stats:                metrics.ScanStats{Source: "outputs/output_RM.txt", LinesProcessed: 40, LinesMatched: 25},
			},
		},
		{
			Name:  "Standard",
			Trace: "outputs/output_freertos.txt",
			Metrics: &metrics.TraceMetrics{
				TotalExecutionTime: 120,
				IdleCount:          25,
				IdlePercentage:     metrics.IdlePercentage(25, 120),
				ContextSwitchCount: 30,
				Stats:              metrics.ScanStats{Source: "outputs/output_freertos.txt", LinesProcessed: 70, LinesMatched: 55},
			},
		},
	}
}

func createTestReport() *Report {
	report, err := NewReport(createTestResults(), Metadata{
		ConfigFile:         "compare.yaml",
		TotalExecutionTime: 120,
		AnalyzedAt:         time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
		Duration:           15 * time.Millisecond,
	})
	if err != nil {
		panic(err)
	}
	return report
}
