package output

import (
	"errors"
	"reflect"
	"testing"
)

func TestNewComparison(t *testing.T) {
	results := createTestResults()
	c := NewComparison(results[0], results[1])

	wantCategories := []string{"Total Execution Time", "Idle Time Percentage", "Context Switches"}
	if !reflect.DeepEqual(c.Categories, wantCategories) {
		t.Errorf("Categories = %v, want %v", c.Categories, wantCategories)
	}

	if len(c.Series) != 2 {
		t.Fatalf("len(Series) = %d, want 2", len(c.Series))
	}
	if c.Series[0].Name != "Rate Monotonic" || c.Series[1].Name != "Standard" {
		t.Errorf("series names = %q, %q", c.Series[0].Name, c.Series[1].Name)
	}

	want := []float64{120, results[0].Metrics.IdlePercentage, 12}
	if !reflect.DeepEqual(c.Series[0].Values, want) {
		t.Errorf("Series[0].Values = %v, want %v", c.Series[0].Values, want)
	}
	want = []float64{120, results[1].Metrics.IdlePercentage, 30}
	if !reflect.DeepEqual(c.Series[1].Values, want) {
		t.Errorf("Series[1].Values = %v, want %v", c.Series[1].Values, want)
	}
}

func TestComparison_Max(t *testing.T) {
	tests := []struct {
		name string
		c    Comparison
		want float64
	}{
		{"empty", Comparison{}, 0},
		{"all zero", Comparison{Series: []Series{{Values: []float64{0, 0}}}}, 0},
		{"across series", Comparison{Series: []Series{
			{Values: []float64{1, 7}},
			{Values: []float64{9, 2}},
		}}, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.Max(); got != tt.want {
				t.Errorf("Max() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewReport(t *testing.T) {
	report := createTestReport()

	if len(report.Schedulers) != 2 {
		t.Fatalf("len(Schedulers) = %d, want 2", len(report.Schedulers))
	}
	if report.Comparison.Series[0].Name != report.Schedulers[0].Name {
		t.Error("comparison series should follow scheduler order")
	}
	if report.Metadata.TotalExecutionTime != 120 {
		t.Errorf("Metadata.TotalExecutionTime = %d, want 120", report.Metadata.TotalExecutionTime)
	}
}

func TestNewReport_WrongCount(t *testing.T) {
	results := createTestResults()

	for _, n := range []int{0, 1, 3} {
		in := make([]SchedulerResult, 0, n)
		for i := 0; i < n; i++ {
			in = append(in, results[i%2])
		}
		_, err := NewReport(in, Metadata{})
		if !errors.Is(err, ErrSchedulerCount) {
			t.Errorf("NewReport(%d results) error = %v, want ErrSchedulerCount", n, err)
		}
	}
}

func TestNewReport_MissingMetrics(t *testing.T) {
	results := createTestResults()
	results[1].Metrics = nil

	if _, err := NewReport(results, Metadata{}); err == nil {
		t.Error("NewReport() should fail when a result has no metrics")
	}
}
