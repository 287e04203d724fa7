package metrics

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/ccollicutt/schedcompare/pkg/parser"
)

func extractLines(t *testing.T, e *Extractor, lines ...string) (*TraceMetrics, error) {
	t.Helper()
	src := parser.NewReaderSource("test", strings.NewReader(strings.Join(lines, "\n")))
	return e.Extract(context.Background(), src)
}

func mustExtract(t *testing.T, e *Extractor, lines ...string) *TraceMetrics {
	t.Helper()
	m, err := extractLines(t, e, lines...)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	return m
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestExtract_MixedTrace(t *testing.T) {
	m := mustExtract(t, NewExtractor(),
		"Idle starts: 1.0",
		"task A finished at time 5.0",
		"task B is running",
	)

	if m.IdleCount != 1 {
		t.Errorf("IdleCount = %d, want 1", m.IdleCount)
	}
	if !reflect.DeepEqual(m.TaskFinishTimestamps, []int64{50}) {
		t.Errorf("TaskFinishTimestamps = %v, want [50]", m.TaskFinishTimestamps)
	}
	if m.LastFinishTime != 50 {
		t.Errorf("LastFinishTime = %d, want 50", m.LastFinishTime)
	}
	if m.ContextSwitchCount != 1 {
		t.Errorf("ContextSwitchCount = %d, want 1", m.ContextSwitchCount)
	}
	if m.TotalExecutionTime != DefaultTotalExecutionTime {
		t.Errorf("TotalExecutionTime = %d, want %d", m.TotalExecutionTime, DefaultTotalExecutionTime)
	}
	if !almostEqual(m.IdlePercentage, 100.0/120.0) {
		t.Errorf("IdlePercentage = %v, want %v", m.IdlePercentage, 100.0/120.0)
	}
	if m.FirstIdleStart == nil || *m.FirstIdleStart != 10 {
		t.Errorf("FirstIdleStart = %v, want 10", m.FirstIdleStart)
	}
	if m.Stats.LinesProcessed != 3 || m.Stats.LinesMatched != 3 {
		t.Errorf("Stats = %+v, want 3 processed and 3 matched", m.Stats)
	}
}

func TestExtract_IdleDeduplication(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  int
	}{
		{
			name:  "adjacent identical idle lines count once",
			lines: []string{"Idle: 3.0", "Idle: 3.0"},
			want:  1,
		},
		{
			name:  "finish line between identical idle lines",
			lines: []string{"Idle: 3.0", "x finished at time 4.0", "Idle: 3.0"},
			want:  2,
		},
		{
			name:  "unrecognized line between identical idle lines",
			lines: []string{"Idle: 3.0", "noise", "Idle: 3.0"},
			want:  2,
		},
		{
			name:  "running line between identical idle lines",
			lines: []string{"Idle: 3.0", "T1 is running", "Idle: 3.0"},
			want:  2,
		},
		{
			name:  "distinct adjacent idle lines",
			lines: []string{"Idle: 1.0", "Idle: 2.0", "Idle: 3.0"},
			want:  3,
		},
		{
			name:  "run collapses then changes back",
			lines: []string{"Idle: 1.0", "Idle: 1.0", "Idle: 2.0", "Idle: 2.0", "Idle: 1.0"},
			want:  3,
		},
		{
			name:  "long run of the same tick",
			lines: []string{"Idle: 5.0", "Idle: 5.0", "Idle: 5.0", "Idle: 5.0"},
			want:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mustExtract(t, NewExtractor(), tt.lines...)
			if m.IdleCount != tt.want {
				t.Errorf("IdleCount = %d, want %d", m.IdleCount, tt.want)
			}

			idleLines := 0
			for _, l := range tt.lines {
				if strings.Contains(l, parser.DefaultIdleMarker) {
					idleLines++
				}
			}
			if m.IdleCount > idleLines {
				t.Errorf("IdleCount = %d exceeds idle line count %d", m.IdleCount, idleLines)
			}
		})
	}
}

func TestExtract_EmptyTrace(t *testing.T) {
	m, err := NewExtractor().Extract(context.Background(), parser.NewReaderSource("empty", strings.NewReader("")))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if m.IdleCount != 0 || m.ContextSwitchCount != 0 || m.LastFinishTime != 0 {
		t.Errorf("counts = %d/%d/%d, want all zero", m.IdleCount, m.ContextSwitchCount, m.LastFinishTime)
	}
	if len(m.TaskFinishTimestamps) != 0 {
		t.Errorf("TaskFinishTimestamps = %v, want empty", m.TaskFinishTimestamps)
	}
	if m.IdlePercentage != 0 {
		t.Errorf("IdlePercentage = %v, want 0", m.IdlePercentage)
	}
	if m.FirstIdleStart != nil {
		t.Errorf("FirstIdleStart = %v, want nil", *m.FirstIdleStart)
	}
}

func TestExtract_ZeroWindow(t *testing.T) {
	m := mustExtract(t, NewExtractor(WithTotalExecutionTime(0)),
		"Idle: 1.0", "Idle: 2.0", "Idle: 3.0")

	if m.IdleCount != 3 {
		t.Errorf("IdleCount = %d, want 3", m.IdleCount)
	}
	if m.IdlePercentage != 0 {
		t.Errorf("IdlePercentage = %v, want 0 for zero window", m.IdlePercentage)
	}
}

func TestExtract_CustomWindow(t *testing.T) {
	m := mustExtract(t, NewExtractor(WithTotalExecutionTime(4)),
		"Idle: 1.0", "Idle: 2.0")

	if !almostEqual(m.IdlePercentage, 50) {
		t.Errorf("IdlePercentage = %v, want 50", m.IdlePercentage)
	}
	if m.TotalExecutionTime != 4 {
		t.Errorf("TotalExecutionTime = %d, want 4", m.TotalExecutionTime)
	}
}

func TestExtract_FinishOrderAndMax(t *testing.T) {
	m := mustExtract(t, NewExtractor(),
		"T1 finished at time 3.",
		"T2 finished at time 9.",
		"T3 finished at time 1.",
		"T1 finished at time 9.",
		"T2 finished at time 4.",
	)

	want := []int64{3, 9, 1, 9, 4}
	if !reflect.DeepEqual(m.TaskFinishTimestamps, want) {
		t.Errorf("TaskFinishTimestamps = %v, want %v", m.TaskFinishTimestamps, want)
	}

	var max int64
	for _, ts := range m.TaskFinishTimestamps {
		if ts > max {
			max = ts
		}
	}
	if m.LastFinishTime != max {
		t.Errorf("LastFinishTime = %d, want %d", m.LastFinishTime, max)
	}
}

func TestExtract_Deterministic(t *testing.T) {
	lines := []string{
		"T1 is running. Start time: 0",
		"T1 finished at time 1.",
		"Idle starts: 1.0",
		"Idle starts: 1.0",
		"T2 is running. Start time: 2",
		"T2 finished at time 3.",
	}

	first := mustExtract(t, NewExtractor(), lines...)
	second := mustExtract(t, NewExtractor(), lines...)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated extraction differs:\n%+v\n%+v", first, second)
	}
}

func TestExtract_FirstIdleStartOnlyFromIdleStartLines(t *testing.T) {
	m := mustExtract(t, NewExtractor(),
		"Idle: 2.0",
		"Idle starts: 4.0",
		"Idle starts: 6.0",
	)

	if m.FirstIdleStart == nil || *m.FirstIdleStart != 40 {
		t.Errorf("FirstIdleStart = %v, want 40", m.FirstIdleStart)
	}
}

func TestExtract_MalformedIdleLine(t *testing.T) {
	_, err := extractLines(t, NewExtractor(),
		"T1 is running",
		"Idle: abc",
		"T1 finished at time 3.",
	)
	if err == nil {
		t.Fatal("Extract() expected error for malformed idle line")
	}
	if !errors.Is(err, parser.ErrParse) {
		t.Errorf("error = %v, want ErrParse", err)
	}

	var perr *parser.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("error type = %T, want *parser.ParseError", err)
	}
	if perr.Line != 2 {
		t.Errorf("Line = %d, want 2", perr.Line)
	}
	if perr.Offset != int64(len("T1 is running\n")) {
		t.Errorf("Offset = %d, want %d", perr.Offset, len("T1 is running\n"))
	}
	if perr.Content != "Idle: abc" {
		t.Errorf("Content = %q, want %q", perr.Content, "Idle: abc")
	}
}

func TestExtract_MalformedFinishLine(t *testing.T) {
	_, err := extractLines(t, NewExtractor(), "T1 finished at time x.y")
	if !errors.Is(err, parser.ErrParse) {
		t.Errorf("error = %v, want ErrParse", err)
	}
}

func TestExtractFile_Unreadable(t *testing.T) {
	_, err := NewExtractor().ExtractFile(context.Background(), "/nonexistent/output_RM.txt")
	if err == nil {
		t.Fatal("ExtractFile() expected error for missing file")
	}
	if !errors.Is(err, parser.ErrSourceUnavailable) {
		t.Errorf("error = %v, want ErrSourceUnavailable", err)
	}
	if errors.Is(err, parser.ErrParse) {
		t.Errorf("error = %v, must not be ErrParse", err)
	}
}

func TestExtractFile_NonUTF8Bytes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trace.txt")

	content := []byte("\xff\xfe garbage \x80\n" +
		"T1 is running. Start time: 0\n" +
		"Idle starts: 1.0\n" +
		"\xc3\x28 T1 finished at time 2.\n")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	m, err := NewExtractor().ExtractFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ExtractFile() error = %v", err)
	}

	if m.ContextSwitchCount != 1 || m.IdleCount != 1 || m.LastFinishTime != 2 {
		t.Errorf("metrics = %+v, want 1 switch, 1 idle, last finish 2", m)
	}
	if m.Stats.Source != path {
		t.Errorf("Stats.Source = %q, want %q", m.Stats.Source, path)
	}
	if m.Stats.LinesProcessed != 4 || m.Stats.LinesMatched != 3 {
		t.Errorf("Stats = %+v, want 4 processed, 3 matched", m.Stats)
	}
}

func TestExtract_CustomMarkers(t *testing.T) {
	e := NewExtractor(WithMarkers(parser.Markers{
		Idle:    "CPU idle",
		Finish:  "completed @",
		Running: "dispatch",
	}))

	m := mustExtract(t, e,
		"dispatch T1",
		"T1 completed @ 12",
		"CPU idle: 13",
		"Idle: 14",
	)

	if m.ContextSwitchCount != 1 || m.IdleCount != 1 || m.LastFinishTime != 12 {
		t.Errorf("metrics = %+v, want 1 switch, 1 idle, last finish 12", m)
	}
}

func TestExtract_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewExtractor().Extract(ctx, parser.NewReaderSource("test", strings.NewReader("Idle: 1.0\n")))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Extract() error = %v, want context.Canceled", err)
	}
}

func TestTraceMetrics_FinishTimelineIsCopy(t *testing.T) {
	m := mustExtract(t, NewExtractor(), "T1 finished at time 1.", "T2 finished at time 2.")

	timeline := m.FinishTimeline()
	timeline[0] = 99

	if m.TaskFinishTimestamps[0] != 1 {
		t.Errorf("FinishTimeline() aliases the metrics slice")
	}
}

func TestIdlePercentage(t *testing.T) {
	tests := []struct {
		idle, total int
		want        float64
	}{
		{0, 120, 0},
		{12, 120, 10},
		{5, 0, 0},
		{5, -10, 0},
		{30, 120, 25},
	}
	for _, tt := range tests {
		got := IdlePercentage(tt.idle, tt.total)
		if !almostEqual(got, tt.want) {
			t.Errorf("IdlePercentage(%d, %d) = %v, want %v", tt.idle, tt.total, got, tt.want)
		}
		if got < 0 {
			t.Errorf("IdlePercentage(%d, %d) = %v, want >= 0", tt.idle, tt.total, got)
		}
	}
}
