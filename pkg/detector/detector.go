// Package detector samples a trace and reports how its lines classify
// against the configured markers. It backs the diagnose command.
package detector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ccollicutt/schedcompare/pkg/parser"
)

// DefaultSampleSize is the number of lines sampled from a trace.
const DefaultSampleSize = 100

// DetectionResult holds the result of sampling a trace.
type DetectionResult struct {
	Matches      []MarkerMatch   // Markers that matched, most frequent first
	Malformed    []MalformedLine // Marker lines whose timestamp did not parse
	Hints        []string        // Likely marker mismatches
	SampledLines int             // Number of lines sampled
	MatchedLines int             // Lines that hit any marker
	Counts       map[parser.EventKind]int
	FirstIdle    *int64 // First idle-start timestamp in the sample
}

// MarkerMatch describes one event kind found in the sample.
type MarkerMatch struct {
	Kind       parser.EventKind
	Marker     string
	Count      int
	Coverage   float64 // 0.0 to 1.0 of sampled lines
	SampleLine string
}

// MalformedLine is a sampled line that would abort extraction.
type MalformedLine struct {
	Line    int
	Content string
	Reason  string
}

// Detector samples traces and classifies their lines.
type Detector struct {
	classifier *parser.Classifier
	sampleSize int
}

// Option configures the Detector.
type Option func(*Detector)

// WithSampleSize sets the number of lines to sample (default 100).
func WithSampleSize(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.sampleSize = n
		}
	}
}

// WithMarkers classifies with custom markers instead of the defaults.
func WithMarkers(m parser.Markers) Option {
	return func(d *Detector) {
		d.classifier = parser.NewClassifier(m)
	}
}

// New creates a new Detector using the default markers.
func New(opts ...Option) *Detector {
	d := &Detector{
		classifier: parser.NewClassifier(parser.DefaultMarkers()),
		sampleSize: DefaultSampleSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SampleSize returns the configured sample size.
func (d *Detector) SampleSize() int {
	return d.sampleSize
}

// DetectFromFile samples the head of a trace file.
func (d *Detector) DetectFromFile(ctx context.Context, path string) (*DetectionResult, error) {
	src := parser.NewFileSource(path)
	defer src.Close()

	var lines []*parser.LogLine
	for len(lines) < d.sampleSize {
		line, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	return d.detect(lines), nil
}

// DetectFromLines classifies already-read lines. Only the first
// sampleSize lines are considered.
func (d *Detector) DetectFromLines(lines []string) *DetectionResult {
	if len(lines) > d.sampleSize {
		lines = lines[:d.sampleSize]
	}
	logLines := make([]*parser.LogLine, len(lines))
	for i, l := range lines {
		logLines[i] = &parser.LogLine{Content: l, LineNum: i + 1}
	}
	return d.detect(logLines)
}

func (d *Detector) detect(lines []*parser.LogLine) *DetectionResult {
	result := &DetectionResult{
		SampledLines: len(lines),
		Counts:       make(map[parser.EventKind]int),
	}
	samples := make(map[parser.EventKind]string)
	markers := d.classifier.Markers()

	var unmatchedIdle, unmatchedFinish, unmatchedRunning int

	for _, line := range lines {
		ev, err := d.classifier.ClassifyLine(line)
		if err != nil {
			var perr *parser.ParseError
			reason := err.Error()
			if errors.As(err, &perr) {
				reason = perr.Reason
			}
			result.Malformed = append(result.Malformed, MalformedLine{
				Line:    line.LineNum,
				Content: line.Content,
				Reason:  reason,
			})
			continue
		}

		result.Counts[ev.Kind]++
		if ev.Kind == parser.EventUnrecognized {
			lower := strings.ToLower(line.Content)
			switch {
			case strings.Contains(lower, "idle"):
				unmatchedIdle++
			case strings.Contains(lower, "finish"):
				unmatchedFinish++
			case strings.Contains(lower, "running"):
				unmatchedRunning++
			}
			continue
		}

		result.MatchedLines++
		if _, ok := samples[ev.Kind]; !ok {
			samples[ev.Kind] = line.Content
		}
		if ev.IdleStart && result.FirstIdle == nil {
			ts := ev.Timestamp
			result.FirstIdle = &ts
		}
	}

	for kind, sample := range samples {
		count := result.Counts[kind]
		result.Matches = append(result.Matches, MarkerMatch{
			Kind:       kind,
			Marker:     markerFor(markers, kind),
			Count:      count,
			Coverage:   float64(count) / float64(len(lines)),
			SampleLine: sample,
		})
	}
	sort.Slice(result.Matches, func(i, j int) bool {
		if result.Matches[i].Count != result.Matches[j].Count {
			return result.Matches[i].Count > result.Matches[j].Count
		}
		return result.Matches[i].Kind < result.Matches[j].Kind
	})

	result.Hints = hints(markers, result.Counts, unmatchedIdle, unmatchedFinish, unmatchedRunning)
	return result
}

// hints flags kinds that never matched while similar-looking lines exist.
func hints(m parser.Markers, counts map[parser.EventKind]int, idle, finish, running int) []string {
	var out []string
	if counts[parser.EventIdle] == 0 && idle > 0 {
		out = append(out, hint(idle, "idle", m.Idle))
	}
	if counts[parser.EventFinish] == 0 && finish > 0 {
		out = append(out, hint(finish, "finish", m.Finish))
	}
	if counts[parser.EventRunning] == 0 && running > 0 {
		out = append(out, hint(running, "running", m.Running))
	}
	return out
}

func hint(n int, kind, marker string) string {
	noun := "lines look"
	if n == 1 {
		noun = "line looks"
	}
	return fmt.Sprintf("%d %s like %s events but none contain marker %q", n, noun, kind, marker)
}

func markerFor(m parser.Markers, kind parser.EventKind) string {
	switch kind {
	case parser.EventIdle:
		return m.Idle
	case parser.EventFinish:
		return m.Finish
	case parser.EventRunning:
		return m.Running
	}
	return ""
}

// BestMatch returns the most frequent marker match, or nil if none.
func (r *DetectionResult) BestMatch() *MarkerMatch {
	if len(r.Matches) == 0 {
		return nil
	}
	return &r.Matches[0]
}

// HasMatch returns true if at least one marker matched.
func (r *DetectionResult) HasMatch() bool {
	return len(r.Matches) > 0
}

// Match returns the match for a kind, or nil.
func (r *DetectionResult) Match(kind parser.EventKind) *MarkerMatch {
	for i := range r.Matches {
		if r.Matches[i].Kind == kind {
			return &r.Matches[i]
		}
	}
	return nil
}
