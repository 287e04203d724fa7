package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// Default marker strings emitted by the scheduler simulations.
const (
	DefaultIdleMarker      = "Idle"
	DefaultIdleStartMarker = "Idle starts"
	DefaultFinishMarker    = "finished at time"
	DefaultRunningMarker   = "is running"
)

// idleSeparator precedes the timestamp on idle lines.
const idleSeparator = ": "

// Markers holds the substrings that identify each line category.
type Markers struct {
	// Idle identifies idle-marker lines.
	Idle string `yaml:"idle"`

	// IdleStart identifies the idle lines that open an idle period. It only
	// tags idle events and never changes classification. Empty disables it.
	IdleStart string `yaml:"idle_start"`

	// Finish identifies task-finish lines.
	Finish string `yaml:"finish"`

	// Running identifies task-running lines.
	Running string `yaml:"running"`
}

// DefaultMarkers returns the markers used by the reference traces.
func DefaultMarkers() Markers {
	return Markers{
		Idle:      DefaultIdleMarker,
		IdleStart: DefaultIdleStartMarker,
		Finish:    DefaultFinishMarker,
		Running:   DefaultRunningMarker,
	}
}

// EventKind enumerates line categories.
type EventKind int

const (
	EventUnrecognized EventKind = iota
	EventIdle
	EventFinish
	EventRunning
)

func (k EventKind) String() string {
	switch k {
	case EventIdle:
		return "idle"
	case EventFinish:
		return "finish"
	case EventRunning:
		return "running"
	default:
		return "unrecognized"
	}
}

// Event is the classification of one trace line.
type Event struct {
	Kind EventKind

	// Timestamp is set for EventIdle and EventFinish.
	Timestamp int64

	// IdleStart is true for idle events that also carry the idle-start marker.
	IdleStart bool
}

// Classifier maps trace lines to events. Categories are checked in the fixed
// order idle, finish, running; the first match wins.
type Classifier struct {
	markers Markers
}

// NewClassifier creates a classifier for the given markers.
func NewClassifier(markers Markers) *Classifier {
	return &Classifier{markers: markers}
}

// Markers returns the markers the classifier matches against.
func (c *Classifier) Markers() Markers {
	return c.markers
}

// Classify classifies a single line of text. A marker line whose timestamp
// cannot be parsed yields a *ParseError without position information.
func (c *Classifier) Classify(line string) (Event, error) {
	switch {
	case strings.Contains(line, c.markers.Idle):
		idx := strings.Index(line, idleSeparator)
		if idx < 0 {
			return Event{}, &ParseError{
				Content: line,
				Reason:  fmt.Sprintf("idle line has no %q separator", idleSeparator),
			}
		}
		ts, err := parseTimestamp(line[idx+len(idleSeparator):])
		if err != nil {
			return Event{}, &ParseError{Content: line, Reason: "invalid idle timestamp", Err: err}
		}
		return Event{
			Kind:      EventIdle,
			Timestamp: ts,
			IdleStart: c.markers.IdleStart != "" && strings.Contains(line, c.markers.IdleStart),
		}, nil

	case strings.Contains(line, c.markers.Finish):
		fields := strings.Fields(line)
		ts, err := parseTimestamp(fields[len(fields)-1])
		if err != nil {
			return Event{}, &ParseError{Content: line, Reason: "invalid finish timestamp", Err: err}
		}
		return Event{Kind: EventFinish, Timestamp: ts}, nil

	case strings.Contains(line, c.markers.Running):
		return Event{Kind: EventRunning}, nil
	}

	return Event{Kind: EventUnrecognized}, nil
}

// ClassifyLine classifies a trace line and annotates any *ParseError with
// the line's source, number and byte offset.
func (c *Classifier) ClassifyLine(line *LogLine) (Event, error) {
	ev, err := c.Classify(line.Content)
	if err != nil {
		if perr, ok := err.(*ParseError); ok {
			perr.Source = line.Source
			perr.Line = line.LineNum
			perr.Offset = line.Offset
		}
		return Event{}, err
	}
	return ev, nil
}

var defaultClassifier = NewClassifier(DefaultMarkers())

// Classify classifies a line using the default markers.
func Classify(line string) (Event, error) {
	return defaultClassifier.Classify(line)
}

// parseTimestamp strips every '.' from a decimal-formatted token and parses
// the remaining digits as an opaque integer key.
func parseTimestamp(token string) (int64, error) {
	digits := strings.TrimSpace(strings.ReplaceAll(token, ".", ""))
	if digits == "" {
		return 0, fmt.Errorf("empty timestamp token %q", token)
	}
	return strconv.ParseInt(digits, 10, 64)
}
