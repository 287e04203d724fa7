package metrics

import "github.com/ccollicutt/schedcompare/pkg/parser"

// scanState is the mutable state of one extraction pass.
type scanState struct {
	source string

	previousIdle   *int64
	idleCount      int
	finishes       []int64
	lastFinish     int64
	switches       int
	firstIdleStart *int64

	linesProcessed int
	linesMatched   int
}

func newScanState(source string) *scanState {
	return &scanState{
		source:   source,
		finishes: make([]int64, 0),
	}
}

// process applies one classified line. Idle events repeating the timestamp
// of an idle event on the directly preceding line are collapsed; any other
// line breaks the run.
func (s *scanState) process(ev parser.Event) {
	s.linesProcessed++

	if ev.Kind != parser.EventIdle {
		s.previousIdle = nil
	}

	switch ev.Kind {
	case parser.EventIdle:
		s.linesMatched++
		if s.previousIdle == nil || *s.previousIdle != ev.Timestamp {
			s.idleCount++
			ts := ev.Timestamp
			s.previousIdle = &ts
		}
		if ev.IdleStart && s.firstIdleStart == nil {
			ts := ev.Timestamp
			s.firstIdleStart = &ts
		}

	case parser.EventFinish:
		s.linesMatched++
		s.finishes = append(s.finishes, ev.Timestamp)
		if ev.Timestamp > s.lastFinish {
			s.lastFinish = ev.Timestamp
		}

	case parser.EventRunning:
		s.linesMatched++
		s.switches++
	}
}

func (s *scanState) finalize(total int) *TraceMetrics {
	return &TraceMetrics{
		TotalExecutionTime:   total,
		IdleCount:            s.idleCount,
		IdlePercentage:       IdlePercentage(s.idleCount, total),
		TaskFinishTimestamps: s.finishes,
		LastFinishTime:       s.lastFinish,
		ContextSwitchCount:   s.switches,
		FirstIdleStart:       s.firstIdleStart,
		Stats: ScanStats{
			Source:         s.source,
			LinesProcessed: s.linesProcessed,
			LinesMatched:   s.linesMatched,
		},
	}
}
