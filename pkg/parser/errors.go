package parser

import (
	"errors"
	"fmt"
)

// Sentinel errors for the two extraction failure kinds. Use errors.Is to
// test for them; the concrete types carry the details.
var (
	ErrSourceUnavailable = errors.New("trace source unavailable")
	ErrParse             = errors.New("trace parse error")
)

// SourceUnavailableError reports a trace that could not be opened or read.
type SourceUnavailableError struct {
	Source string
	Err    error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("trace source %s unavailable: %v", e.Source, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

// Is reports whether target is ErrSourceUnavailable.
func (e *SourceUnavailableError) Is(target error) bool {
	return target == ErrSourceUnavailable
}

// ParseError reports a marker line whose timestamp token is not an integer.
// Source, Line and Offset are zero when the line was classified on its own.
type ParseError struct {
	Source  string
	Line    int
	Offset  int64
	Content string
	Reason  string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Source == "" && e.Line == 0 {
		return fmt.Sprintf("parsing %q: %s", e.Content, e.Reason)
	}
	return fmt.Sprintf("%s:%d (byte %d): parsing %q: %s", e.Source, e.Line, e.Offset, e.Content, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is reports whether target is ErrParse.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}
