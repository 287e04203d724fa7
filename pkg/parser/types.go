// Package parser reads scheduler execution traces and classifies their lines.
package parser

// LogLine is a single decoded line of a trace.
type LogLine struct {
	// Content is the decoded line text without the trailing newline.
	Content string

	// Source is the trace this line came from (file path or stream name).
	Source string

	// LineNum is the 1-based line number in the source.
	LineNum int

	// Offset is the byte offset of the start of the line in the raw source.
	Offset int64
}
