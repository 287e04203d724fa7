package parser

import (
	"bufio"
	"context"
	"io"
	"os"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// maxLineSize bounds a single trace line.
const maxLineSize = 1024 * 1024

// lineScanner splits raw bytes into lines and decodes each one as ISO-8859-1,
// which maps every byte to a rune and therefore never fails.
type lineScanner struct {
	source  string
	scanner *bufio.Scanner
	decoder *encoding.Decoder

	lineNum   int
	consumed  int64
	lineStart int64
}

func newLineScanner(source string, r io.Reader) *lineScanner {
	l := &lineScanner{
		source:  source,
		decoder: charmap.ISO8859_1.NewDecoder(),
	}
	l.scanner = bufio.NewScanner(r)
	l.scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	l.scanner.Split(l.split)
	return l
}

// split wraps bufio.ScanLines to record where each line starts in the raw
// stream. ScanLines only advances when it yields a token.
func (l *lineScanner) split(data []byte, atEOF bool) (int, []byte, error) {
	advance, token, err := bufio.ScanLines(data, atEOF)
	if advance > 0 {
		l.lineStart = l.consumed
		l.consumed += int64(advance)
	}
	return advance, token, err
}

func (l *lineScanner) next(ctx context.Context) (*LogLine, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if !l.scanner.Scan() {
		if err := l.scanner.Err(); err != nil {
			return nil, &SourceUnavailableError{Source: l.source, Err: err}
		}
		return nil, io.EOF
	}

	l.lineNum++
	decoded, err := l.decoder.Bytes(l.scanner.Bytes())
	if err != nil {
		// ISO-8859-1 has no invalid input; keep the raw bytes if it ever happens.
		decoded = append([]byte(nil), l.scanner.Bytes()...)
	}

	return &LogLine{
		Content: string(decoded),
		Source:  l.source,
		LineNum: l.lineNum,
		Offset:  l.lineStart,
	}, nil
}

// FileSource implements TraceSource for a trace file on disk.
// The file is opened on the first call to Next.
type FileSource struct {
	path string

	file    *os.File
	scanner *lineScanner
	done    bool
}

// NewFileSource creates a TraceSource that reads the given file.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name returns the file path.
func (s *FileSource) Name() string {
	return s.path
}

// Next returns the next line of the file.
// Returns *SourceUnavailableError if the file cannot be opened or read.
func (s *FileSource) Next(ctx context.Context) (*LogLine, error) {
	if s.done {
		return nil, io.EOF
	}

	if s.scanner == nil {
		if err := s.open(); err != nil {
			return nil, err
		}
	}

	line, err := s.scanner.next(ctx)
	if err == io.EOF {
		s.done = true
		if cerr := s.Close(); cerr != nil {
			return nil, &SourceUnavailableError{Source: s.path, Err: cerr}
		}
	}
	return line, err
}

// Close releases the file handle. It is safe to call more than once.
func (s *FileSource) Close() error {
	if s.file != nil {
		err := s.file.Close()
		s.file = nil
		return err
	}
	return nil
}

func (s *FileSource) open() error {
	f, err := os.Open(s.path) // #nosec G304 -- user-provided trace paths are expected
	if err != nil {
		return &SourceUnavailableError{Source: s.path, Err: err}
	}
	s.file = f
	s.scanner = newLineScanner(s.path, f)
	return nil
}

// ReaderSource implements TraceSource over an arbitrary reader, such as
// standard input or an in-memory trace.
type ReaderSource struct {
	name    string
	reader  io.Reader
	scanner *lineScanner
}

// NewReaderSource creates a TraceSource reading from r. The name is used in
// errors and reports. If r is an io.Closer it is closed by Close.
func NewReaderSource(name string, r io.Reader) *ReaderSource {
	return &ReaderSource{
		name:    name,
		reader:  r,
		scanner: newLineScanner(name, r),
	}
}

// Name returns the name given at construction.
func (s *ReaderSource) Name() string {
	return s.name
}

// Next returns the next line from the reader.
func (s *ReaderSource) Next(ctx context.Context) (*LogLine, error) {
	return s.scanner.next(ctx)
}

// Close closes the underlying reader if it supports closing.
func (s *ReaderSource) Close() error {
	if c, ok := s.reader.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
