package parser

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
)

// LineSource yields raw log lines in input order.
type LineSource interface {
	// Next returns the next line, or io.EOF when the source is exhausted.
	Next(ctx context.Context) (*Line, error)

	// Close releases resources.
	Close() error
}

// FileSource implements LineSource over a list of log files, read in order.
// An optional per-file sample size caps how many lines each file
// contributes, so large files stay bounded before they reach the parser.
type FileSource struct {
	files      []string
	sampleSize int

	currentFile    *os.File
	currentScanner *bufio.Scanner
	currentSource  string
	currentLine    int
	fileIndex      int
}

// FileOption configures a FileSource.
type FileOption func(*FileSource)

// WithSampleSize limits reading to the first n lines of each file.
// Zero or negative means unlimited.
func WithSampleSize(n int) FileOption {
	return func(s *FileSource) {
		s.sampleSize = n
	}
}

// NewFileSource creates a LineSource that reads from the given files.
func NewFileSource(files []string, opts ...FileOption) *FileSource {
	s := &FileSource{
		files:     files,
		fileIndex: -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Next returns the next raw line. Returns io.EOF when all files have been
// exhausted.
func (s *FileSource) Next(ctx context.Context) (*Line, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if s.currentScanner == nil {
			if err := s.openNextFile(); err != nil {
				return nil, err
			}
		}

		if s.sampleSize > 0 && s.currentLine >= s.sampleSize {
			// Sample cap reached for this file, move on.
			if err := s.closeCurrentFile(); err != nil {
				return nil, err
			}
			continue
		}

		if s.currentScanner.Scan() {
			s.currentLine++
			return &Line{
				Content: s.currentScanner.Text(),
				Source:  s.currentSource,
				LineNum: s.currentLine,
			}, nil
		}

		if err := s.currentScanner.Err(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", s.currentSource, err)
		}

		if err := s.closeCurrentFile(); err != nil {
			return nil, err
		}
	}
}

// Close releases resources.
func (s *FileSource) Close() error {
	return s.closeCurrentFile()
}

func (s *FileSource) openNextFile() error {
	s.fileIndex++
	if s.fileIndex >= len(s.files) {
		return io.EOF
	}

	path := s.files[s.fileIndex]
	f, err := os.Open(path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return fmt.Errorf("opening log file %s: %w", path, err)
	}

	s.currentFile = f
	s.currentScanner = bufio.NewScanner(f)
	s.currentScanner.Buffer(make([]byte, 0, 64*1024), 1024*1024) // 1MB max line size
	s.currentSource = path
	s.currentLine = 0

	return nil
}

func (s *FileSource) closeCurrentFile() error {
	if s.currentFile != nil {
		err := s.currentFile.Close()
		s.currentFile = nil
		s.currentScanner = nil
		return err
	}
	return nil
}

// ReadEntries drains a LineSource through a fresh StderrParser and returns
// the parsed entries plus the number of lines read. Each source file gets
// its own parser so a dangling multi-line statement never leaks across
// file boundaries.
func ReadEntries(ctx context.Context, source LineSource, opts ...Option) ([]LogEntry, int, error) {
	var (
		entries   []LogEntry
		lineCount int
		current   string
		p         *StderrParser
	)

	for {
		line, err := source.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, lineCount, err
		}
		lineCount++

		if p == nil || line.Source != current {
			if p != nil {
				if entry := p.Flush(); entry != nil {
					entries = append(entries, *entry)
				}
			}
			p = NewStderrParser(opts...)
			current = line.Source
		}

		entry, err := p.ParseLine(line.Content)
		if err != nil {
			return nil, lineCount, fmt.Errorf("parsing %s:%d: %w", line.Source, line.LineNum, err)
		}
		if entry != nil {
			entries = append(entries, *entry)
		}
	}

	if p != nil {
		if entry := p.Flush(); entry != nil {
			entries = append(entries, *entry)
		}
	}

	return entries, lineCount, nil
}
