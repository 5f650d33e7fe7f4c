// Package reader provides line-based reading of run logs.
package reader

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Default configuration values.
const (
	DefaultMaxLineSize = 1024 * 1024 // 1MB max line size
	DefaultBufferSize  = 64 * 1024   // 64KB initial buffer
)

// Line represents a single line read from the input.
type Line struct {
	// Text contains the line content (without newline).
	Text string

	// Number is the 1-based line number in the input.
	Number int
}

// LineReader reads lines from an io.Reader synchronously.
type LineReader struct {
	scanner    *bufio.Scanner
	lineNumber int
	maxSize    int
}

// Option configures the LineReader.
type Option func(*LineReader)

// WithMaxLineSize sets the maximum allowed line size.
// Lines exceeding this stop reading with bufio.ErrTooLong.
func WithMaxLineSize(size int) Option {
	return func(r *LineReader) {
		r.maxSize = size
	}
}

// New creates a LineReader from an io.Reader.
func New(input io.Reader, opts ...Option) *LineReader {
	reader := &LineReader{
		maxSize: DefaultMaxLineSize,
	}

	// Apply options
	for _, opt := range opts {
		opt(reader)
	}

	// Create scanner with custom buffer
	scanner := bufio.NewScanner(input)
	bufSize := DefaultBufferSize
	if reader.maxSize < bufSize {
		bufSize = reader.maxSize
	}
	scanner.Buffer(make([]byte, bufSize), reader.maxSize)

	reader.scanner = scanner
	return reader
}

// Each calls fn for every line in order.
// It stops at the first error returned by fn or by the underlying reader.
func (r *LineReader) Each(fn func(Line) error) error {
	for r.scanner.Scan() {
		r.lineNumber++
		if err := fn(Line{Text: r.scanner.Text(), Number: r.lineNumber}); err != nil {
			return err
		}
	}

	// Check for scanner errors (not EOF)
	if err := r.scanner.Err(); err != nil {
		return fmt.Errorf("line %d: %w", r.lineNumber+1, err)
	}
	return nil
}

// ReadFile loads a whole run log into memory.
func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read log: %w", err)
	}
	return string(data), nil
}
