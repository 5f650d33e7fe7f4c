package parser

import (
	"fmt"
	"strings"
)

// Registry manages run-log parsers and format auto-detection.
// It maintains an ordered list of parsers; the first whose CanParse
// accepts a log handles it.
type Registry struct {
	// parsers holds all registered parsers in priority order.
	parsers []LogParser

	// forcedFormat specifies a parser by name, skipping auto-detection.
	forcedFormat string
}

// RegistryOption configures the Registry.
type RegistryOption func(*Registry)

// WithForcedFormat specifies a parser by name, skipping auto-detection.
func WithForcedFormat(format string) RegistryOption {
	return func(r *Registry) {
		r.forcedFormat = strings.ToLower(format)
	}
}

// NewRegistry creates a new parser registry with the built-in parsers.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		parsers: make([]LogParser, 0, 2),
	}

	// Apply options
	for _, opt := range opts {
		opt(r)
	}

	// Search logs are checked before grounding logs.
	r.Register(NewGBFSLazyParser())
	r.Register(NewGroundTaskParser())

	return r
}

// Register adds a parser to the registry.
// Parsers are tried in the order they are registered.
func (r *Registry) Register(p LogParser) {
	r.parsers = append(r.parsers, p)
}

// GetParser returns the parser for the given format name.
// Returns nil if no parser with that name is registered.
func (r *Registry) GetParser(name string) LogParser {
	name = strings.ToLower(name)
	for _, p := range r.parsers {
		if strings.ToLower(p.Name()) == name {
			return p
		}
	}
	return nil
}

// ParserInfo describes a registered parser.
type ParserInfo struct {
	Name        string
	Description string
}

// ListParsers returns information about all registered parsers.
func (r *Registry) ListParsers() []ParserInfo {
	result := make([]ParserInfo, len(r.parsers))
	for i, p := range r.parsers {
		result[i] = ParserInfo{Name: p.Name(), Description: p.Description()}
	}
	return result
}

// Detect returns the parser that should handle text.
// Uses the forced format if specified, otherwise the first parser whose CanParse accepts it.
func (r *Registry) Detect(text string) (LogParser, error) {
	if r.forcedFormat != "" {
		p := r.GetParser(r.forcedFormat)
		if p == nil {
			return nil, fmt.Errorf("unknown format: %s", r.forcedFormat)
		}
		return p, nil
	}

	for _, p := range r.parsers {
		if p.CanParse(text) {
			return p, nil
		}
	}
	return nil, ErrNoMatch
}

// Parse parses a run log into a new Record.
// On a parse failure the partial Record is returned together with the error.
func (r *Registry) Parse(text string) (Record, error) {
	p, err := r.Detect(text)
	if err != nil {
		return nil, err
	}

	rec := NewRecord()
	if err := p.Parse(text, rec); err != nil {
		return rec, fmt.Errorf("%s: %w", p.Name(), err)
	}
	return rec, nil
}

// ParseInto parses text and merges the result into rec. Parsed attributes
// replace earlier values except for the protected keys rec already holds,
// such as domain or algorithm. It returns the protected keys that were kept.
// Partial results are merged even when parsing fails.
func (r *Registry) ParseInto(text string, rec Record, protected []string) ([]string, error) {
	parsed, err := r.Parse(text)
	if parsed == nil {
		return nil, err
	}
	return rec.Merge(parsed, protected), err
}
