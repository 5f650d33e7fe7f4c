// Package parser extracts typed run records from planner run logs.
package parser

import (
	"errors"
	"sort"
)

// Common errors returned by parsers.
var (
	ErrNoMatch          = errors.New("log does not match any parser")
	ErrMalformedNumeric = errors.New("malformed numeric value")
	ErrDivisionHazard   = errors.New("division by zero or absent denominator")
	ErrDuplicateKey     = errors.New("duplicate attribute key")
)

// Record is the attribute mapping produced for one run.
// A missing key means the attribute was not observed, which is not the same as zero.
// Values are int64, float64, bool or string.
type Record map[string]any

// NewRecord creates an empty Record.
func NewRecord() Record {
	return make(Record)
}

// Has reports whether key is present.
func (r Record) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// Int returns the value of key as an int64.
// Floats are not converted; ok is false for them.
func (r Record) Int(key string) (int64, bool) {
	switch v := r[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	}
	return 0, false
}

// Float returns the value of key as a float64.
func (r Record) Float(key string) (float64, bool) {
	v, ok := r[key].(float64)
	return v, ok
}

// Number returns any numeric value of key widened to float64.
func (r Record) Number(key string) (float64, bool) {
	if i, ok := r.Int(key); ok {
		return float64(i), true
	}
	return r.Float(key)
}

// Truthy reports whether key holds a non-zero, non-empty value.
func (r Record) Truthy(key string) bool {
	switch v := r[key].(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case int64:
		return v != 0
	case int:
		return v != 0
	case float64:
		return v != 0
	}
	return true
}

// Merge copies the entries of src into r, replacing values r already holds,
// except for protected keys that r already has. It returns the protected keys
// that were kept, sorted.
func (r Record) Merge(src Record, protected []string) []string {
	keep := make(map[string]bool, len(protected))
	for _, k := range protected {
		keep[k] = true
	}

	var kept []string
	for k, v := range src {
		if _, exists := r[k]; exists && keep[k] {
			kept = append(kept, k)
			continue
		}
		r[k] = v
	}
	sort.Strings(kept)
	return kept
}

// LogParser turns the text of one run log into attributes.
// Each parser handles one log shape (lazy GBFS search, ground task, ...).
type LogParser interface {
	// Name returns the unique identifier for this parser.
	// Used for format selection via CLI flags.
	Name() string

	// Description returns a human-readable description of the log shape.
	Description() string

	// CanParse performs a quick check whether text looks like this parser's log.
	CanParse(text string) bool

	// Parse extracts attributes from text into rec.
	// Attributes written before a failure remain in rec.
	Parse(text string, rec Record) error
}
