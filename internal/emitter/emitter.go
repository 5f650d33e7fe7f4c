// Package emitter handles JSON serialization of run records.
package emitter

import (
	"bufio"
	"encoding/json"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/juliosaraiva/planlog/internal/parser"
)

// Options configures the JSON emitter behavior.
type Options struct {
	// Pretty enables indented JSON output.
	// Not recommended for pipe output (breaks NDJSON).
	Pretty bool

	// Fields limits output to only these attributes.
	// Empty means output all attributes.
	Fields []string

	// AddTimestamp adds _ingestTime with current timestamp.
	AddTimestamp bool

	// OmitFailed skips records carrying unexplained errors.
	OmitFailed bool
}

// Emitter serializes run records to JSON and writes to output.
type Emitter struct {
	writer  *bufio.Writer
	options Options
	encoder *json.Encoder
}

// New creates a new JSON emitter writing to the given output.
func New(output io.Writer, opts Options) *Emitter {
	writer := bufio.NewWriter(output)
	encoder := json.NewEncoder(writer)

	if opts.Pretty {
		encoder.SetIndent("", "  ")
	}

	// Don't escape HTML characters (cleaner output)
	encoder.SetEscapeHTML(false)

	return &Emitter{
		writer:  writer,
		options: opts,
		encoder: encoder,
	}
}

// Emit writes a record as JSON to the output.
// Each record is written as a single line (NDJSON format).
func (e *Emitter) Emit(rec parser.Record) error {
	if e.options.OmitFailed && rec.Has(UnexplainedErrors) {
		return nil
	}

	if err := e.encoder.Encode(e.buildOutput(rec)); err != nil {
		return err
	}

	// Flush immediately so consumers see each run as it finishes
	return e.writer.Flush()
}

// buildOutput constructs the output map from a record.
func (e *Emitter) buildOutput(rec parser.Record) map[string]any {
	var output map[string]any

	if len(e.options.Fields) > 0 {
		// Filter to only requested fields
		output = make(map[string]any)
		for _, field := range e.options.Fields {
			if val, ok := rec[field]; ok {
				output[field] = encodeValue(val)
			}
		}
	} else {
		output = make(map[string]any, len(rec)+1)
		for k, v := range rec {
			output[k] = encodeValue(v)
		}
	}

	if e.options.AddTimestamp {
		output["_ingestTime"] = time.Now().UTC().Format(time.RFC3339Nano)
	}

	return output
}

// Close flushes any remaining data.
func (e *Emitter) Close() error {
	return e.writer.Flush()
}

// encodeValue replaces floats JSON cannot represent with their names and
// keeps integral floats distinguishable from integers.
func encodeValue(v any) any {
	f, ok := v.(float64)
	if !ok {
		return v
	}
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	return jsonFloat(f)
}

// jsonFloat always carries a fraction or exponent, so 0.0 does not read back as 0.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	s := strconv.FormatFloat(float64(f), 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return []byte(s), nil
}
