package emitter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/juliosaraiva/planlog/internal/parser"
)

// UnexplainedErrors lists the failures recorded for a run.
const UnexplainedErrors = "unexplained_errors"

// WriteProperties stores rec as an indented JSON object at path.
// The file is written to a temporary sibling first and renamed into place.
func WriteProperties(path string, rec parser.Record) error {
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		out[k] = encodeValue(v)
	}

	data, err := json.MarshalIndent(out, "", "    ")
	if err != nil {
		return fmt.Errorf("encode properties: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), ".properties-*")
	if err != nil {
		return fmt.Errorf("write properties: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write properties: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write properties: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write properties: %w", err)
	}
	return nil
}

// LoadProperties reads a properties file written by WriteProperties or by
// the experiment tooling. A missing file yields an empty record.
// Integral numbers decode to int64, other numbers to float64, and the
// strings "inf", "-inf" and "nan" back to floats.
func LoadProperties(path string) (parser.Record, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return parser.NewRecord(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read properties: %w", err)
	}
	return DecodeProperties(data)
}

// DecodeProperties decodes one JSON object into a record.
func DecodeProperties(data []byte) (parser.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode properties: %w", err)
	}

	rec := make(parser.Record, len(raw))
	for k, v := range raw {
		rec[k] = decodeValue(v)
	}
	return rec, nil
}

func decodeValue(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := strconv.ParseInt(x.String(), 10, 64); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case string:
		switch x {
		case "inf":
			return math.Inf(1)
		case "-inf":
			return math.Inf(-1)
		case "nan":
			return math.NaN()
		}
		return x
	case []any:
		for i := range x {
			x[i] = decodeValue(x[i])
		}
		return x
	}
	return v
}
