package report

import (
	"fmt"
	"math"
	"strings"

	"gopkg.in/yaml.v3"
)

// Func aggregates the values of one attribute over several runs.
type Func string

// Supported aggregation functions.
const (
	Sum           Func = "sum"
	Mean          Func = "mean"
	GeometricMean Func = "geometric_mean"
	Min           Func = "min"
	Max           Func = "max"
)

// ParseFunc validates an aggregation function name. Empty means Sum.
func ParseFunc(name string) (Func, error) {
	switch f := Func(strings.ToLower(name)); f {
	case "":
		return Sum, nil
	case Sum, Mean, GeometricMean, Min, Max:
		return f, nil
	}
	return "", fmt.Errorf("unknown aggregation function %q", name)
}

// Apply aggregates vals. ok is false when vals is empty.
func (f Func) Apply(vals []float64) (float64, bool) {
	if len(vals) == 0 {
		return 0, false
	}

	switch f {
	case Mean:
		var s float64
		for _, v := range vals {
			s += v
		}
		return s / float64(len(vals)), true
	case GeometricMean:
		// Product of v^(1/n); a zero value yields 0.
		exp := 1 / float64(len(vals))
		p := 1.0
		for _, v := range vals {
			p *= math.Pow(v, exp)
		}
		return p, true
	case Min:
		m := vals[0]
		for _, v := range vals[1:] {
			m = math.Min(m, v)
		}
		return m, true
	case Max:
		m := vals[0]
		for _, v := range vals[1:] {
			m = math.Max(m, v)
		}
		return m, true
	default:
		var s float64
		for _, v := range vals {
			s += v
		}
		return s, true
	}
}

// Label is the summary row title for the function.
func (f Func) Label() string {
	switch f {
	case "", Sum:
		return "Sum"
	case Mean:
		return "Mean"
	case GeometricMean:
		return "Geometric mean"
	case Min:
		return "Min"
	case Max:
		return "Max"
	}
	return string(f)
}

// Attribute selects a record attribute for the report.
type Attribute struct {
	Name     string `yaml:"name"`
	Function Func   `yaml:"function,omitempty"`

	// MinWins marks lower values as better. Defaults to true.
	MinWins *bool `yaml:"min_wins,omitempty"`
}

// LowerIsBetter reports how cells of the attribute compare.
func (a Attribute) LowerIsBetter() bool {
	return a.MinWins == nil || *a.MinWins
}

// UnmarshalYAML accepts either a bare attribute name or a mapping.
func (a *Attribute) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		a.Name = node.Value
		a.Function = Sum
		return nil
	}

	type plain Attribute
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	f, err := ParseFunc(string(p.Function))
	if err != nil {
		return fmt.Errorf("attribute %s: %w", p.Name, err)
	}
	p.Function = f
	*a = Attribute(p)
	return nil
}
