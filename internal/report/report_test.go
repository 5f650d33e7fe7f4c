package report

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/juliosaraiva/planlog/internal/parser"
)

func boolPtr(b bool) *bool { return &b }

func sampleRecords() []parser.Record {
	return []parser.Record{
		{"domain": "gripper", "problem": "p01", "algorithm": "gbfs-1", "coverage": int64(1), "search_time": 2.0, "ff_rule_total_skew": 1.43},
		{"domain": "gripper", "problem": "p02", "algorithm": "gbfs-1", "coverage": int64(1), "search_time": 8.0},
		{"domain": "gripper", "problem": "p01", "algorithm": "gbfs-4", "coverage": int64(1), "search_time": 1.0},
		{"domain": "gripper", "problem": "p02", "algorithm": "gbfs-4", "coverage": int64(0)},
		{"domain": "blocks", "problem": "p01", "algorithm": "gbfs-1", "coverage": int64(0),
			"unexplained_errors": []string{"step add_search_time_us_per_expanded: division by zero"}},
		{"domain": "blocks", "problem": "p01", "algorithm": "gbfs-4", "coverage": int64(1), "ff_rule_total_skew": math.Inf(1)},
	}
}

func TestFunc_Apply(t *testing.T) {
	tests := []struct {
		name string
		f    Func
		vals []float64
		want float64
	}{
		{name: "sum", f: Sum, vals: []float64{1, 2, 3}, want: 6},
		{name: "empty func is sum", f: "", vals: []float64{1, 2}, want: 3},
		{name: "mean", f: Mean, vals: []float64{1, 2, 3}, want: 2},
		{name: "geometric mean", f: GeometricMean, vals: []float64{2, 8}, want: 4},
		{name: "geometric mean with zero", f: GeometricMean, vals: []float64{0, 8}, want: 0},
		{name: "geometric mean with inf", f: GeometricMean, vals: []float64{math.Inf(1), 1}, want: math.Inf(1)},
		{name: "min", f: Min, vals: []float64{3, 1, 2}, want: 1},
		{name: "max", f: Max, vals: []float64{3, 1, 2}, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.f.Apply(tt.vals)
			require.True(t, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	_, ok := Sum.Apply(nil)
	assert.False(t, ok, "empty input has no aggregate")
}

func TestParseFunc(t *testing.T) {
	f, err := ParseFunc("Geometric_Mean")
	require.NoError(t, err)
	assert.Equal(t, GeometricMean, f)

	f, err = ParseFunc("")
	require.NoError(t, err)
	assert.Equal(t, Sum, f)

	_, err = ParseFunc("median")
	assert.Error(t, err)
}

func TestAttribute_UnmarshalYAML(t *testing.T) {
	var attrs []Attribute
	src := `
- coverage
- name: search_time
  function: geometric_mean
- name: ff_rule_par_frac
  function: geometric_mean
  min_wins: false
`
	require.NoError(t, yaml.Unmarshal([]byte(src), &attrs))
	require.Len(t, attrs, 3)

	assert.Equal(t, Attribute{Name: "coverage", Function: Sum}, attrs[0])
	assert.Equal(t, GeometricMean, attrs[1].Function)
	assert.True(t, attrs[1].LowerIsBetter())
	assert.False(t, attrs[2].LowerIsBetter())

	err := yaml.Unmarshal([]byte("- name: x\n  function: median\n"), &attrs)
	assert.ErrorContains(t, err, "median")
}

func TestReport_Cells(t *testing.T) {
	r := New(sampleRecords(), Options{})

	assert.Equal(t, []string{"blocks", "gripper"}, r.Domains())
	assert.Equal(t, []string{"gbfs-1", "gbfs-4"}, r.Algorithms())

	coverage := Attribute{Name: "coverage", Function: Sum}
	v, ok := r.Cell(coverage, "gripper", "gbfs-1")
	require.True(t, ok)
	assert.Equal(t, 2.0, v)

	v, ok = r.Summary(coverage, "gbfs-4")
	require.True(t, ok)
	assert.Equal(t, 2.0, v)

	searchTime := Attribute{Name: "search_time", Function: GeometricMean}
	v, ok = r.Cell(searchTime, "gripper", "gbfs-1")
	require.True(t, ok)
	assert.InDelta(t, 4.0, v, 1e-9)

	_, ok = r.Cell(searchTime, "blocks", "gbfs-1")
	assert.False(t, ok, "no blocks run reports search_time")
}

func TestReport_RenderASCII(t *testing.T) {
	r := New(sampleRecords(), Options{
		Attributes: []Attribute{
			{Name: "coverage", Function: Sum, MinWins: boolPtr(false)},
			{Name: "ff_rule_total_skew", Function: GeometricMean},
		},
	})

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf))
	out := buf.String()

	assert.Contains(t, out, "coverage")
	assert.Contains(t, out, "gripper")
	assert.Contains(t, out, "GEOMETRIC MEAN", "ASCII footers are upper-cased by go-pretty")
	assert.Contains(t, out, "inf")
	assert.Contains(t, out, "1.43")
	assert.Contains(t, out, "Unexplained errors")
	assert.Contains(t, out, "division by zero")
}

func TestReport_RenderMarkdown(t *testing.T) {
	r := New(sampleRecords(), Options{
		Mode:       Markdown,
		Attributes: []Attribute{{Name: "coverage", Function: Sum, MinWins: boolPtr(false)}},
	})

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "## coverage"))
	assert.Contains(t, out, "| gripper |")
	assert.Contains(t, out, "**2**", "best gripper coverage is highlighted")
	assert.Contains(t, out, "## Unexplained errors")
}

func TestErrorList_DecodedJSON(t *testing.T) {
	rec := parser.Record{"unexplained_errors": []any{"a", "b"}}
	assert.Equal(t, []string{"a", "b"}, errorList(rec))
	assert.Nil(t, errorList(parser.Record{}))
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "3", formatValue(3))
	assert.Equal(t, "513.31", formatValue(513.306624))
	assert.Equal(t, "inf", formatValue(math.Inf(1)))
}
