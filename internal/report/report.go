// Package report aggregates run records into per-attribute tables.
package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/juliosaraiva/planlog/internal/parser"
)

// Keys identifying a run inside a record. They are set outside the parser.
const (
	KeyDomain            = "domain"
	KeyProblem           = "problem"
	KeyAlgorithm         = "algorithm"
	KeyUnexplainedErrors = "unexplained_errors"
)

// Options configures report rendering.
type Options struct {
	Attributes []Attribute
	Mode       Mode

	// ErrorAttributes are the columns of the unexplained-errors table.
	ErrorAttributes []string
}

// Report holds the records of one or more experiments.
type Report struct {
	opts       Options
	records    []parser.Record
	domains    []string
	algorithms []string
}

// New indexes records by domain and algorithm.
func New(records []parser.Record, opts Options) *Report {
	domains := map[string]bool{}
	algorithms := map[string]bool{}
	for _, rec := range records {
		domains[stringAttr(rec, KeyDomain)] = true
		algorithms[stringAttr(rec, KeyAlgorithm)] = true
	}

	return &Report{
		opts:       opts,
		records:    records,
		domains:    sortedKeys(domains),
		algorithms: sortedKeys(algorithms),
	}
}

// Domains returns the domains in sorted order.
func (r *Report) Domains() []string { return r.domains }

// Algorithms returns the algorithms in sorted order.
func (r *Report) Algorithms() []string { return r.algorithms }

// Cell aggregates attr over the runs of one domain and algorithm.
// Runs without the attribute are skipped; ok is false if none has it.
func (r *Report) Cell(attr Attribute, domain, algorithm string) (float64, bool) {
	var vals []float64
	for _, rec := range r.records {
		if stringAttr(rec, KeyDomain) != domain || stringAttr(rec, KeyAlgorithm) != algorithm {
			continue
		}
		if v, ok := rec.Number(attr.Name); ok {
			vals = append(vals, v)
		}
	}
	return attr.Function.Apply(vals)
}

// Summary aggregates the domain cells of one algorithm column.
func (r *Report) Summary(attr Attribute, algorithm string) (float64, bool) {
	var vals []float64
	for _, d := range r.domains {
		if v, ok := r.Cell(attr, d, algorithm); ok {
			vals = append(vals, v)
		}
	}
	return attr.Function.Apply(vals)
}

// Render writes one table per attribute, followed by the runs with unexplained errors.
func (r *Report) Render(w io.Writer) error {
	for _, attr := range r.opts.Attributes {
		if _, err := io.WriteString(w, r.renderAttribute(attr)+"\n\n"); err != nil {
			return err
		}
	}

	if errs := r.renderErrors(); errs != "" {
		if _, err := io.WriteString(w, errs+"\n"); err != nil {
			return err
		}
	}
	return nil
}

func (r *Report) renderAttribute(attr Attribute) string {
	header := append([]string{"domain"}, r.algorithms...)
	t := newTable(r.opts.Mode, attr.Name, header...)

	for _, d := range r.domains {
		vals := make([]float64, len(r.algorithms))
		present := make([]bool, len(r.algorithms))
		for i, a := range r.algorithms {
			vals[i], present[i] = r.Cell(attr, d, a)
		}
		t.AppendRow(r.row(label(d), attr, vals, present))
	}

	vals := make([]float64, len(r.algorithms))
	present := make([]bool, len(r.algorithms))
	for i, a := range r.algorithms {
		vals[i], present[i] = r.Summary(attr, a)
	}
	t.AppendFooter(r.row(attr.Function.Label(), attr, vals, present))

	out := render(r.opts.Mode, t)
	if r.opts.Mode == Markdown {
		out = "## " + attr.Name + "\n\n" + out
	}
	return out
}

// row formats one table row and highlights the best value in Markdown mode.
func (r *Report) row(title string, attr Attribute, vals []float64, present []bool) table.Row {
	best, bestOK := bestValue(attr, vals, present)

	row := table.Row{title}
	for i, v := range vals {
		if !present[i] {
			row = append(row, "-")
			continue
		}
		cell := formatValue(v)
		if bestOK && v == best && r.opts.Mode == Markdown {
			cell = "**" + cell + "**"
		}
		row = append(row, cell)
	}
	return row
}

// bestValue returns the winning value, or false if all present values tie.
func bestValue(attr Attribute, vals []float64, present []bool) (float64, bool) {
	var best float64
	found, distinct := false, false
	for i, v := range vals {
		if !present[i] {
			continue
		}
		if !found {
			best, found = v, true
			continue
		}
		if v != best {
			distinct = true
		}
		if (attr.LowerIsBetter() && v < best) || (!attr.LowerIsBetter() && v > best) {
			best = v
		}
	}
	return best, found && distinct
}

func (r *Report) renderErrors() string {
	var failed []parser.Record
	for _, rec := range r.records {
		if hasErrors(rec) {
			failed = append(failed, rec)
		}
	}
	if len(failed) == 0 {
		return ""
	}

	var cols []string
	for _, c := range r.opts.ErrorAttributes {
		if c != KeyUnexplainedErrors {
			cols = append(cols, c)
		}
	}
	if len(cols) == 0 {
		cols = []string{KeyDomain, KeyProblem, KeyAlgorithm}
	}
	header := append(append([]string{}, cols...), KeyUnexplainedErrors)
	t := table.NewWriter()
	row := make(table.Row, len(header))
	for i, h := range header {
		row[i] = h
	}
	t.AppendHeader(row)

	for _, rec := range failed {
		row := make(table.Row, 0, len(header))
		for _, c := range cols {
			row = append(row, label(stringAttr(rec, c)))
		}
		row = append(row, strings.Join(errorList(rec), "; "))
		t.AppendRow(row)
	}

	if r.opts.Mode == Markdown {
		return "## Unexplained errors\n\n" + t.RenderMarkdown()
	}
	t.SetStyle(table.StyleLight)
	t.SetTitle("Unexplained errors")
	return t.Render()
}

func hasErrors(rec parser.Record) bool {
	return len(errorList(rec)) > 0
}

// errorList reads unexplained_errors as stored in memory ([]string) or
// decoded from JSON ([]any).
func errorList(rec parser.Record) []string {
	switch v := rec[KeyUnexplainedErrors].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			out = append(out, fmt.Sprint(e))
		}
		return out
	case string:
		if v != "" {
			return []string{v}
		}
	}
	return nil
}

func formatValue(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsNaN(v):
		return "nan"
	case v == math.Trunc(v) && math.Abs(v) < 1e15:
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func stringAttr(rec parser.Record, key string) string {
	v, ok := rec[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func label(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
