package report

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Mode controls the output format.
type Mode int

const (
	ASCII    Mode = iota // Fixed-width terminal tables
	Markdown             // GitHub-flavoured Markdown tables
)

// ParseMode maps "ascii" or "markdown" to a Mode.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(name) {
	case "", "ascii", "text":
		return ASCII, nil
	case "markdown", "md":
		return Markdown, nil
	}
	return ASCII, fmt.Errorf("unknown report mode %q", name)
}

// newTable returns a go-pretty writer styled for mode.
// The first column holds row labels; the rest are right-aligned numbers.
func newTable(m Mode, title string, header ...string) table.Writer {
	w := table.NewWriter()
	if m == ASCII {
		w.SetStyle(table.StyleLight)
		w.SetTitle(title)
	}

	row := make(table.Row, len(header))
	for i, h := range header {
		row[i] = h
	}
	w.AppendHeader(row)

	cfgs := make([]table.ColumnConfig, 0, len(header))
	for i := 2; i <= len(header); i++ {
		cfgs = append(cfgs, table.ColumnConfig{Number: i, Align: text.AlignRight})
	}
	w.SetColumnConfigs(cfgs)
	return w
}

func render(m Mode, w table.Writer) string {
	switch m {
	case Markdown:
		return w.RenderMarkdown()
	default:
		return w.Render()
	}
}
