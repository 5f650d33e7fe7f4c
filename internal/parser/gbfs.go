package parser

import (
	"fmt"
	"strings"
)

// GBFSLazyParser handles logs of the lazy greedy best-first search planner.
// Example:
//
//	Num objects: 4
//	[GBFS] Start node h_value: 3
//	[Search] Search time: 0 ms (743179 ns)
//	[Search] Number of expanded states: 4
//	[GBFS] Plan cost: 3
//	[GBFS] Plan length: 3
//	[FFHeuristic] Summary
//	[ProgramStatistics] Num executions: 5
//	[Total] Peak memory usage: 513306624 bytes
type GBFSLazyParser struct {
	rules    RuleSet
	pipeline *Pipeline
}

// NewGBFSLazyParser creates a parser for lazy GBFS run logs.
func NewGBFSLazyParser() *GBFSLazyParser {
	return &GBFSLazyParser{
		rules: MustRuleSet(
			MustRule("cost", `\[GBFS\] Plan cost: (\d+)`, KindInt),
			MustRule("length", `\[GBFS\] Plan length: (\d+)`, KindInt),
			MustRule("initial_h_value", `\[GBFS\] Start node h_value: (\d+)`, KindInt),

			MustRule("search_time_ms", `\[Search\] Search time: (\d+) ms`, KindInt),
			MustRule("search_time_ns", `\[Search\] Search time: \d+ ms \((\d+) ns\)`, KindInt),
			MustRule("num_expanded", `\[Search\] Number of expanded states: (\d+)`, KindInt),
			MustRule("num_generated", `\[Search\] Number of generated states: (\d+)`, KindInt),
			MustRule("num_pruned", `\[Search\] Number of pruned states: (\d+)`, KindInt),

			MustRule("total_time_ms", `\[Total\] Total time: (\d+) ms`, KindInt),
			MustRule("total_time_ns", `\[Total\] Total time: \d+ ms \((\d+) ns\)`, KindInt),
			MustRule("peak_memory_usage_bytes", `\[Total\] Peak memory usage: (\d+) bytes`, KindInt),

			MustRule("unsolvable", `Task is unsolvable!`, KindFlag),
			MustRule("invalid", `Plan invalid`, KindFlag),

			MustRule("num_objects", `Num objects: (\d+)`, KindInt),
		),
		pipeline: MustPipeline(
			Step{Name: "process_invalid", Run: flagToInt("invalid")},
			Step{Name: "process_unsolvable", Run: flagToInt("unsolvable")},
			Step{Name: "add_search_time", Run: scaled("search_time_ms", "search_time", 1000)},
			Step{Name: "add_total_time", Run: scaled("total_time_ms", "total_time", 1000)},
			Step{Name: "add_search_time_us_per_expanded", Run: addSearchTimePerExpanded},
			Step{Name: "add_memory", Run: scaled("peak_memory_usage_bytes", "memory", 1000000)},
			Step{Name: "add_coverage", After: []string{"process_unsolvable"}, Run: addCoverage},
			Step{Name: "parse_datalog_summaries", Run: ParseSummaries},
		),
	}
}

// Name returns the parser identifier.
func (p *GBFSLazyParser) Name() string {
	return "gbfs-lazy"
}

// Description returns a human-readable description.
func (p *GBFSLazyParser) Description() string {
	return "Lazy GBFS search log with datalog summaries"
}

// CanParse checks for the search and plan prefixes the planner prints.
func (p *GBFSLazyParser) CanParse(text string) bool {
	return strings.Contains(text, "[GBFS]") || strings.Contains(text, "[Search]")
}

// Parse extracts the top-level attributes, then runs the derived steps.
func (p *GBFSLazyParser) Parse(text string, rec Record) error {
	if err := p.rules.Apply(text, rec); err != nil {
		return err
	}
	return p.pipeline.Run(text, rec)
}

// Steps returns the derived step names in execution order.
func (p *GBFSLazyParser) Steps() []string {
	return p.pipeline.Names()
}

// flagToInt replaces a presence flag with an explicit 0 or 1.
func flagToInt(key string) StepFunc {
	return func(_ string, rec Record) error {
		if rec.Has(key) {
			rec[key] = int64(1)
		} else {
			rec[key] = int64(0)
		}
		return nil
	}
}

// scaled stores src divided by div under dst when src is present.
func scaled(src, dst string, div float64) StepFunc {
	return func(_ string, rec Record) error {
		if v, ok := rec.Number(src); ok {
			rec[dst] = v / div
		}
		return nil
	}
}

func addSearchTimePerExpanded(_ string, rec Record) error {
	ns, ok := rec.Number("search_time_ns")
	if !ok {
		return nil
	}
	// Runs that expand no states fail here instead of skipping the attribute.
	expanded, ok := rec.Number("num_expanded")
	if !ok {
		return fmt.Errorf("search_time_us_per_expanded: num_expanded absent: %w", ErrDivisionHazard)
	}
	if expanded == 0 {
		return fmt.Errorf("search_time_us_per_expanded: num_expanded is 0: %w", ErrDivisionHazard)
	}
	rec["search_time_us_per_expanded"] = ns / 1000 / expanded
	return nil
}

func addCoverage(_ string, rec Record) error {
	if rec.Has("length") || rec.Truthy("unsolvable") {
		rec["coverage"] = int64(1)
	} else {
		rec["coverage"] = int64(0)
	}
	return nil
}
