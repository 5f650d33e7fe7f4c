package parser

import (
	"regexp"
	"strings"

	"github.com/juliosaraiva/planlog/internal/reader"
)

// Section identifies the subsystem whose statistics a summary block reports.
type Section int

const (
	// SectionNone means no recognised section is open; statistic lines are ignored.
	SectionNone Section = iota
	SectionSuccessorGenerator
	SectionAxiomEvaluator
	SectionFFHeuristic
)

var sectionNames = map[string]Section{
	"Successor generator": SectionSuccessorGenerator,
	"Axiom evaluator":     SectionAxiomEvaluator,
	"FFHeuristic":         SectionFFHeuristic,
}

// LookupSection maps a summary title to its Section.
// Unknown titles map to SectionNone.
func LookupSection(name string) Section {
	return sectionNames[name]
}

// Prefix returns the attribute prefix for the section, or "" for SectionNone.
func (s Section) Prefix() string {
	switch s {
	case SectionSuccessorGenerator:
		return "succgen"
	case SectionAxiomEvaluator:
		return "axiom"
	case SectionFFHeuristic:
		return "ff"
	}
	return ""
}

// String returns the summary title of the section.
func (s Section) String() string {
	switch s {
	case SectionSuccessorGenerator:
		return "Successor generator"
	case SectionAxiomEvaluator:
		return "Axiom evaluator"
	case SectionFFHeuristic:
		return "FFHeuristic"
	}
	return "none"
}

var sectionMarker = regexp.MustCompile(`^\[([^\]]+)\]\s+Summary$`)

// statistic matches one statistic line shape inside a section.
// The first capture group is stored under primary; an optional second group under alt.
type statistic struct {
	pattern *regexp.Regexp
	primary string
	alt     string
	kind    Kind
}

// count matches `[Category] Label: <int>`.
func count(category, label, suffix string) statistic {
	return statistic{
		pattern: regexp.MustCompile(`^\[` + category + `\]\s+` + label + `:\s*(\d+)\s*$`),
		primary: suffix,
		kind:    KindInt,
	}
}

// timing matches `[Category] Label - description: <n> unit [(<n> ns)]`.
func timing(category, label, unit, primary, alt string) statistic {
	return statistic{
		pattern: regexp.MustCompile(`^\[` + category + `\]\s+` + label +
			`\s*-\s*.*:\s*(\d+)\s*` + unit + `(?:\s*\(\s*(\d+)\s*ns\s*\))?\s*$`),
		primary: primary,
		alt:     alt,
		kind:    KindInt,
	}
}

// ratio matches a case-insensitive float line; skew lines also accept "inf".
func ratio(category, body, suffix string, allowInf bool) statistic {
	value := `([0-9]*\.?[0-9]+)`
	if allowInf {
		value = `(inf|[0-9]*\.?[0-9]+)`
	}
	return statistic{
		pattern: regexp.MustCompile(`(?i)^\[` + category + `\]\s+` + body + `:\s*` + value + `\s*$`),
		primary: suffix,
		kind:    KindFloat,
	}
}

const (
	progCategory = `ProgramStatistics`
	ruleCategory = `AggregatedRuleStatistics`
)

// statistics lists the section matchers in priority order; the first match wins.
var statistics = []statistic{
	count(progCategory, `Num executions`, "prog_num_exec"),
	timing(progCategory, `T_par`, "ms", "prog_par_ms", "prog_par_ns"),
	timing(progCategory, `T_total`, "ms", "prog_T_total_ms", "prog_T_total_ns"),
	timing(progCategory, `T_avg`, "us", "prog_T_avg_us", "prog_T_avg_ns"),
	ratio(progCategory, `T_par\s*/\s*T_total\s*-\s*Parallel fraction`, "prog_par_frac", false),

	count(ruleCategory, `Number of executions`, "rule_num_exec"),
	count(ruleCategory, `Number of bindings`, "rule_num_bindings"),
	count(ruleCategory, `Number of samples`, "rule_samples"),
	timing(ruleCategory, `T_initialize`, "ms", "rule_T_init_ms", "rule_T_init_ns"),
	timing(ruleCategory, `T_generate`, "ms", "rule_T_generate_ms", "rule_T_generate_ns"),
	timing(ruleCategory, `T_pending`, "ms", "rule_T_pending_ms", "rule_T_pending_ns"),
	timing(ruleCategory, `T_total`, "ms", "rule_T_total_ms", "rule_T_total_ns"),
	ratio(ruleCategory, `T_par\s*/\s*T_total\s*-\s*Parallel fraction`, "rule_par_frac", false),
	ratio(ruleCategory, `T_total_max\s*/\s*T_total_med.*Total skew`, "rule_total_skew", true),
	ratio(ruleCategory, `T_avg_max\s*/\s*T_avg_med.*Average skew`, "rule_avg_skew", true),
}

// apply writes the statistic's values for line under prefix.
// It reports false if the line does not match.
func (s statistic) apply(line, prefix string, rec Record) (bool, error) {
	m := s.pattern.FindStringSubmatch(line)
	if m == nil {
		return false, nil
	}

	key := prefix + "_" + s.primary
	v, err := convert(s.kind, key, m[1])
	if err != nil {
		return true, err
	}
	rec[key] = v

	if s.alt != "" && len(m) > 2 && m[2] != "" {
		altKey := prefix + "_" + s.alt
		alt, err := parseInt(altKey, m[2])
		if err != nil {
			return true, err
		}
		rec[altKey] = alt
	}
	return true, nil
}

// ParseSummaries scans text line by line, tracking the open summary section,
// and writes section-prefixed statistics into rec.
// Lines outside a recognised section and unrecognised statistic lines are ignored.
func ParseSummaries(text string, rec Record) error {
	current := SectionNone

	// A single line may span the whole log.
	lines := reader.New(strings.NewReader(text), reader.WithMaxLineSize(len(text)+1))
	return lines.Each(func(l reader.Line) error {
		line := strings.TrimSpace(l.Text)
		if line == "" {
			return nil
		}

		if m := sectionMarker.FindStringSubmatch(line); m != nil {
			current = LookupSection(m[1])
			return nil
		}

		if current == SectionNone {
			return nil
		}

		for _, s := range statistics {
			matched, err := s.apply(line, current.Prefix(), rec)
			if err != nil {
				return err
			}
			if matched {
				break
			}
		}
		return nil
	})
}
