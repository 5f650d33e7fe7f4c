package parser

import "strings"

// GroundTaskParser handles logs of the task grounding step.
// Example:
//
//	Num fluent atoms: 90901
//	Num derived atoms: 0
//	Num ground actions: 180600
//	Num ground axioms: 0
//	Total task grounding time: 5049 ms
type GroundTaskParser struct {
	rules    RuleSet
	pipeline *Pipeline
}

// NewGroundTaskParser creates a parser for ground task logs.
func NewGroundTaskParser() *GroundTaskParser {
	return &GroundTaskParser{
		rules: MustRuleSet(
			MustRule("num_fluent_atoms", `Num fluent atoms: (\d+)`, KindInt),
			MustRule("num_derived_atoms", `Num derived atoms: (\d+)`, KindInt),
			MustRule("num_ground_actions", `Num ground actions: (\d+)`, KindInt),
			MustRule("num_ground_axioms", `Num ground axioms: (\d+)`, KindInt),
			MustRule("total_task_grounding_time", `Total task grounding time: (\d+) ms`, KindInt),
		),
		pipeline: MustPipeline(
			// Placeholder marker set on every ground task record.
			Step{Name: "add_dummy_attribute", Run: func(_ string, rec Record) error {
				rec["dummy_attribute"] = int64(1)
				return nil
			}},
		),
	}
}

// Name returns the parser identifier.
func (p *GroundTaskParser) Name() string {
	return "ground-task"
}

// Description returns a human-readable description.
func (p *GroundTaskParser) Description() string {
	return "Ground task instantiation log (atom, action and axiom counts)"
}

// CanParse checks for the grounding summary lines.
func (p *GroundTaskParser) CanParse(text string) bool {
	return strings.Contains(text, "Total task grounding time:") || strings.Contains(text, "Num ground actions:")
}

// Parse extracts the grounding counts and sets the marker attribute.
func (p *GroundTaskParser) Parse(text string, rec Record) error {
	if err := p.rules.Apply(text, rec); err != nil {
		return err
	}
	return p.pipeline.Run(text, rec)
}
