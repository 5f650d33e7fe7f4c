package parser

import (
	"fmt"
)

// StepFunc reads the log text and the attributes gathered so far and may add or
// overwrite attributes.
type StepFunc func(text string, rec Record) error

// Step is a named derived-attribute function.
type Step struct {
	Name string

	// After names the steps whose output this step reads.
	// They must appear earlier in the pipeline.
	After []string

	Run StepFunc
}

// StepError reports which step of a pipeline failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Pipeline runs derived-attribute steps in a fixed order.
type Pipeline struct {
	steps []Step
}

// NewPipeline validates step names and dependencies.
// Every name listed in a step's After must belong to an earlier step.
func NewPipeline(steps ...Step) (*Pipeline, error) {
	seen := make(map[string]bool, len(steps))
	for i, s := range steps {
		if s.Name == "" || s.Run == nil {
			return nil, fmt.Errorf("pipeline step %d: name and func are required", i)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("pipeline step %s: duplicate name", s.Name)
		}
		for _, dep := range s.After {
			if !seen[dep] {
				return nil, fmt.Errorf("pipeline step %s: dependency %s must run earlier", s.Name, dep)
			}
		}
		seen[s.Name] = true
	}
	return &Pipeline{steps: steps}, nil
}

// MustPipeline is like NewPipeline but panics on error.
func MustPipeline(steps ...Step) *Pipeline {
	p, err := NewPipeline(steps...)
	if err != nil {
		panic(err)
	}
	return p
}

// Names returns the step names in execution order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.Name
	}
	return names
}

// Run executes the steps in order and stops at the first failure.
// Attributes written before the failure are kept.
func (p *Pipeline) Run(text string, rec Record) error {
	for _, s := range p.steps {
		if err := s.Run(text, rec); err != nil {
			return &StepError{Step: s.Name, Err: err}
		}
	}
	return nil
}
