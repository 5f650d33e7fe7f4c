package parser

import (
	"fmt"
	"regexp"
)

// Rule extracts one typed value from anywhere in a log.
// Int and float rules need a capture group holding the value; the first group is used.
type Rule struct {
	Key     string
	Kind    Kind
	pattern *regexp.Regexp
}

// NewRule creates a rule writing key from the first capture group of pattern.
// Returns error if the pattern is invalid or lacks the group its kind needs.
func NewRule(key, pattern string, kind Kind) (*Rule, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("rule %s: invalid regex pattern: %w", key, err)
	}

	if kind != KindFlag && re.NumSubexp() < 1 {
		return nil, fmt.Errorf("rule %s: %s pattern must have a capture group", key, kind)
	}

	return &Rule{Key: key, Kind: kind, pattern: re}, nil
}

// MustRule is like NewRule but panics on error.
// Intended for the static rule tables.
func MustRule(key, pattern string, kind Kind) *Rule {
	r, err := NewRule(key, pattern, kind)
	if err != nil {
		panic(err)
	}
	return r
}

// Pattern returns the source text of the rule's regex.
func (r *Rule) Pattern() string {
	return r.pattern.String()
}

// Apply searches text for the rule's pattern and stores the first match in rec.
// No match leaves rec untouched and is not an error.
func (r *Rule) Apply(text string, rec Record) error {
	m := r.pattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	capture := m[0]
	if len(m) > 1 {
		capture = m[1]
	}

	v, err := convert(r.Kind, r.Key, capture)
	if err != nil {
		return err
	}
	rec[r.Key] = v
	return nil
}

// RuleSet is a group of rules with distinct keys.
// Each rule scans the whole text on its own, so their order does not matter.
type RuleSet []*Rule

// NewRuleSet validates that no two rules share a key.
func NewRuleSet(rules ...*Rule) (RuleSet, error) {
	seen := make(map[string]bool, len(rules))
	for _, r := range rules {
		if seen[r.Key] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, r.Key)
		}
		seen[r.Key] = true
	}
	return RuleSet(rules), nil
}

// MustRuleSet is like NewRuleSet but panics on error.
func MustRuleSet(rules ...*Rule) RuleSet {
	rs, err := NewRuleSet(rules...)
	if err != nil {
		panic(err)
	}
	return rs
}

// Apply runs every rule over text.
// The first conversion failure aborts; values extracted before it stay in rec.
func (rs RuleSet) Apply(text string, rec Record) error {
	for _, r := range rs {
		if err := r.Apply(text, rec); err != nil {
			return err
		}
	}
	return nil
}
