// Package prompt turns raw chat input into validated positive/negative term
// lists for the generation backend.
//
// rules.go contains the forbidden-term rule set. Rules are parsed from a
// single configuration string and replaced wholesale whenever configuration
// changes; readers always observe a complete list.
package prompt

import (
	"strings"
	"sync/atomic"
)

// Rule is one forbidden-term rule. Immutable once constructed.
//
// A strict rule rejects the whole request when it matches a positive term.
// A non-strict rule only strips the matching term.
type Rule struct {
	Pattern string
	Strict  bool
}

// Matches reports whether the rule applies to the given term.
// Matching is a case-insensitive substring test.
func (r Rule) Matches(term string) bool {
	if r.Pattern == "" {
		return false
	}
	return strings.Contains(strings.ToLower(term), strings.ToLower(r.Pattern))
}

// ParseRules parses a configuration value into a rule list.
//
// Rules are separated by commas or newlines. A trailing "!" marks the rule
// strict. Blank entries are dropped.
//
// Example:
//
//	ParseRules("nsfw!, watermark\nlowres")
//	// => [{nsfw true} {watermark false} {lowres false}]
func ParseRules(raw string) []Rule {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '\n'
	})

	rules := make([]Rule, 0, len(fields))
	for _, field := range fields {
		pattern := strings.TrimSpace(field)
		if pattern == "" {
			continue
		}
		strict := strings.HasSuffix(pattern, "!")
		if strict {
			pattern = strings.TrimSpace(strings.TrimSuffix(pattern, "!"))
			if pattern == "" {
				continue
			}
		}
		rules = append(rules, Rule{Pattern: pattern, Strict: strict})
	}
	return rules
}

// RuleSet holds the active forbidden rules behind an atomic pointer.
//
// Replace swaps the whole list; Active returns the current complete list.
// There is never a partially updated view.
type RuleSet struct {
	rules atomic.Pointer[[]Rule]
}

// NewRuleSet creates a RuleSet from a configuration value.
func NewRuleSet(raw string) *RuleSet {
	rs := &RuleSet{}
	rs.Replace(ParseRules(raw))
	return rs
}

// Replace installs a new complete rule list.
func (rs *RuleSet) Replace(rules []Rule) {
	rs.rules.Store(&rules)
}

// Reload parses the configuration value and installs the result.
func (rs *RuleSet) Reload(raw string) {
	rs.Replace(ParseRules(raw))
}

// Active returns the current rule list. The returned slice must not be
// modified by the caller.
func (rs *RuleSet) Active() []Rule {
	p := rs.rules.Load()
	if p == nil {
		return nil
	}
	return *p
}
