// Package prompt turns raw chat input into validated positive/negative term
// lists for the generation backend.
//
// compiler.go contains the Compile molecule. It is pure: no I/O, no shared
// state; the result is built once per invocation and never mutated.
package prompt

import (
	"fmt"
	"regexp"
	"strings"
)

// NegativeDelimiter separates positive from negative terms inside the raw
// prompt text ("masterpiece, 1girl :: lowres, bad hands").
const NegativeDelimiter = "::"

// Compiled is the normalized prompt derived from one invocation.
type Compiled struct {
	Positive []string
	Negative []string
}

// Prompt returns the positive terms joined for the backend payload.
func (c *Compiled) Prompt() string {
	return strings.Join(c.Positive, ", ")
}

// NegativePrompt returns the negative terms joined for the backend payload.
func (c *Compiled) NegativePrompt() string {
	return strings.Join(c.Negative, ", ")
}

// Defaults are the plugin-wide base terms prepended when the user does not
// pass the override flag.
type Defaults struct {
	BasePrompt   string
	BaseNegative string
}

// EmptyPromptError reports that no usable positive term remained.
type EmptyPromptError struct{}

func (e *EmptyPromptError) Error() string { return "prompt: no prompt text given" }

// LocaleKey returns the message key for the command boundary.
func (e *EmptyPromptError) LocaleKey() string { return "expect-prompt" }

// ForbiddenTermError reports that a strict rule matched a positive term.
// It carries a locale key, not free text; the offending term is kept for
// logging only.
type ForbiddenTermError struct {
	Term string
}

func (e *ForbiddenTermError) Error() string {
	return fmt.Sprintf("prompt: forbidden term %q", e.Term)
}

// LocaleKey returns the message key for the command boundary.
func (e *ForbiddenTermError) LocaleKey() string { return "forbidden-word" }

// imageRefPattern matches one markdown-style embedded image reference.
var imageRefPattern = regexp.MustCompile(`!\[[^\]]*\]\((https?://[^\s)]+)\)`)

// ExtractImageRef removes at most one embedded image reference from the raw
// text and returns its URL alongside the remaining prompt source.
func ExtractImageRef(raw string) (url string, rest string) {
	loc := imageRefPattern.FindStringSubmatchIndex(raw)
	if loc == nil {
		return "", raw
	}
	url = raw[loc[2]:loc[3]]
	rest = strings.TrimSpace(raw[:loc[0]] + raw[loc[1]:])
	return url, rest
}

// Compile builds a Compiled prompt from the stripped prompt source.
//
// Processing order:
//  1. split source on the first NegativeDelimiter into positive/negative
//     segments; the undesired option extends the negative segment
//  2. unless override is set, prepend configured base terms
//  3. apply forbidden rules: strict match aborts, non-strict match strips
//     only the offending term
//
// Returns *EmptyPromptError when no positive term survives, or
// *ForbiddenTermError on a strict rule hit. No side effects.
func Compile(source, undesired string, override bool, defaults Defaults, rules []Rule) (*Compiled, error) {
	posSource, negSource := splitNegative(source)

	positive := splitTerms(posSource)
	negative := splitTerms(negSource)
	negative = append(negative, splitTerms(undesired)...)

	if len(positive) == 0 && defaults.BasePrompt == "" {
		return nil, &EmptyPromptError{}
	}

	if !override {
		positive = append(splitTerms(defaults.BasePrompt), positive...)
		negative = append(splitTerms(defaults.BaseNegative), negative...)
	}

	filtered := positive[:0:0]
	for _, term := range positive {
		verdict := matchRules(term, rules)
		if verdict == verdictReject {
			return nil, &ForbiddenTermError{Term: term}
		}
		if verdict == verdictKeep {
			filtered = append(filtered, term)
		}
	}

	if len(filtered) == 0 {
		return nil, &EmptyPromptError{}
	}

	return &Compiled{Positive: filtered, Negative: negative}, nil
}

type ruleVerdict int

const (
	verdictKeep ruleVerdict = iota
	verdictStrip
	verdictReject
)

// matchRules applies every rule to one term. A strict match wins over any
// number of non-strict matches.
func matchRules(term string, rules []Rule) ruleVerdict {
	verdict := verdictKeep
	for _, rule := range rules {
		if !rule.Matches(term) {
			continue
		}
		if rule.Strict {
			return verdictReject
		}
		verdict = verdictStrip
	}
	return verdict
}

// splitNegative splits the prompt source on the first NegativeDelimiter.
func splitNegative(source string) (positive, negative string) {
	if idx := strings.Index(source, NegativeDelimiter); idx >= 0 {
		return source[:idx], source[idx+len(NegativeDelimiter):]
	}
	return source, ""
}

// splitTerms splits a comma-separated term list, trimming whitespace and
// dropping empties. Order is preserved.
func splitTerms(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	terms := make([]string, 0, len(parts))
	for _, part := range parts {
		if term := strings.TrimSpace(part); term != "" {
			terms = append(terms, term)
		}
	}
	return terms
}
