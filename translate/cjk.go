// Package translate rewrites CJK prompt fragments into the backend's target
// language. Translation is strictly best-effort: any failure keeps the
// original text and is logged, never surfaced to the caller.
//
// cjk.go contains pure run-detection atoms.
package translate

import "unicode"

// cjkTables lists the unicode ranges treated as CJK for run detection.
var cjkTables = []*unicode.RangeTable{
	unicode.Han,
	unicode.Hiragana,
	unicode.Katakana,
	unicode.Hangul,
}

// IsCJK reports whether the rune belongs to a CJK script.
func IsCJK(r rune) bool {
	return unicode.IsOneOf(cjkTables, r)
}

// Run is one contiguous CJK fragment inside a prompt string, identified by
// byte offsets into the original string.
type Run struct {
	Start int
	End   int
	Text  string
}

// FindRuns returns every contiguous CJK run in s, in positional order.
// Returns nil when s contains no CJK characters.
func FindRuns(s string) []Run {
	var runs []Run
	start := -1
	for i, r := range s {
		if IsCJK(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			runs = append(runs, Run{Start: start, End: i, Text: s[start:i]})
			start = -1
		}
	}
	if start >= 0 {
		runs = append(runs, Run{Start: start, End: len(s), Text: s[start:]})
	}
	return runs
}

// SpliceRuns replaces each run in s with the replacement at the same index.
// Text outside the runs is preserved byte-for-byte. The caller guarantees
// len(replacements) == len(runs) and that runs are in positional order.
func SpliceRuns(s string, runs []Run, replacements []string) string {
	out := make([]byte, 0, len(s))
	prev := 0
	for i, run := range runs {
		out = append(out, s[prev:run.Start]...)
		out = append(out, replacements[i]...)
		prev = run.End
	}
	out = append(out, s[prev:]...)
	return string(out)
}
