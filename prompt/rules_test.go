package prompt

import (
	"reflect"
	"testing"
)

func TestParseRules(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []Rule
	}{
		{
			name:     "empty string yields no rules",
			raw:      "",
			expected: []Rule{},
		},
		{
			name:     "comma separated",
			raw:      "watermark, lowres",
			expected: []Rule{{Pattern: "watermark"}, {Pattern: "lowres"}},
		},
		{
			name:     "newline separated",
			raw:      "watermark\nlowres",
			expected: []Rule{{Pattern: "watermark"}, {Pattern: "lowres"}},
		},
		{
			name:     "trailing bang marks strict",
			raw:      "nsfw!, watermark",
			expected: []Rule{{Pattern: "nsfw", Strict: true}, {Pattern: "watermark"}},
		},
		{
			name:     "blank entries dropped",
			raw:      "watermark,, ,lowres",
			expected: []Rule{{Pattern: "watermark"}, {Pattern: "lowres"}},
		},
		{
			name:     "lone bang dropped",
			raw:      "!, watermark",
			expected: []Rule{{Pattern: "watermark"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseRules(tt.raw)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("ParseRules(%q) = %v, want %v", tt.raw, got, tt.expected)
			}
		})
	}
}

func TestRuleMatches(t *testing.T) {
	tests := []struct {
		name     string
		rule     Rule
		term     string
		expected bool
	}{
		{
			name:     "exact match",
			rule:     Rule{Pattern: "nsfw"},
			term:     "nsfw",
			expected: true,
		},
		{
			name:     "substring match",
			rule:     Rule{Pattern: "nsfw"},
			term:     "totally nsfw art",
			expected: true,
		},
		{
			name:     "case insensitive",
			rule:     Rule{Pattern: "NSFW"},
			term:     "nsfw",
			expected: true,
		},
		{
			name:     "no match",
			rule:     Rule{Pattern: "nsfw"},
			term:     "landscape",
			expected: false,
		},
		{
			name:     "empty pattern never matches",
			rule:     Rule{Pattern: ""},
			term:     "anything",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rule.Matches(tt.term); got != tt.expected {
				t.Errorf("Matches(%q) = %v, want %v", tt.term, got, tt.expected)
			}
		})
	}
}

func TestRuleSetReplaceIsWholesale(t *testing.T) {
	rs := NewRuleSet("watermark, lowres")
	if got := len(rs.Active()); got != 2 {
		t.Fatalf("initial rule count = %d, want 2", got)
	}

	rs.Reload("nsfw!")
	active := rs.Active()
	if len(active) != 1 {
		t.Fatalf("reloaded rule count = %d, want 1", len(active))
	}
	if active[0].Pattern != "nsfw" || !active[0].Strict {
		t.Errorf("reloaded rule = %+v, want strict nsfw", active[0])
	}
}

func TestRuleSetEmptyConfig(t *testing.T) {
	rs := NewRuleSet("")
	if got := rs.Active(); len(got) != 0 {
		t.Errorf("Active() = %v, want empty", got)
	}
}
