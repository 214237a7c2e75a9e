package translate

import (
	"reflect"
	"testing"
)

func TestFindRuns(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "no cjk",
			input:    "masterpiece, 1girl",
			expected: nil,
		},
		{
			name:     "single run",
			input:    "1girl, 白色连衣裙",
			expected: []string{"白色连衣裙"},
		},
		{
			name:     "multiple runs",
			input:    "少女, solo, 黄昏的街道",
			expected: []string{"少女", "黄昏的街道"},
		},
		{
			name:     "run at end of string",
			input:    "best quality, 樱花",
			expected: []string{"樱花"},
		},
		{
			name:     "japanese kana",
			input:    "かわいい, cat ears",
			expected: []string{"かわいい"},
		},
		{
			name:     "hangul",
			input:    "soft light, 바다",
			expected: []string{"바다"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs := FindRuns(tt.input)
			var texts []string
			for _, r := range runs {
				texts = append(texts, r.Text)
			}
			if !reflect.DeepEqual(texts, tt.expected) {
				t.Errorf("FindRuns(%q) = %v, want %v", tt.input, texts, tt.expected)
			}
		})
	}
}

func TestFindRunsOffsets(t *testing.T) {
	input := "a猫b"
	runs := FindRuns(input)
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	if runs[0].Start != 1 || runs[0].End != 4 {
		t.Errorf("run offsets = [%d,%d), want [1,4)", runs[0].Start, runs[0].End)
	}
	if input[runs[0].Start:runs[0].End] != "猫" {
		t.Errorf("offset slice = %q, want %q", input[runs[0].Start:runs[0].End], "猫")
	}
}

func TestSpliceRunsPreservesSurroundingText(t *testing.T) {
	input := "1girl, 白色连衣裙, scenery, 黄昏"
	runs := FindRuns(input)
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}

	out := SpliceRuns(input, runs, []string{"white dress", "dusk"})
	want := "1girl, white dress, scenery, dusk"
	if out != want {
		t.Errorf("SpliceRuns() = %q, want %q", out, want)
	}
}

func TestSpliceRunsNoRuns(t *testing.T) {
	input := "plain ascii"
	if out := SpliceRuns(input, nil, nil); out != input {
		t.Errorf("SpliceRuns() = %q, want input unchanged", out)
	}
}
