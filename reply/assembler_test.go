package reply

import (
	"strings"
	"testing"
)

func float64p(v float64) *float64 { return &v }

func textLines(segments []Segment) []string {
	var lines []string
	for _, s := range segments {
		if s.Type == SegmentText {
			lines = append(lines, s.Text)
		}
	}
	return lines
}

func imageCount(segments []Segment) int {
	n := 0
	for _, s := range segments {
		if s.Type == SegmentImage {
			n++
		}
	}
	return n
}

func TestParseOutputMode(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected OutputMode
		wantErr  bool
	}{
		{name: "empty defaults to normal", input: "", expected: OutputNormal},
		{name: "minimal", input: "minimal", expected: OutputMinimal},
		{name: "normal", input: "normal", expected: OutputNormal},
		{name: "verbose", input: "verbose", expected: OutputVerbose},
		{name: "case folded", input: "Verbose", expected: OutputVerbose},
		{name: "unknown is error", input: "chatty", expected: OutputNormal, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOutputMode(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseOutputMode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("ParseOutputMode(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestBuildMinimalIsImageOnly(t *testing.T) {
	a := NewAssembler(OutputMinimal, false)
	segments := a.Build(Params{Seed: 42, Prompt: "1girl", Image: []byte{1}})

	if len(segments) != 1 {
		t.Fatalf("got %d segments, want 1", len(segments))
	}
	if segments[0].Type != SegmentImage {
		t.Errorf("segment type = %q, want image", segments[0].Type)
	}
}

func TestBuildNormal(t *testing.T) {
	a := NewAssembler(OutputNormal, false)
	segments := a.Build(Params{Seed: 42, Prompt: "1girl", NegativePrompt: "lowres", CFGScale: 7, Image: []byte{1}})

	lines := textLines(segments)
	if len(lines) != 2 {
		t.Fatalf("got %d text lines %v, want 2", len(lines), lines)
	}
	if !strings.Contains(lines[0], "42") {
		t.Errorf("first line = %q, want seed", lines[0])
	}
	if !strings.Contains(lines[1], "1girl") {
		t.Errorf("second line = %q, want prompt", lines[1])
	}
	if imageCount(segments) != 1 {
		t.Errorf("image segments = %d, want 1", imageCount(segments))
	}
	// Normal mode carries no negative prompt.
	for _, l := range lines {
		if strings.Contains(l, "lowres") {
			t.Errorf("line %q leaks negative prompt in normal mode", l)
		}
	}
}

func TestBuildVerbose(t *testing.T) {
	a := NewAssembler(OutputVerbose, false)
	segments := a.Build(Params{
		Seed:           42,
		Prompt:         "1girl",
		NegativePrompt: "lowres",
		CFGScale:       11,
		Strength:       float64p(0.6),
		ModelLabel:     "sd-v1.5",
		Image:          []byte{1},
	})

	joined := strings.Join(textLines(segments), "\n")
	for _, want := range []string{"42", "1girl", "lowres", "11", "0.6", "sd-v1.5", IdentifierLine} {
		if !strings.Contains(joined, want) {
			t.Errorf("verbose output missing %q in:\n%s", want, joined)
		}
	}
	if imageCount(segments) != 1 {
		t.Errorf("image segments = %d, want 1", imageCount(segments))
	}
}

func TestBuildVerboseTextToImageOmitsStrength(t *testing.T) {
	a := NewAssembler(OutputVerbose, false)
	segments := a.Build(Params{Seed: 1, Prompt: "p", CFGScale: 7, Image: []byte{1}})

	for _, line := range textLines(segments) {
		if strings.Contains(line, "strength") {
			t.Errorf("line %q present, want no strength for text-to-image", line)
		}
	}
}

func TestBuildCensorFlag(t *testing.T) {
	a := NewAssembler(OutputMinimal, true)
	segments := a.Build(Params{Image: []byte{1}})

	if !segments[0].Censored {
		t.Error("image segment not marked censored")
	}
}
