// Package reply assembles the outgoing multi-part message for one
// generation result and schedules optional auto-recall of sent messages.
package reply

import (
	"fmt"
	"strings"
)

// OutputMode controls reply verbosity.
type OutputMode string

const (
	// OutputMinimal sends the image only.
	OutputMinimal OutputMode = "minimal"

	// OutputNormal sends seed line, prompt line, and the image.
	OutputNormal OutputMode = "normal"

	// OutputVerbose adds model label, cfg scale, strength, negative
	// prompt, and the identifier line.
	OutputVerbose OutputMode = "verbose"
)

// IdentifierLine is the fixed footer appended in verbose mode.
const IdentifierLine = "generated by paintbot"

// ParseOutputMode parses a configuration value, defaulting to OutputNormal.
func ParseOutputMode(s string) (OutputMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(OutputNormal):
		return OutputNormal, nil
	case string(OutputMinimal):
		return OutputMinimal, nil
	case string(OutputVerbose):
		return OutputVerbose, nil
	default:
		return OutputNormal, fmt.Errorf("reply: unknown output mode %q", s)
	}
}

// SegmentType discriminates reply segments.
type SegmentType string

const (
	// SegmentText is one line of text.
	SegmentText SegmentType = "text"

	// SegmentImage is one image payload.
	SegmentImage SegmentType = "image"
)

// Segment is one part of the outgoing message.
type Segment struct {
	Type SegmentType

	// Text is set for SegmentText.
	Text string

	// Image is set for SegmentImage.
	Image []byte

	// Censored wraps the image in the host's content-moderation
	// annotation (hidden until the viewer opts in).
	Censored bool
}

// Params carries everything the assembler may render.
type Params struct {
	Seed           int64
	Prompt         string
	NegativePrompt string
	CFGScale       float64

	// Strength is the denoising strength; nil for text-to-image.
	Strength *float64

	// ModelLabel names the backend model in verbose output.
	ModelLabel string

	// Image is the first payload returned by the backend.
	Image []byte
}

// Assembler builds replies for one configured verbosity and censor setting.
type Assembler struct {
	mode   OutputMode
	censor bool
}

// NewAssembler creates an Assembler.
func NewAssembler(mode OutputMode, censor bool) *Assembler {
	return &Assembler{mode: mode, censor: censor}
}

// Build assembles the reply segments for one generation result.
func (a *Assembler) Build(p Params) []Segment {
	image := Segment{Type: SegmentImage, Image: p.Image, Censored: a.censor}

	switch a.mode {
	case OutputMinimal:
		return []Segment{image}

	case OutputVerbose:
		segments := []Segment{
			textSegment("seed = %d", p.Seed),
			textSegment("prompt = %s", p.Prompt),
		}
		if p.ModelLabel != "" {
			segments = append(segments, textSegment("model = %s", p.ModelLabel))
		}
		segments = append(segments, textSegment("cfg scale = %g", p.CFGScale))
		if p.Strength != nil {
			segments = append(segments, textSegment("strength = %g", *p.Strength))
		}
		if p.NegativePrompt != "" {
			segments = append(segments, textSegment("negative prompt = %s", p.NegativePrompt))
		}
		segments = append(segments, image, Segment{Type: SegmentText, Text: IdentifierLine})
		return segments

	default: // OutputNormal
		return []Segment{
			textSegment("seed = %d", p.Seed),
			textSegment("prompt = %s", p.Prompt),
			image,
		}
	}
}

func textSegment(format string, args ...interface{}) Segment {
	return Segment{Type: SegmentText, Text: fmt.Sprintf(format, args...)}
}
