package sdapi

import (
	"math/rand"
)

// Step constants for the two generation modes.
const (
	// TextToImageSteps is the diffusion step count without an init image.
	TextToImageSteps = 20

	// ImageToImageSteps is the diffusion step count with an init image.
	ImageToImageSteps = 50
)

// FallbackCFGScale is used when neither the user nor the configuration
// supplies a guidance scale.
const FallbackCFGScale = 7

// sizeMultiple is the backend's dimension granularity; requested dimensions
// are snapped down to it.
const sizeMultiple = 8

// Options carries the user-supplied overrides from the command surface.
// Nil pointer fields mean "not supplied".
type Options struct {
	// Width/Height from the resolution option; zero means not supplied.
	Width  int
	Height int

	// Seed overrides the random seed.
	Seed *int64

	// Scale overrides the guidance scale.
	Scale *float64

	// Strength overrides the denoising strength (image-to-image only).
	Strength *float64
}

// BuilderDefaults are the configured fallbacks for unsupplied options.
type BuilderDefaults struct {
	Width    int
	Height   int
	Scale    float64
	Strength float64
}

// InitImage describes the fetched source image for image-to-image requests.
type InitImage struct {
	// DataURL is the image encoded as a data: URL for the request body.
	DataURL string

	// Width and Height are the source image's pixel dimensions.
	Width  int
	Height int
}

// BuildRequest maps the compiled prompt and resolved options onto the
// backend payload. Pure: no network, no shared state.
//
// Resolution policy:
//   - init image present: dimensions come from the image unless the user
//     supplied an explicit resolution; steps use ImageToImageSteps and
//     denoising strength is set from option or config default
//   - no init image: dimensions come from option or config defaults; steps
//     use TextToImageSteps; no init_images/denoising_strength fields
//   - seed: user value or a uniformly random 32-bit unsigned integer
//   - cfg scale: user value, else config default, else FallbackCFGScale
func BuildRequest(promptText, negativeText string, opts Options, img *InitImage, defaults BuilderDefaults) GenerationRequest {
	req := GenerationRequest{
		Prompt:         promptText,
		NegativePrompt: negativeText,
		Seed:           resolveSeed(opts.Seed),
		CFGScale:       resolveScale(opts.Scale, defaults.Scale),
	}

	width, height := opts.Width, opts.Height
	if img != nil {
		if width == 0 || height == 0 {
			width, height = img.Width, img.Height
		}
		strength := defaults.Strength
		if opts.Strength != nil {
			strength = *opts.Strength
		}
		req.InitImages = []string{img.DataURL}
		req.DenoisingStrength = &strength
		req.Steps = ImageToImageSteps
	} else {
		if width == 0 {
			width = defaults.Width
		}
		if height == 0 {
			height = defaults.Height
		}
		req.Steps = TextToImageSteps
	}

	req.Width = snapDimension(width)
	req.Height = snapDimension(height)
	return req
}

func resolveSeed(seed *int64) int64 {
	if seed != nil {
		return *seed
	}
	return int64(rand.Uint32())
}

func resolveScale(scale *float64, configured float64) float64 {
	if scale != nil {
		return *scale
	}
	if configured > 0 {
		return configured
	}
	return FallbackCFGScale
}

// snapDimension rounds a dimension down to the backend's size multiple,
// never below one multiple.
func snapDimension(d int) int {
	if d < sizeMultiple {
		return sizeMultiple
	}
	return d - d%sizeMultiple
}
