// Package sdapi builds and dispatches requests against a Stable Diffusion
// WebUI style HTTP backend.
//
// types.go contains the wire payload types. These are atoms: pure data,
// immutable once built, serializable with encoding/json.
package sdapi

// GenerationRequest is the backend request body. Constructed fresh per
// invocation by BuildRequest and never mutated afterward.
type GenerationRequest struct {
	// InitImages carries at most one data-URL source image for
	// image-to-image generation. Omitted for text-to-image.
	InitImages []string `json:"init_images,omitempty"`

	// Prompt is the comma-joined positive term list.
	Prompt string `json:"prompt"`

	// NegativePrompt is the comma-joined negative term list.
	NegativePrompt string `json:"negative_prompt"`

	// Seed is the generation seed, echoed back to the user for reruns.
	Seed int64 `json:"seed"`

	// CFGScale is the classifier-free guidance scale.
	CFGScale float64 `json:"cfg_scale"`

	// Width of the output image in pixels.
	Width int `json:"width"`

	// Height of the output image in pixels.
	Height int `json:"height"`

	// DenoisingStrength controls how much an init image is altered.
	// Present only for image-to-image requests.
	DenoisingStrength *float64 `json:"denoising_strength,omitempty"`

	// Steps is the diffusion step count.
	Steps int `json:"steps"`
}

// IsImageToImage reports whether the request carries an init image.
func (r GenerationRequest) IsImageToImage() bool {
	return len(r.InitImages) > 0
}

// generationResponse is the backend success body.
type generationResponse struct {
	// Images holds base64-encoded image payloads. The backend contract
	// guarantees at least one on success.
	Images []string `json:"images"`
}

// backendErrorBody is the backend's structured error body.
type backendErrorBody struct {
	Message string `json:"message"`
}
