// Package imagegen builds the image-gen arm of the Gemini-shape request for
// the two OpenAI-compatible image routes and extracts inline image
// data back out of the collected reply. Grounded on
// original_source/src-tauri/src/proxy/handlers/openai.rs's
// handle_images_generations/handle_images_edits.
package imagegen

// GenerationRequest is the body of POST /v1/images/generations.
type GenerationRequest struct {
	Prompt         string `json:"prompt"`
	Model          string `json:"model"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
	Quality        string `json:"quality"`
	Style          string `json:"style"`
	ImageSize      string `json:"image_size"`
}

// EditRequest is the parsed multipart body of POST /v1/images/edits.
type EditRequest struct {
	Prompt         string
	Model          string
	N              int
	Size           string
	ImageSize      string
	AspectRatio    string
	Style          string
	ResponseFormat string

	MainImage  []byte
	Mask       []byte
	References [][]byte
}

// ImageData is one entry of the OpenAI images response's data array.
type ImageData struct {
	B64JSON string `json:"b64_json,omitempty"`
	URL     string `json:"url,omitempty"`
}

// GenerationResponse is the OpenAI /v1/images/* response envelope.
type GenerationResponse struct {
	Created int64       `json:"created"`
	Data    []ImageData `json:"data"`
}

const (
	defaultModel          = "gemini-3-pro-image"
	defaultSize           = "1024x1024"
	defaultResponseFormat = "b64_json"
	defaultStyle          = "vivid"
)

// Normalize fills in the documented defaults for a generation request
// ("model default gemini-3-pro-image, n default 1, size default
// 1024x1024, response_format default b64_json"), and defaults style to
// "vivid".
func (r *GenerationRequest) Normalize() {
	if r.Model == "" {
		r.Model = defaultModel
	}
	if r.N <= 0 {
		r.N = 1
	}
	if r.Size == "" {
		r.Size = defaultSize
	}
	if r.ResponseFormat == "" {
		r.ResponseFormat = defaultResponseFormat
	}
	if r.Style == "" {
		r.Style = defaultStyle
	}
}

// Normalize fills in the documented defaults for an edit request.
func (r *EditRequest) Normalize() {
	if r.Model == "" {
		r.Model = defaultModel
	}
	if r.N <= 0 {
		r.N = 1
	}
	if r.Size == "" {
		r.Size = defaultSize
	}
	if r.ResponseFormat == "" {
		r.ResponseFormat = defaultResponseFormat
	}
}
