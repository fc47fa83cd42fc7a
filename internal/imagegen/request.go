package imagegen

import (
	"github.com/nghyane/llm-gw/internal/ir"
	"github.com/nghyane/llm-gw/internal/mapper/gemini"
)

// allSafetyOff is the fixed all-categories-OFF safety block every image-gen
// call carries ("safetySettings: all categories OFF").
var allSafetyOff = []ir.SafetySetting{
	{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "OFF"},
	{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "OFF"},
	{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "OFF"},
	{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "OFF"},
	{Category: "HARM_CATEGORY_CIVIC_INTEGRITY", Threshold: "OFF"},
}

// BuildGenerationInner builds the InnerRequest for one /v1/images/generations
// task: a single text part carrying the augmented prompt, plus the resolved
// imageConfig.
func BuildGenerationInner(req *GenerationRequest, physicalModel string) *ir.InnerRequest {
	prompt := AugmentPrompt(req.Prompt, req.Quality, req.Style)
	one := 1
	return &ir.InnerRequest{
		Contents: []ir.Content{{Role: ir.RoleUser, Parts: []ir.Part{ir.TextPart(prompt)}}},
		GenerationConfig: &ir.GenerationConfig{
			CandidateCount: &one,
			ImageConfig:    resolveImageConfig(req.ImageSize, req.Quality, req.Size, physicalModel),
		},
		SafetySettings: allSafetyOff,
	}
}

// BuildEditInner builds the InnerRequest for one /v1/images/edits task. Part
// ordering: prompt text, main image, mask, then each reference image, all
// inlineData.
func BuildEditInner(req *EditRequest, physicalModel string) *ir.InnerRequest {
	prompt := AugmentEditPrompt(req.Prompt, req.Style)
	parts := []ir.Part{ir.TextPart(prompt)}
	if req.MainImage != nil {
		parts = append(parts, ir.InlineDataPart("image/png", encodeB64(req.MainImage)))
	}
	if req.Mask != nil {
		parts = append(parts, ir.InlineDataPart("image/png", encodeB64(req.Mask)))
	}
	for _, ref := range req.References {
		parts = append(parts, ir.InlineDataPart("image/jpeg", encodeB64(ref)))
	}

	one := 1
	temp := 1.0
	topP := 0.95
	maxOut := 8192
	return &ir.InnerRequest{
		Contents: []ir.Content{{Role: ir.RoleUser, Parts: parts}},
		GenerationConfig: &ir.GenerationConfig{
			CandidateCount:  &one,
			Temperature:     &temp,
			TopP:            &topP,
			MaxOutputTokens: &maxOut,
			ImageConfig:     resolveImageConfig(req.ImageSize, qualityFromImageSize(req.ImageSize), firstNonEmpty(req.AspectRatio, req.Size), physicalModel),
		},
		SafetySettings: allSafetyOff,
	}
}

// qualityFromImageSize maps an explicit 4K/2K image_size to the equivalent
// quality tier ("" otherwise). The result is passed alongside image_size
// itself, which ResolveImageSize prefers whenever it is non-empty.
func qualityFromImageSize(imageSize string) string {
	switch imageSize {
	case "4K":
		return "hd"
	case "2K":
		return "medium"
	default:
		return ""
	}
}

func resolveImageConfig(imageSize, quality, size, physicalModel string) *ir.ImageConfig {
	return &ir.ImageConfig{
		ImageSize:   gemini.ResolveImageSize(imageSize, quality, physicalModel),
		AspectRatio: gemini.CalculateAspectRatioFromSize(size),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
