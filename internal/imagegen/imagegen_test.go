package imagegen

import (
	"mime/multipart"
	"testing"

	"github.com/nghyane/llm-gw/internal/ir"
)

func TestAugmentPromptHDAndVivid(t *testing.T) {
	got := AugmentPrompt("a cat", "hd", "vivid")
	if got != "a cat, (high quality, highly detailed, 4k resolution, hdr), (vivid colors, dramatic lighting, rich details)" {
		t.Fatalf("unexpected augmented prompt: %s", got)
	}
}

func TestAugmentPromptStandardNoSuffix(t *testing.T) {
	got := AugmentPrompt("a cat", "standard", "")
	if got != "a cat" {
		t.Fatalf("expected no suffix, got %s", got)
	}
}

func TestNormalizeGenerationRequestDefaults(t *testing.T) {
	req := &GenerationRequest{Prompt: "hi"}
	req.Normalize()
	if req.Model != "gemini-3-pro-image" || req.N != 1 || req.Size != "1024x1024" || req.ResponseFormat != "b64_json" {
		t.Fatalf("unexpected defaults: %+v", req)
	}
}

func TestBuildGenerationInnerSetsSafetyOffAndImageConfig(t *testing.T) {
	req := &GenerationRequest{Prompt: "hi", Quality: "hd", Size: "1792x1024"}
	inner := BuildGenerationInner(req, "gemini-3-pro-image")
	if len(inner.SafetySettings) != 5 {
		t.Fatalf("expected 5 safety categories off, got %d", len(inner.SafetySettings))
	}
	for _, s := range inner.SafetySettings {
		if s.Threshold != "OFF" {
			t.Fatalf("expected all thresholds OFF, got %s=%s", s.Category, s.Threshold)
		}
	}
	if inner.GenerationConfig.ImageConfig.ImageSize != "4K" {
		t.Fatalf("expected 4K image size from hd quality, got %s", inner.GenerationConfig.ImageConfig.ImageSize)
	}
}

func TestBuildEditInnerPartOrdering(t *testing.T) {
	req := &EditRequest{
		Prompt:     "edit it",
		MainImage:  []byte("main"),
		Mask:       []byte("mask"),
		References: [][]byte{[]byte("ref1"), []byte("ref2")},
	}
	inner := BuildEditInner(req, "gemini-3-pro-image")
	parts := inner.Contents[0].Parts
	if len(parts) != 5 {
		t.Fatalf("expected text+main+mask+2refs=5 parts, got %d", len(parts))
	}
	if parts[0].Kind != ir.PartText {
		t.Fatalf("expected first part to be text, got %v", parts[0].Kind)
	}
	if parts[1].InlineData.MimeType != "image/png" {
		t.Fatalf("expected main image mime image/png, got %s", parts[1].InlineData.MimeType)
	}
	if parts[2].InlineData.MimeType != "image/png" {
		t.Fatalf("expected mask mime image/png, got %s", parts[2].InlineData.MimeType)
	}
	if parts[3].InlineData.MimeType != "image/jpeg" || parts[4].InlineData.MimeType != "image/jpeg" {
		t.Fatalf("expected reference mimes image/jpeg, got %s, %s", parts[3].InlineData.MimeType, parts[4].InlineData.MimeType)
	}
}

func TestExtractImagesB64AndURL(t *testing.T) {
	reply := &ir.Reply{Candidates: []ir.Candidate{{Content: ir.Content{Parts: []ir.Part{
		ir.InlineDataPart("image/png", "ZGF0YQ=="),
	}}}}}
	b64 := ExtractImages(reply, "b64_json")
	if len(b64) != 1 || b64[0].B64JSON != "ZGF0YQ==" {
		t.Fatalf("unexpected b64 extraction: %+v", b64)
	}
	url := ExtractImages(reply, "url")
	if len(url) != 1 || url[0].URL != "data:image/png;base64,ZGF0YQ==" {
		t.Fatalf("unexpected url extraction: %+v", url)
	}
}

func TestParseEditFormMissingPrompt(t *testing.T) {
	form := &multipart.Form{Value: map[string][]string{}}
	if _, err := ParseEditForm(form); err != ErrMissingPrompt {
		t.Fatalf("expected ErrMissingPrompt, got %v", err)
	}
}

func TestParseEditFormReferenceFieldDetection(t *testing.T) {
	form := &multipart.Form{Value: map[string][]string{
		"prompt":     {"edit"},
		"image_size": {"2K"},
	}}
	req, err := ParseEditForm(form)
	if err != nil {
		t.Fatalf("ParseEditForm: %v", err)
	}
	if req.ImageSize != "2K" {
		t.Fatalf("expected image_size field read as config, got %s", req.ImageSize)
	}
}
