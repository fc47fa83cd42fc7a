package gemini

import (
	"strings"
	"testing"

	"github.com/nghyane/llm-gw/internal/ir"
)

func TestWrapModelAliasingAndRequestID(t *testing.T) {
	inner := &ir.InnerRequest{Contents: []ir.Content{{Role: ir.RoleUser, Parts: []ir.Part{ir.TextPart("hi")}}}}
	env, err := Wrap(inner, "proj-1", "gemini-3-pro-preview", "sid-abc", EntryAgent)
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	if env.Model != "gemini-3-pro-high" {
		t.Fatalf("expected preview alias resolved to gemini-3-pro-high, got %s", env.Model)
	}
	if !strings.HasPrefix(env.RequestID, "agent-") {
		t.Fatalf("expected agent-<uuid> requestId, got %s", env.RequestID)
	}
	if env.RequestType != ir.RequestTypeAgent {
		t.Fatalf("expected requestType agent, got %s", env.RequestType)
	}
}

func TestWrapNetworkingDetectionViaOnlineSuffix(t *testing.T) {
	inner := &ir.InnerRequest{Contents: []ir.Content{{Role: ir.RoleUser, Parts: []ir.Part{ir.TextPart("hi")}}}}
	env, err := Wrap(inner, "proj-1", "gemini-2.5-flash-online", "", EntryAgent)
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	if env.Model != "gemini-2.5-flash" {
		t.Fatalf("expected networking to force physical model gemini-2.5-flash, got %s", env.Model)
	}
	if env.RequestType != ir.RequestTypeWebSearch {
		t.Fatalf("expected requestType web_search, got %s", env.RequestType)
	}
	found := false
	for _, tool := range env.Request.Tools {
		if tool.GoogleSearch != nil {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a googleSearch tool injected, got %+v", env.Request.Tools)
	}
}

func TestWrapDropsNetworkingToolDeclarations(t *testing.T) {
	inner := &ir.InnerRequest{
		Contents: []ir.Content{{Role: ir.RoleUser, Parts: []ir.Part{ir.TextPart("hi")}}},
		Tools: []ir.Tool{{FunctionDeclarations: []ir.FunctionDeclaration{
			{Name: "web_search"},
			{Name: "get_weather"},
		}}},
	}
	env, err := Wrap(inner, "proj-1", "gemini-2.5-flash", "", EntryAgent)
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	var names []string
	for _, tool := range env.Request.Tools {
		for _, d := range tool.FunctionDeclarations {
			names = append(names, d.Name)
		}
	}
	if len(names) != 1 || names[0] != "get_weather" {
		t.Fatalf("expected only get_weather to survive tool cleaning, got %v", names)
	}
}

func TestWrapImageGenRequestType(t *testing.T) {
	inner := &ir.InnerRequest{Contents: []ir.Content{{Parts: []ir.Part{ir.TextPart("a cat")}}}}
	env, err := Wrap(inner, "proj-1", "gemini-3-pro-image", "", EntryImage)
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	if env.RequestType != ir.RequestTypeImageGen {
		t.Fatalf("expected requestType image_gen, got %s", env.RequestType)
	}
	if env.Request.Contents[0].Role != ir.RoleUser {
		t.Fatalf("expected default role user on image-gen contents, got %s", env.Request.Contents[0].Role)
	}
	if !strings.HasPrefix(env.RequestID, "img-") {
		t.Fatalf("expected img-<uuid> requestId, got %s", env.RequestID)
	}
}

func TestCalculateAspectRatioFromSize(t *testing.T) {
	cases := map[string]string{
		"1024x1024": "1:1",
		"1920x1080": "16:9",
		"1080x1920": "9:16",
		"garbage":   "1:1",
	}
	for size, want := range cases {
		if got := CalculateAspectRatioFromSize(size); got != want {
			t.Errorf("CalculateAspectRatioFromSize(%q) = %q, want %q", size, got, want)
		}
	}
}

func TestResolveImageSizePrecedence(t *testing.T) {
	if got := ResolveImageSize("2K", "hd", "gemini-3-pro-image-4k"); got != "2K" {
		t.Fatalf("expected direct imageSize to win, got %s", got)
	}
	if got := ResolveImageSize("", "hd", "gemini-3-pro-image"); got != "4K" {
		t.Fatalf("expected quality mapping hd->4K, got %s", got)
	}
	if got := ResolveImageSize("", "", "gemini-3-pro-image-2k"); got != "2K" {
		t.Fatalf("expected model-suffix inference -2k->2K, got %s", got)
	}
}

func TestUnwrapReturnsResponseField(t *testing.T) {
	body := []byte(`{"response":{"candidates":[]},"other":1}`)
	out := Unwrap(body)
	if string(out) != `{"candidates":[]}` {
		t.Fatalf("expected unwrapped response field, got %s", out)
	}
}

func TestUnwrapPassesThroughWhenNoResponseField(t *testing.T) {
	body := []byte(`{"candidates":[]}`)
	out := Unwrap(body)
	if string(out) != string(body) {
		t.Fatalf("expected passthrough, got %s", out)
	}
}
