package modellist

import "testing"

func TestBuildOpenAIListShape(t *testing.T) {
	list := BuildOpenAIList([]string{"gemini-3-flash", "gemini-3-pro-high"})
	if list.Object != "list" {
		t.Fatalf("expected object=list, got %s", list.Object)
	}
	if len(list.Data) != 2 || list.Data[0].Object != "model" {
		t.Fatalf("unexpected data: %+v", list.Data)
	}
}

func TestBuildClaudeListFirstLastID(t *testing.T) {
	list := BuildClaudeList([]string{"a", "b", "c"})
	if list.FirstID != "a" || list.LastID != "c" {
		t.Fatalf("expected first=a last=c, got first=%s last=%s", list.FirstID, list.LastID)
	}
	if list.HasMore {
		t.Fatalf("expected has_more=false")
	}
}

func TestBuildClaudeListEmpty(t *testing.T) {
	list := BuildClaudeList(nil)
	if list.FirstID != "" || list.LastID != "" {
		t.Fatalf("expected empty first/last id for empty list, got %+v", list)
	}
}

func TestBuildGeminiListNamePrefix(t *testing.T) {
	list := BuildGeminiList([]string{"gemini-3-flash"})
	if list.Models[0].Name != "models/gemini-3-flash" {
		t.Fatalf("expected models/ prefix, got %s", list.Models[0].Name)
	}
}

func TestBuildGeminiModelSingle(t *testing.T) {
	m := BuildGeminiModel("gemini-2.5-pro")
	if m.Name != "models/gemini-2.5-pro" || m.DisplayName != "gemini-2.5-pro" {
		t.Fatalf("unexpected model: %+v", m)
	}
}
