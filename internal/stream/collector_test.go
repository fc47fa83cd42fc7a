package stream

import (
	"strings"
	"testing"
)

func TestCollectFoldsTextParts(t *testing.T) {
	body := strings.Join([]string{
		`data: {"response":{"candidates":[{"content":{"role":"model","parts":[{"text":"Hi "}]}}]}}`,
		`data: {"response":{"candidates":[{"content":{"role":"model","parts":[{"text":"there."}]},"finishReason":"STOP"}],"usageMetadata":{"promptTokenCount":5,"candidatesTokenCount":2,"totalTokenCount":7}}}`,
		`data: [DONE]`,
		"",
	}, "\n")

	reply, err := Collect(strings.NewReader(body))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(reply.Candidates) != 1 {
		t.Fatalf("expected one candidate, got %d", len(reply.Candidates))
	}
	parts := reply.Candidates[0].Content.Parts
	if len(parts) != 1 || parts[0].Text != "Hi there." {
		t.Fatalf("expected folded text 'Hi there.', got %+v", parts)
	}
	if reply.Candidates[0].FinishReason != "STOP" {
		t.Fatalf("expected finishReason STOP, got %s", reply.Candidates[0].FinishReason)
	}
	if reply.UsageMetadata == nil || reply.UsageMetadata.TotalTokenCount != 7 {
		t.Fatalf("expected usageMetadata carried over, got %+v", reply.UsageMetadata)
	}
}

func TestCollectIgnoresNonDataLines(t *testing.T) {
	body := "event: ping\n\ndata: {\"response\":{\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"ok\"}]}}]}}\n\n"
	reply, err := Collect(strings.NewReader(body))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if reply.Candidates[0].Content.Parts[0].Text != "ok" {
		t.Fatalf("expected text 'ok', got %+v", reply.Candidates[0].Content.Parts)
	}
}

func TestCollectStopsAtDoneWithoutError(t *testing.T) {
	body := "data: [DONE]\ndata: {\"response\":{\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"never\"}]}}]}}\n"
	reply, err := Collect(strings.NewReader(body))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(reply.Candidates[0].Content.Parts) != 0 {
		t.Fatalf("expected accumulation to stop at [DONE], got %+v", reply.Candidates[0].Content.Parts)
	}
}

func TestFrameSSERoundTrip(t *testing.T) {
	var buf strings.Builder
	if err := FrameSSE(&buf, map[string]string{"hello": "world"}); err != nil {
		t.Fatalf("FrameSSE: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "data: ") || !strings.HasSuffix(out, "\n\n") {
		t.Fatalf("expected data:-prefixed, double-newline-terminated frame, got %q", out)
	}
	if !strings.Contains(out, `"hello":"world"`) {
		t.Fatalf("expected JSON payload in frame, got %q", out)
	}
}
