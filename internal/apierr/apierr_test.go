package apierr

import "testing"

func TestToOpenAIRendersEnvelope(t *testing.T) {
	e := New(ClientShape, "missing field 'model'")
	status, body := ToOpenAI(e)
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
	if body.Error.Type != "invalid_request_error" {
		t.Fatalf("unexpected type: %s", body.Error.Type)
	}
}

func TestToClaudeRemapsNoCapacityTo429(t *testing.T) {
	e := New(NoCapacity, "no healthy accounts")
	status, body := ToClaude(e)
	if status != 429 {
		t.Fatalf("expected 429, got %d", status)
	}
	if body.Type != "error" || body.Error.Type != "overloaded_error" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestToGeminiMapsStatusName(t *testing.T) {
	e := New(AuthLike, "token expired")
	status, body := ToGemini(e)
	if status != 401 {
		t.Fatalf("expected 401, got %d", status)
	}
	if body.Error.Status != "UNAUTHENTICATED" {
		t.Fatalf("unexpected status name: %s", body.Error.Status)
	}
}

func TestFromUpstreamStatusClassifiesTransient(t *testing.T) {
	e := FromUpstreamStatus(503, "service unavailable")
	if e.Category != Transient {
		t.Fatalf("expected Transient, got %v", e.Category)
	}
}

func TestFromUpstreamStatusClassifiesAuthLike(t *testing.T) {
	e := FromUpstreamStatus(401, "unauthorized")
	if e.Category != AuthLike {
		t.Fatalf("expected AuthLike, got %v", e.Category)
	}
}

func TestFromUpstreamStatusClassifiesFatal(t *testing.T) {
	e := FromUpstreamStatus(400, "bad request")
	if e.Category != Fatal {
		t.Fatalf("expected Fatal, got %v", e.Category)
	}
}
