package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/nghyane/llm-gw/internal/ir"
)

func TestCallSendsBearerAndEnvelope(t *testing.T) {
	var gotAuth, gotMethod, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotMethod = r.URL.Path
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = string(buf)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"response":{"candidates":[]}}`))
	}))
	defer srv.Close()

	c := &Client{httpClient: srv.Client()}
	env := &ir.RequestEnvelope{RequestID: "req-1", Model: "gemini-3-pro", Request: &ir.InnerRequest{}}

	origBase := BaseURL
	_ = origBase
	resp, err := c.callAt(context.Background(), srv.URL, MethodGenerate, "tok-123", env, url.Values{}, "acct-1")
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	defer resp.Body.Close()

	if gotAuth != "Bearer tok-123" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
	if !strings.Contains(gotMethod, "generateContent") {
		t.Fatalf("expected generateContent in path, got %q", gotMethod)
	}
	if !strings.Contains(gotBody, "req-1") {
		t.Fatalf("expected requestId in body, got %q", gotBody)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestReadBodyDrainsAndCloses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("overloaded"))
	}))
	defer srv.Close()

	c := &Client{httpClient: srv.Client()}
	env := &ir.RequestEnvelope{RequestID: "req-2", Model: "gemini-3-pro", Request: &ir.InnerRequest{}}
	resp, err := c.callAt(context.Background(), srv.URL, MethodGenerate, "tok", env, nil, "acct-1")
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	b, err := ReadBody(resp)
	if err != nil {
		t.Fatalf("ReadBody: %v", err)
	}
	if string(b) != "overloaded" {
		t.Fatalf("expected readable error text, got %q", string(b))
	}
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}
