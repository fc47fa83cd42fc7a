package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/nghyane/llm-gw/internal/ir"
)

// Method is the v1internal RPC method name ("method ∈ {generateContent,
// streamGenerateContent}").
type Method string

const (
	MethodGenerate       Method = "generateContent"
	MethodStreamGenerate Method = "streamGenerateContent"
)

// Response is the upstream call's outcome: the raw response body plus
// status, for both the streaming and non-streaming shapes ("-> {response}").
// Body is never buffered: for both shapes it is the live response body the
// caller must read and Close.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// Client issues v1internal calls over the shared transport.
type Client struct {
	httpClient *http.Client
}

// NewClient constructs a Client using the process-wide SharedTransport.
func NewClient() *Client {
	return &Client{httpClient: &http.Client{Transport: SharedTransport}}
}

// Call implements call_v1_internal(method, bearer, body, query, account_id)
// -> {response}. The caller is responsible for reading/closing
// resp.Body; for non-streaming methods this is typically done immediately
// via io.ReadAll. accountID is carried only for logging/callback purposes —
// it does not affect the request itself.
func (c *Client) Call(ctx context.Context, method Method, bearer string, env *ir.RequestEnvelope, query url.Values, accountID string) (*Response, error) {
	return c.callAt(ctx, BaseURL, method, bearer, env, query, accountID)
}

// callAt is Call parameterized over the base URL, split out so tests can
// point it at an httptest.Server instead of the real upstream host.
func (c *Client) callAt(ctx context.Context, base string, method Method, bearer string, env *ir.RequestEnvelope, query url.Values, accountID string) (*Response, error) {
	body, err := jsonMarshal(env)
	if err != nil {
		return nil, fmt.Errorf("upstream: encode envelope: %w", err)
	}

	u := fmt.Sprintf("%s/v1internal:%s", base, method)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, newBodyReader(body))
	if err != nil {
		return nil, fmt.Errorf("upstream: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+bearer)
	if method == MethodStreamGenerate {
		req.Header.Set("Accept", "text/event-stream")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream: %w", err)
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: resp.Body}, nil
}

// ReadBody fully drains and closes a non-streaming Response, returning its
// body bytes. Non-2xx responses still yield a readable text body.
func ReadBody(resp *Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// defaultTimeout is not referenced by Client: Call applies no timeout of
// its own, so streaming and non-streaming attempts alike are bounded only
// by the caller's context.
const defaultTimeout = 120 * time.Second
