// Package warmup implements the internal pool pre-heating route:
// POST /internal/warmup sends a canned "Say hi" request at a named account
// to keep its upstream connection and token warm, without going through the
// public pick/retry loop. Grounded on the original handler's email-targeted,
// no-rotation design (original_source/src-tauri/src/proxy/handlers/warmup.rs),
// reusing the same gemini.Wrap envelope and upstream.Client the public routes
// use.
package warmup

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/fallback"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/gin-gonic/gin"

	"github.com/nghyane/llm-gw/internal/ir"
	"github.com/nghyane/llm-gw/internal/mapper/gemini"
	"github.com/nghyane/llm-gw/internal/pool"
	"github.com/nghyane/llm-gw/internal/upstream"
)

// Engine holds the dependencies the warmup route needs. It intentionally
// does not embed orchestrator.Engine: warmup never picks, rotates, or
// retries across accounts ("no retry"), so it has no use for the
// public run loop. The model name reaches gemini.Wrap unmapped — aliasing
// happens inside Wrap itself, the same as every other route.
type Engine struct {
	Pool     *pool.AccountPool
	Upstream *upstream.Client
}

// New constructs a warmup Engine.
func New(p *pool.AccountPool, u *upstream.Client) *Engine {
	return &Engine{Pool: p, Upstream: u}
}

// Request is the POST /internal/warmup body.
type Request struct {
	Email       string `json:"email"`
	Model       string `json:"model"`
	AccessToken string `json:"access_token,omitempty"`
	ProjectID   string `json:"project_id,omitempty"`
}

// Response is the POST /internal/warmup reply body.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// skipSubstrings are the model-name fragments that opt a model out of
// warmup entirely ("skip silently if model matches 2.5- or 2-5-").
var skipSubstrings = []string{"2.5-", "2-5-"}

// Handle serves POST /internal/warmup.
func (e *Engine) Handle(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(400, Response{Success: false, Message: "failed to read request body", Error: err.Error()})
		return
	}
	var req Request
	if err := sonic.Unmarshal(raw, &req); err != nil {
		c.JSON(400, Response{Success: false, Message: "invalid JSON body", Error: err.Error()})
		return
	}

	c.Header("X-Account-Email", req.Email)
	c.Header("X-Mapped-Model", req.Model)

	modelLower := strings.ToLower(req.Model)
	for _, sub := range skipSubstrings {
		if strings.Contains(modelLower, sub) {
			c.JSON(200, Response{Success: true, Message: "skipped warmup for " + req.Model + " (2.5 models not supported)"})
			return
		}
	}

	accessToken, projectID, accountID, err := e.resolveCredentials(req)
	if err != nil {
		c.JSON(400, Response{Success: false, Message: "failed to get token for " + req.Email, Error: err.Error()})
		return
	}

	env, err := gemini.Wrap(cannedInner(), projectID, req.Model, "", gemini.EntryAgent)
	if err != nil {
		c.JSON(500, Response{Success: false, Message: "failed to build warmup request", Error: err.Error()})
		return
	}

	resp, err := e.call(c.Request.Context(), preferNonStreamFor(modelLower), accessToken, env, accountID)
	if err != nil {
		c.JSON(500, Response{Success: false, Message: "warmup request failed", Error: err.Error()})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		c.JSON(200, Response{Success: true, Message: "warmup triggered for " + req.Model})
		return
	}
	body, _ := upstream.ReadBody(resp)
	c.JSON(resp.StatusCode, Response{Success: false, Message: "warmup failed", Error: string(body)})
}

// resolveCredentials prefers a directly-supplied token/project pair, for
// accounts not in the pool, else looks the account up by email.
func (e *Engine) resolveCredentials(req Request) (accessToken, projectID, accountID string, err error) {
	if req.AccessToken != "" && req.ProjectID != "" {
		return req.AccessToken, req.ProjectID, "", nil
	}
	account, ok := e.Pool.FindByEmail(req.Email)
	if !ok {
		return "", "", "", fmt.Errorf("no account found for email %s", req.Email)
	}
	return account.RefreshMeta.AccessToken, account.ProjectID, account.ID, nil
}

// preferNonStreamFor reports whether modelLower (already lower-cased) should
// skip straight to a non-streaming probe rather than try streaming first
// ("prefer non-stream for flash-lite and 2.5-pro").
func preferNonStreamFor(modelLower string) bool {
	return strings.Contains(modelLower, "flash-lite") || strings.Contains(modelLower, "2.5-pro")
}

// cannedInner is the fixed "Say hi" probe request.
func cannedInner() *ir.InnerRequest {
	temp := 0.0
	return &ir.InnerRequest{
		Contents: []ir.Content{{
			Role:  ir.RoleUser,
			Parts: []ir.Part{ir.TextPart("Say hi")},
		}},
		GenerationConfig: &ir.GenerationConfig{Temperature: &temp},
	}
}

// call issues the upstream probe: streamGenerateContent by default, falling
// back to one generateContent attempt on a transport error or a non-2xx
// upstream status, or generateContent directly when preferNonStream picks
// it up front. HandleIf treats a non-2xx response the same as a transport
// error for fallback purposes, since Call only returns an error for the
// latter. The stream-then-fallback arm is composed with failsafe-go's
// fallback policy wrapped in a zero-retry retry policy, making the "no
// retry beyond this one fallback" rule an explicit, inspectable policy
// rather than an absence of code.
func (e *Engine) call(ctx context.Context, preferNonStream bool, accessToken string, env *ir.RequestEnvelope, accountID string) (*upstream.Response, error) {
	if preferNonStream {
		return e.Upstream.Call(ctx, upstream.MethodGenerate, accessToken, env, nil, accountID)
	}

	retry := retrypolicy.Builder[*upstream.Response]().WithMaxRetries(0).Build()
	fb := fallback.BuilderWithFunc[*upstream.Response](func(exec failsafe.Execution[*upstream.Response]) (*upstream.Response, error) {
		return e.Upstream.Call(ctx, upstream.MethodGenerate, accessToken, env, nil, accountID)
	}).HandleIf(func(resp *upstream.Response, err error) bool {
		return err != nil || (resp != nil && resp.StatusCode >= 300)
	}).Build()

	executor := failsafe.NewExecutor[*upstream.Response](fb, retry)
	return executor.GetWithExecution(func(exec failsafe.Execution[*upstream.Response]) (*upstream.Response, error) {
		return e.Upstream.Call(ctx, upstream.MethodStreamGenerate, accessToken, env, streamQuery(), accountID)
	})
}

func streamQuery() url.Values { return url.Values{"alt": {"sse"}} }
