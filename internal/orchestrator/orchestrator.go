// Package orchestrator wires the per-route pick/translate/call/retry
// algorithm together: fingerprinting, physical-model resolution,
// the account pool, the three protocol mappers, the upstream client, and
// the stream collector. Grounded on the teacher's own proxy-handler shape
// (`http.ResponseWriter`/`*gin.Context` per route, one handler per client
// protocol calling a shared Gemini-shape backend) seen across
// `other_examples/60d10d6d_pysugar-oauth-llm-nexus__internal-proxy-handlers-claude.go.go`,
// adapted here to add the pool/retry/rotation loop that file's single
// fixed-token design never needed.
package orchestrator

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"github.com/nghyane/llm-gw/internal/apierr"
	"github.com/nghyane/llm-gw/internal/config"
	"github.com/nghyane/llm-gw/internal/fingerprint"
	"github.com/nghyane/llm-gw/internal/ir"
	"github.com/nghyane/llm-gw/internal/logging"
	"github.com/nghyane/llm-gw/internal/mapper/gemini"
	"github.com/nghyane/llm-gw/internal/pool"
	"github.com/nghyane/llm-gw/internal/registry"
	"github.com/nghyane/llm-gw/internal/retry"
	"github.com/nghyane/llm-gw/internal/stream"
	"github.com/nghyane/llm-gw/internal/upstream"
)

// SessionBindTTL is how long a sticky session binding survives between
// requests on the same sid/model-family.
const SessionBindTTL = 30 * time.Minute

// Engine holds the shared state every route handler needs.
type Engine struct {
	Pool     *pool.AccountPool
	Registry *registry.Registry
	Upstream *upstream.Client
	Config   *config.Store
	Log      *logging.Logger
}

// New constructs an Engine.
func New(p *pool.AccountPool, r *registry.Registry, u *upstream.Client, cfg *config.Store, log *logging.Logger) *Engine {
	return &Engine{Pool: p, Registry: r, Upstream: u, Config: cfg, Log: log}
}

// protocolName is used for max-attempts floor and fingerprinting.
type protocolName string

const (
	protocolOpenAI protocolName = "openai"
	protocolClaude protocolName = "claude"
	protocolGemini protocolName = "gemini"
)

// translateFunc builds the v1internal envelope for one attempt, given the
// physical model and sid resolved once per request (not per attempt — the
// envelope itself, e.g. requestId, is rebuilt fresh each attempt).
type translateFunc func(physicalModel, sid string) (*ir.RequestEnvelope, error)

// attemptResult is what one pick+call cycle produced.
type attemptResult struct {
	reply      *ir.Reply
	rawStream  io.ReadCloser // set when the caller wants to pass the upstream SSE body straight through
	account    *pool.Account
	statusCode int
}

// run executes the pick/translate/call/retry loop: pick -> translate -> call upstream ->
// on 2xx mark_success and return; on non-2xx consult the retry table and
// either loop again (optionally rotating the account) or surface the
// mapped error. wantStream controls whether the upstream call requests
// streamGenerateContent (and the raw body is handed back for live
// reframing) or the reply is collected into one ir.Reply.
func (e *Engine) run(ctx context.Context, proto protocolName, sid, clientModel, physicalModel string, translate translateFunc, wantStream bool) (*attemptResult, *apierr.Error) {
	maxAttempts := retry.MaxAttempts(e.Pool.Len(), string(proto))
	var lastErr *apierr.Error
	disableThinking := false

	for attempt := 0; attempt < maxAttempts; attempt++ {
		account, err := e.Pool.Pick(physicalModel, sid)
		if err != nil {
			return nil, apierr.New(apierr.NoCapacity, "no healthy upstream account available")
		}

		env, err := translate(physicalModel, sid)
		if err != nil {
			return nil, apierr.Wrap(apierr.Fatal, "failed to translate request", err)
		}
		if disableThinking {
			stripThinking(env)
		}

		method := upstream.MethodGenerate
		if wantStream {
			method = upstream.MethodStreamGenerate
		}

		account.AcquireLease()
		resp, callErr := e.Upstream.Call(ctx, method, accessToken(account), env, streamQuery(wantStream), account.ID)
		if callErr != nil {
			account.ReleaseLease()
			if ctx.Err() != nil {
				return nil, apierr.Wrap(apierr.DownstreamClientGone, "client disconnected", ctx.Err())
			}
			lastErr = apierr.Wrap(apierr.Transient, "upstream call failed", callErr)
			account.Breaker.Execute(func() (any, error) { return nil, callErr })
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			account.Breaker.Execute(func() (any, error) { return nil, nil })
			e.Pool.MarkSuccess(account.ID)
			e.Pool.Bind(sid, account.ID, physicalModel, SessionBindTTL)

			if wantStream {
				return &attemptResult{rawStream: resp.Body, account: account, statusCode: resp.StatusCode}, nil
			}

			defer account.ReleaseLease()
			reply, collectErr := stream.Collect(resp.Body)
			resp.Body.Close()
			if collectErr != nil {
				return nil, apierr.Wrap(apierr.Fatal, "failed to collect upstream reply", collectErr)
			}
			return &attemptResult{reply: reply, account: account, statusCode: resp.StatusCode}, nil
		}

		body, _ := upstream.ReadBody(resp)
		account.ReleaseLease()
		account.Breaker.Execute(func() (any, error) { return nil, errors.New("non-2xx") })

		decision := retry.ForStatus(resp.StatusCode, attempt, retryAfterMs(resp.StatusCode, body), string(body))
		lastErr = apierr.FromUpstreamStatus(resp.StatusCode, string(body))
		disableThinking = decision.DisableThinking

		if retry.ShouldRotate(resp.StatusCode) {
			e.Pool.MarkRotate(account.ID, resp.StatusCode)
			e.Pool.Unbind(sid, physicalModel)
			if e.Log != nil {
				e.Log.Rotate(account.ID, strconv.Itoa(resp.StatusCode))
			}
		}
		if !decision.Retry {
			return nil, lastErr
		}
		select {
		case <-time.After(decision.Delay):
		case <-ctx.Done():
			return nil, apierr.Wrap(apierr.DownstreamClientGone, "client disconnected during backoff", ctx.Err())
		}
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, apierr.New(apierr.NoCapacity, "exhausted all retry attempts")
}

func accessToken(a *pool.Account) string { return a.RefreshMeta.AccessToken }

// stripThinking clears the envelope's thinking config in place, so a
// signature-bug retry doesn't resend the exact request that produced the
// 400 in the first place.
func stripThinking(env *ir.RequestEnvelope) {
	if env == nil || env.Request == nil || env.Request.GenerationConfig == nil {
		return
	}
	env.Request.GenerationConfig.ThinkingConfig = nil
}

// retryAfterMs extracts the upstream's advertised retry delay from a 429
// body, if present ("body carries retryable retry_after_ms").
func retryAfterMs(statusCode int, body []byte) int {
	if statusCode != 429 {
		return 0
	}
	v := gjson.GetBytes(body, "error.details.0.retryDelay")
	if v.Exists() {
		if ms, ok := parseRetryDelaySeconds(v.String()); ok {
			return ms
		}
	}
	if v := gjson.GetBytes(body, "retry_after_ms"); v.Exists() {
		return int(v.Int())
	}
	return 0
}

// parseRetryDelaySeconds parses a Google API "Ns" duration string (e.g.
// "12.5s") into milliseconds.
func parseRetryDelaySeconds(s string) (int, bool) {
	s = strings.TrimSuffix(s, "s")
	seconds, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int(seconds * 1000), true
}

func streamQuery(wantStream bool) url.Values {
	if !wantStream {
		return nil
	}
	return url.Values{"alt": {"sse"}}
}

// entryFor maps a protocol to the gemini wrapper's requestId-prefix entry
// point.
func entryFor(proto protocolName, isImageGen bool) gemini.EntryPoint {
	if isImageGen {
		return gemini.EntryImage
	}
	switch proto {
	case protocolOpenAI:
		return gemini.EntryOpenAI
	default:
		return gemini.EntryAgent
	}
}

// writeHeaders sets the common success headers: which account served the
// request and which physical model it was mapped to.
func writeHeaders(c *gin.Context, account *pool.Account, mappedModel string) {
	c.Header("X-Account-Email", account.Email)
	c.Header("X-Mapped-Model", mappedModel)
}

func writeStreamHeaders(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
}

// fingerprintSID is a small wrapper so call sites read as session-binding
// vocabulary instead of the fingerprint package name.
func fingerprintSID(proto protocolName, body []byte) string {
	switch proto {
	case protocolClaude:
		return fingerprint.Fingerprint(fingerprint.Claude, body)
	case protocolOpenAI:
		return fingerprint.Fingerprint(fingerprint.OpenAI, body)
	default:
		return fingerprint.Fingerprint(fingerprint.Gemini, body)
	}
}
