package orchestrator

import (
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nghyane/llm-gw/internal/apierr"
	"github.com/nghyane/llm-gw/internal/ir"
	"github.com/nghyane/llm-gw/internal/logging"
	"github.com/nghyane/llm-gw/internal/mapper/gemini"
	"github.com/nghyane/llm-gw/internal/mapper/openai"
	"github.com/nghyane/llm-gw/internal/stream"
)

// ChatCompletions handles POST /v1/chat/completions.
func (e *Engine) ChatCompletions(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		writeOpenAIError(c, apierr.Wrap(apierr.ClientShape, "failed to read request body", err))
		return
	}

	var req openai.ChatCompletionRequest
	if err := jsonUnmarshal(raw, &req); err != nil {
		writeOpenAIError(c, apierr.Wrap(apierr.ClientShape, "invalid JSON body", err))
		return
	}

	e.chatCompletions(c, raw, req)
}

// LegacyCompletions handles POST /v1/completions ("Legacy/Codex shim;
// converts prompt and input/instructions into messages"). It rewrites the
// single-prompt legacy shape into one user ChatCompletionRequest message
// and runs it through the exact same path as ChatCompletions.
func (e *Engine) LegacyCompletions(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		writeOpenAIError(c, apierr.Wrap(apierr.ClientShape, "failed to read request body", err))
		return
	}

	var legacy struct {
		Model        string `json:"model"`
		Prompt       string `json:"prompt"`
		Input        string `json:"input"`
		Instructions string `json:"instructions"`
		Stream       bool   `json:"stream"`
	}
	if err := jsonUnmarshal(raw, &legacy); err != nil {
		writeOpenAIError(c, apierr.Wrap(apierr.ClientShape, "invalid JSON body", err))
		return
	}

	text := legacy.Prompt
	if text == "" {
		text = legacy.Input
	}
	content, _ := json.Marshal(text)

	req := openai.ChatCompletionRequest{
		Model:        legacy.Model,
		Stream:       legacy.Stream,
		Instructions: legacy.Instructions,
		Messages:     []openai.ChatMessage{{Role: "user", Content: content}},
	}
	rewritten, err := json.Marshal(req)
	if err != nil {
		writeOpenAIError(c, apierr.Wrap(apierr.Fatal, "failed to rewrite legacy completion body", err))
		return
	}

	e.chatCompletions(c, rewritten, req)
}

func (e *Engine) chatCompletions(c *gin.Context, raw []byte, req openai.ChatCompletionRequest) {
	reqLog := logging.NewRequestLog(logging.ProtocolOpenAI, c.Request.Method, c.Request.URL.String(), c.ClientIP(), req.Model)
	reqLog.InputTokens = logging.EstimateTokens(string(raw))
	start := time.Now()
	e.Log.Start(reqLog)
	defer func() {
		reqLog.Duration = time.Since(start)
		e.Log.End(reqLog)
	}()

	sid := fingerprintSID(protocolOpenAI, raw)
	physicalModel := e.Registry.ResolvePhysicalModel(req.Model)
	reqLog.PhysicalModel = physicalModel
	isImageGen := openai.DetectImageGen(&req, physicalModel)
	clientWantsStream := req.Stream

	opts := openai.Options{IsImageGen: isImageGen, ImageThinkingDisabled: e.Config.ImageThinkingDisabled()}
	translate := func(physical, sid string) (*ir.RequestEnvelope, error) {
		inner, err := openai.BuildInnerRequest(&req, physical, opts)
		if err != nil {
			return nil, err
		}
		return gemini.Wrap(inner, "", physical, sid, entryFor(protocolOpenAI, isImageGen))
	}

	result, apiErr := e.run(c.Request.Context(), protocolOpenAI, sid, req.Model, physicalModel, translate, true)
	if apiErr != nil {
		reqLog.Status = apiErr.Status
		reqLog.Error = apiErr.Message
		writeOpenAIError(c, apiErr)
		return
	}
	reqLog.AccountEmail = result.account.Email

	writeHeaders(c, result.account, physicalModel)
	defer result.account.ReleaseLease()
	defer result.rawStream.Close()

	reply, collectErr := stream.Collect(result.rawStream)
	if collectErr != nil {
		reqLog.Status = 502
		reqLog.Error = collectErr.Error()
		writeOpenAIError(c, apierr.Wrap(apierr.Fatal, "failed to collect upstream reply", collectErr))
		return
	}
	resp := openai.FromReply(reply, req.Model, time.Now().Unix())
	reqLog.Status = 200
	if resp.Usage != nil {
		reqLog.OutputTokens = resp.Usage.CompletionTokens
	} else {
		reqLog.OutputTokens = logging.EstimateTokens(openaiReplyText(resp))
	}

	if !clientWantsStream {
		c.JSON(200, resp)
		return
	}

	writeStreamHeaders(c)
	_ = stream.FrameSSE(c.Writer, openaiStreamChunk(resp))
	_ = stream.FrameDone(c.Writer)
}

// openaiReplyText flattens every choice's message content for a rough
// output-token estimate; it does not need to be exact, only in the right
// ballpark for the request log.
func openaiReplyText(resp *openai.ChatCompletionResponse) string {
	var sb strings.Builder
	for _, ch := range resp.Choices {
		var text string
		_ = json.Unmarshal(ch.Message.Content, &text)
		sb.WriteString(text)
	}
	return sb.String()
}

// openaiStreamChunk wraps a completed ChatCompletionResponse as the single
// chunk emitted on the synthesized SSE stream for a client that requested
// streaming. Real clients see one complete delta rather than incremental
// token-by-token deltas — a deliberate scope reduction over true per-token
// forwarding, recorded in DESIGN.md.
func openaiStreamChunk(resp *openai.ChatCompletionResponse) map[string]any {
	choices := make([]map[string]any, 0, len(resp.Choices))
	for _, ch := range resp.Choices {
		var text string
		if len(ch.Message.Content) > 0 {
			_ = json.Unmarshal(ch.Message.Content, &text)
		}
		choices = append(choices, map[string]any{
			"index":         ch.Index,
			"delta":         map[string]any{"role": ch.Message.Role, "content": text},
			"finish_reason": ch.FinishReason,
		})
	}
	return map[string]any{
		"id":      resp.ID,
		"object":  "chat.completion.chunk",
		"created": resp.Created,
		"model":   resp.Model,
		"choices": choices,
	}
}

func writeOpenAIError(c *gin.Context, e *apierr.Error) {
	status, body := apierr.ToOpenAI(e)
	c.JSON(status, body)
}
