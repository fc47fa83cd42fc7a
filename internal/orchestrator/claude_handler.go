package orchestrator

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nghyane/llm-gw/internal/apierr"
	"github.com/nghyane/llm-gw/internal/ir"
	"github.com/nghyane/llm-gw/internal/logging"
	"github.com/nghyane/llm-gw/internal/mapper/claude"
	"github.com/nghyane/llm-gw/internal/mapper/gemini"
	"github.com/nghyane/llm-gw/internal/stream"
)

// Messages handles POST /v1/messages.
func (e *Engine) Messages(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		writeClaudeError(c, apierr.Wrap(apierr.ClientShape, "failed to read request body", err))
		return
	}

	var req claude.MessagesRequest
	if err := jsonUnmarshal(raw, &req); err != nil {
		writeClaudeError(c, apierr.Wrap(apierr.ClientShape, "invalid JSON body", err))
		return
	}

	reqLog := logging.NewRequestLog(logging.ProtocolClaude, c.Request.Method, c.Request.URL.String(), c.ClientIP(), req.Model)
	reqLog.InputTokens = logging.EstimateTokens(string(raw))
	start := time.Now()
	e.Log.Start(reqLog)
	defer func() {
		reqLog.Duration = time.Since(start)
		e.Log.End(reqLog)
	}()

	sid := fingerprintSID(protocolClaude, raw)
	physicalModel := e.Registry.ResolvePhysicalModel(req.Model)
	reqLog.PhysicalModel = physicalModel
	isImageGen := claude.DetectImageGen(physicalModel)
	clientWantsStream := req.Stream

	opts := claude.Options{IsImageGen: isImageGen, ImageThinkingDisabled: e.Config.ImageThinkingDisabled()}
	translate := func(physical, sid string) (*ir.RequestEnvelope, error) {
		inner, err := claude.BuildInnerRequest(&req, physical, opts)
		if err != nil {
			return nil, err
		}
		return gemini.Wrap(inner, "", physical, sid, entryFor(protocolClaude, isImageGen))
	}

	result, apiErr := e.run(c.Request.Context(), protocolClaude, sid, req.Model, physicalModel, translate, true)
	if apiErr != nil {
		reqLog.Status = apiErr.Status
		reqLog.Error = apiErr.Message
		writeClaudeError(c, apiErr)
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
		writeClaudeError(c, apierr.Wrap(apierr.Fatal, "failed to collect upstream reply", collectErr))
		return
	}
	resp := claude.FromReply(reply, req.Model, physicalModel)
	reqLog.Status = 200
	reqLog.OutputTokens = resp.Usage.OutputTokens

	if !clientWantsStream {
		c.JSON(200, resp)
		return
	}

	writeStreamHeaders(c)
	_ = stream.FrameSSE(c.Writer, map[string]any{"type": "message_start", "message": resp})
	for _, block := range resp.Content {
		_ = stream.FrameSSE(c.Writer, map[string]any{"type": "content_block_start", "content_block": block})
	}
	_ = stream.FrameSSE(c.Writer, map[string]any{"type": "message_delta", "delta": map[string]any{"stop_reason": resp.StopReason}, "usage": resp.Usage})
	_ = stream.FrameSSE(c.Writer, map[string]any{"type": "message_stop"})
}

// CountTokens handles POST /v1/messages/count_tokens.
func (e *Engine) CountTokens(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		writeClaudeError(c, apierr.Wrap(apierr.ClientShape, "failed to read request body", err))
		return
	}
	var req claude.CountTokensRequest
	if err := jsonUnmarshal(raw, &req); err != nil {
		writeClaudeError(c, apierr.Wrap(apierr.ClientShape, "invalid JSON body", err))
		return
	}
	c.JSON(200, claude.CountTokensResponse{InputTokens: claude.CountTokens(req.Model, raw)})
}

func writeClaudeError(c *gin.Context, e *apierr.Error) {
	status, body := apierr.ToClaude(e)
	c.JSON(status, body)
}
