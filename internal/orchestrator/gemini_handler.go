package orchestrator

import (
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nghyane/llm-gw/internal/apierr"
	"github.com/nghyane/llm-gw/internal/ir"
	"github.com/nghyane/llm-gw/internal/logging"
	"github.com/nghyane/llm-gw/internal/mapper/gemini"
	"github.com/nghyane/llm-gw/internal/stream"
)

// GenerateContent handles POST /v1beta/models/:model_action, where
// model_action is "<model>:generateContent" or "<model>:streamGenerateContent".
// The Gemini-native request/response bodies are already the
// internal Gemini shape, so no protocol mapper runs — only the v1internal
// wrap/unwrap.
func (e *Engine) GenerateContent(c *gin.Context) {
	action := c.Param("model_action")
	clientModel, wantStream := splitModelAction(action)
	if clientModel == "" {
		writeGeminiError(c, apierr.New(apierr.ClientShape, "missing model in path"))
		return
	}

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		writeGeminiError(c, apierr.Wrap(apierr.ClientShape, "failed to read request body", err))
		return
	}

	raw = gemini.RenameParametersJSONSchema(raw)

	var inner ir.InnerRequest
	if err := jsonUnmarshal(raw, &inner); err != nil {
		writeGeminiError(c, apierr.Wrap(apierr.ClientShape, "invalid JSON body", err))
		return
	}

	reqLog := logging.NewRequestLog(logging.ProtocolGemini, c.Request.Method, c.Request.URL.String(), c.ClientIP(), clientModel)
	reqLog.InputTokens = logging.EstimateTokens(string(raw))
	start := time.Now()
	e.Log.Start(reqLog)
	defer func() {
		reqLog.Duration = time.Since(start)
		e.Log.End(reqLog)
	}()

	sid := fingerprintSID(protocolGemini, raw)
	physicalModel := e.Registry.ResolvePhysicalModel(clientModel)
	reqLog.PhysicalModel = physicalModel
	isImageGen := strings.HasPrefix(physicalModel, "gemini-3-pro-image")

	translate := func(physical, sid string) (*ir.RequestEnvelope, error) {
		return gemini.Wrap(&inner, "", physical, sid, entryFor(protocolGemini, isImageGen))
	}

	result, apiErr := e.run(c.Request.Context(), protocolGemini, sid, clientModel, physicalModel, translate, true)
	if apiErr != nil {
		reqLog.Status = apiErr.Status
		reqLog.Error = apiErr.Message
		writeGeminiError(c, apiErr)
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
		writeGeminiError(c, apierr.Wrap(apierr.Fatal, "failed to collect upstream reply", collectErr))
		return
	}
	reqLog.Status = 200

	if !wantStream {
		c.JSON(200, reply)
		return
	}

	writeStreamHeaders(c)
	_ = stream.FrameSSE(c.Writer, reply)
}

// GeminiCountTokens handles POST /v1beta/models/:name:countTokens, a placeholder
// returning 0.
func (e *Engine) GeminiCountTokens(c *gin.Context) {
	c.JSON(200, map[string]int{"totalTokens": 0})
}

func splitModelAction(action string) (model string, wantStream bool) {
	idx := strings.LastIndex(action, ":")
	if idx < 0 {
		return action, false
	}
	model, verb := action[:idx], action[idx+1:]
	return model, verb == "streamGenerateContent"
}

func writeGeminiError(c *gin.Context, e *apierr.Error) {
	status, body := apierr.ToGemini(e)
	c.JSON(status, body)
}
