package api

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nghyane/llm-gw/internal/monitor"
	"github.com/nghyane/llm-gw/internal/orchestrator"
	"github.com/nghyane/llm-gw/internal/warmup"
)

// New builds the gin.Engine serving every route in the external interface
// table, wired to the given orchestrator/warmup engines and the
// metrics/monitor hub. debug toggles gin's own verbose logger to match the
// same flag internal/logging uses for its formatter.
func New(orch *orchestrator.Engine, wu *warmup.Engine, metrics *monitor.Metrics, hub *monitor.Hub, debug bool) *gin.Engine {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), Compression())

	r.POST("/v1/chat/completions", orch.ChatCompletions)
	r.POST("/v1/completions", orch.LegacyCompletions)
	r.POST("/v1/images/generations", orch.ImageGenerations)
	r.POST("/v1/images/edits", orch.ImageEdits)
	r.GET("/v1/models", modelListNegotiator(orch))
	r.POST("/v1/models/detect", orch.DetectModel)

	r.POST("/v1/messages", orch.Messages)
	r.POST("/v1/messages/count_tokens", orch.CountTokens)

	r.POST("/v1beta/models/:model_action", geminiDispatch(orch))
	r.GET("/v1beta/models", orch.ListModelsGemini)
	r.GET("/v1beta/models/:name", orch.GetModelGemini)

	r.POST("/internal/warmup", wu.Handle)
	if metrics != nil {
		r.GET("/internal/metrics", gin.WrapH(metrics.Handler()))
	}
	if hub != nil {
		r.GET("/internal/monitor", hub.Handle)
	}

	return r
}

// geminiDispatch shares the single ":model_action" path segment between
// generateContent/streamGenerateContent and the countTokens placeholder
// ("/v1beta/models/:name:countTokens returns 0 placeholder") — gin's
// router treats ":model_action" as one wildcard segment, so both verbs
// have to resolve through one registered route rather than two competing
// wildcards at the same path depth.
func geminiDispatch(orch *orchestrator.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasSuffix(c.Param("model_action"), ":countTokens") {
			orch.GeminiCountTokens(c)
			return
		}
		orch.GenerateContent(c)
	}
}

// modelListNegotiator serves GET /v1/models, which both the OpenAI-
// compatible and Anthropic-compatible clients hit on the same literal path
// with no disambiguating query parameter. Resolves the ambiguity the way
// an Anthropic SDK client actually identifies itself: the anthropic-version
// header every Anthropic HTTP client sends on every request, including a
// bare list call.
func modelListNegotiator(orch *orchestrator.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("anthropic-version") != "" {
			orch.ListModelsClaude(c)
			return
		}
		orch.ListModelsOpenAI(c)
	}
}
