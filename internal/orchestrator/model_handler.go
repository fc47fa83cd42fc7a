package orchestrator

import (
	"io"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nghyane/llm-gw/internal/apierr"
	"github.com/nghyane/llm-gw/internal/modellist"
)

// ListModelsOpenAI handles GET /v1/models.
func (e *Engine) ListModelsOpenAI(c *gin.Context) {
	c.JSON(200, modellist.BuildOpenAIList(e.Registry.ListModels()))
}

// ListModelsClaude handles the Anthropic-formatted parallel GET /v1/models
// path ("also served as /v1/models Anthropic-formatted on a parallel
// path").
func (e *Engine) ListModelsClaude(c *gin.Context) {
	c.JSON(200, modellist.BuildClaudeList(e.Registry.ListModels()))
}

// ListModelsGemini handles GET /v1beta/models.
func (e *Engine) ListModelsGemini(c *gin.Context) {
	c.JSON(200, modellist.BuildGeminiList(e.Registry.ListModels()))
}

// GetModelGemini handles GET /v1beta/models/:name.
func (e *Engine) GetModelGemini(c *gin.Context) {
	c.JSON(200, modellist.BuildGeminiModel(c.Param("name")))
}

// DetectModel handles POST /v1/models/detect ("{model}; returns
// {model,mapped_model,type,features}").
func (e *Engine) DetectModel(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		writeOpenAIError(c, apierr.Wrap(apierr.ClientShape, "failed to read request body", err))
		return
	}
	var req struct {
		Model string `json:"model"`
	}
	if err := jsonUnmarshal(raw, &req); err != nil {
		writeOpenAIError(c, apierr.Wrap(apierr.ClientShape, "invalid JSON body", err))
		return
	}
	if req.Model == "" {
		writeOpenAIError(c, apierr.New(apierr.ClientShape, "missing 'model' field"))
		return
	}

	mapped := e.Registry.ResolvePhysicalModel(req.Model)
	reqType := classifyModel(mapped, req.Model)
	features := modelFeatures(e, mapped)

	c.JSON(200, gin.H{
		"model":        req.Model,
		"mapped_model": mapped,
		"type":         reqType,
		"features":     features,
	})
}

func classifyModel(physicalModel, clientModel string) string {
	switch {
	case strings.HasPrefix(physicalModel, "gemini-3-pro-image"):
		return "image_gen"
	case strings.HasSuffix(clientModel, "-online"):
		return "web_search"
	default:
		return "chat"
	}
}

func modelFeatures(e *Engine, physicalModel string) []string {
	features := []string{"chat"}
	if info := e.Registry.GetModelInfo(physicalModel); info != nil && info.Thinking != nil {
		features = append(features, "thinking")
	}
	return features
}
