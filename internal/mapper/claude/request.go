package claude

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/nghyane/llm-gw/internal/ir"
	"github.com/nghyane/llm-gw/internal/mapper/schema"
	"github.com/nghyane/llm-gw/internal/util"
)

// Options carries process-wide flags the mapper needs but doesn't own.
type Options struct {
	ImageThinkingDisabled bool
	IsImageGen            bool
}

// BuildInnerRequest translates an Anthropic MessagesRequest into the
// internal Gemini-shape InnerRequest, symmetric to response.go's FromReply.
func BuildInnerRequest(req *MessagesRequest, physicalModel string, opts Options) (*ir.InnerRequest, error) {
	var contents []ir.Content
	for _, msg := range req.Messages {
		role := ir.RoleUser
		if msg.Role == "assistant" {
			role = ir.RoleModel
		}
		parts := buildParts(msg.Content)
		if len(parts) == 0 {
			continue
		}
		contentRole := role
		if containsToolResult(msg.Content) {
			contentRole = ir.RoleUser
		}
		contents = append(contents, ir.Content{Role: contentRole, Parts: parts})
	}
	contents = ir.MergeConsecutiveSameRole(contents)

	inner := &ir.InnerRequest{Contents: contents}

	if systemText := extractSystemText(req.System); systemText != "" {
		inner.SystemInstruction = &ir.Content{
			Role:  ir.RoleUser,
			Parts: []ir.Part{ir.TextPart(systemText)},
		}
	}

	inner.GenerationConfig = buildGenerationConfig(req)

	applyThinking(req, inner, physicalModel, opts.IsImageGen)

	if len(req.Tools) > 0 {
		var decls []ir.FunctionDeclaration
		for _, tool := range req.Tools {
			params := schema.EnsureObjectShape(tool.InputSchema)
			decls = append(decls, ir.FunctionDeclaration{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  params,
			})
		}
		if len(decls) > 0 {
			inner.Tools = []ir.Tool{{FunctionDeclarations: decls}}
		}
	}

	if opts.IsImageGen {
		inner.Tools = nil
		inner.SystemInstruction = nil
	}

	return inner, nil
}

func extractSystemText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	v := gjson.ParseBytes(raw)
	if v.Type == gjson.String {
		return v.String()
	}
	var texts []string
	v.ForEach(func(_, block gjson.Result) bool {
		texts = append(texts, block.Get("text").String())
		return true
	})
	return strings.Join(texts, "\n")
}

func containsToolResult(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	v := gjson.ParseBytes(raw)
	found := false
	if v.IsArray() {
		v.ForEach(func(_, block gjson.Result) bool {
			if block.Get("type").String() == "tool_result" {
				found = true
				return false
			}
			return true
		})
	}
	return found
}

// buildParts builds content parts from an Anthropic message's content.
// cache_control markers are dropped implicitly: we only read the fields
// that map onto the internal shape ( "strip cache_control markers").
func buildParts(raw json.RawMessage) []ir.Part {
	if len(raw) == 0 {
		return nil
	}
	v := gjson.ParseBytes(raw)
	if v.Type == gjson.String {
		if v.String() == "" {
			return nil
		}
		return []ir.Part{ir.TextPart(v.String())}
	}
	if !v.IsArray() {
		return nil
	}

	var parts []ir.Part
	v.ForEach(func(_, block gjson.Result) bool {
		switch block.Get("type").String() {
		case "text":
			if t := block.Get("text").String(); t != "" {
				parts = append(parts, ir.TextPart(t))
			}
		case "thinking":
			if t := block.Get("thinking").String(); t != "" {
				parts = append(parts, ir.ThoughtPart(t, block.Get("signature").String()))
			}
		case "image":
			mime := block.Get("source.media_type").String()
			if mime == "" {
				mime = "image/jpeg"
			}
			data := block.Get("source.data").String()
			if url := block.Get("source.url").String(); url != "" {
				parts = append(parts, ir.FileDataPart(mime, url))
			} else if data != "" {
				parts = append(parts, ir.InlineDataPart(mime, data))
			}
		case "tool_use":
			args := block.Get("input").Raw
			if args == "" {
				args = "{}"
			}
			parts = append(parts, ir.FunctionCallPart(ir.FunctionCall{
				Name: block.Get("name").String(),
				Args: json.RawMessage(args),
				ID:   block.Get("id").String(),
			}))
		case "tool_result":
			content := block.Get("content")
			resultText := content.String()
			if content.IsArray() {
				var texts []string
				content.ForEach(func(_, inner gjson.Result) bool {
					texts = append(texts, inner.Get("text").String())
					return true
				})
				resultText = strings.Join(texts, "\n")
			}
			response, _ := json.Marshal(map[string]any{"result": resultText})
			parts = append(parts, ir.FunctionResponsePart(ir.FunctionResponse{
				Name:     block.Get("tool_use_id").String(),
				Response: response,
				ID:       block.Get("tool_use_id").String(),
			}))
		}
		return true
	})
	return parts
}

func buildGenerationConfig(req *MessagesRequest) *ir.GenerationConfig {
	gc := &ir.GenerationConfig{}
	if req.Temperature != nil {
		gc.Temperature = req.Temperature
	}
	if req.TopP != nil {
		gc.TopP = req.TopP
	}
	if req.MaxTokens > 0 {
		maxTokens := req.MaxTokens
		gc.MaxOutputTokens = &maxTokens
	}
	if len(req.StopSequences) > 0 {
		gc.StopSequences = req.StopSequences
	}
	return gc
}

func applyThinking(req *MessagesRequest, inner *ir.InnerRequest, physicalModel string, isImageGen bool) {
	clientRequested := req.Thinking != nil && req.Thinking.Type == "enabled"
	if !util.ShouldEnableThinking(physicalModel, clientRequested) {
		return
	}

	requested := 0
	if req.Thinking != nil && req.Thinking.BudgetTokens > 0 {
		requested = req.Thinking.BudgetTokens
	}
	var budget int
	if isImageGen {
		budget = util.NormalizeThinkingBudget(physicalModel, requested)
	} else {
		budget = util.NormalizeChatThinkingBudget(requested)
	}

	inner.GenerationConfig.ThinkingConfig = &ir.ThinkingConfig{
		IncludeThoughts: true,
		ThinkingBudget:  budget,
	}

	current := 0
	if inner.GenerationConfig.MaxOutputTokens != nil {
		current = *inner.GenerationConfig.MaxOutputTokens
	}
	raised := util.EnsureMaxOutputTokensAboveBudget(current, budget, isImageGen)
	inner.GenerationConfig.MaxOutputTokens = &raised
}

// DetectImageGen reports whether a Messages request targets an image-gen
// physical model. The Anthropic wire shape has no size/image_size
// fields of its own, so unlike openai.DetectImageGen this is purely a
// physical-model check.
func DetectImageGen(physicalModel string) bool {
	return strings.Contains(physicalModel, "image")
}
