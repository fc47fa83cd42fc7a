package openai

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/nghyane/llm-gw/internal/ir"
	"github.com/nghyane/llm-gw/internal/mapper/gemini"
	"github.com/nghyane/llm-gw/internal/mapper/schema"
	"github.com/nghyane/llm-gw/internal/util"
)

// Options carries the process-wide flags the mapper needs but shouldn't own
// (image_thinking_mode is an atomic process-wide flag).
type Options struct {
	ImageThinkingDisabled bool
	IsImageGen            bool
}

// BuildInnerRequest translates an OpenAI ChatCompletionRequest into the
// internal Gemini-shape InnerRequest "Request".
func BuildInnerRequest(req *ChatCompletionRequest, physicalModel string, opts Options) (*ir.InnerRequest, error) {
	toolIDToName := scanToolCallNames(req.Messages)

	var systemParts []string
	if req.Instructions != "" {
		systemParts = append(systemParts, req.Instructions)
	}

	var contents []ir.Content
	for _, msg := range req.Messages {
		if msg.Role == "system" || msg.Role == "developer" {
			if text := extractMessageText(msg.Content); text != "" {
				systemParts = append(systemParts, text)
			}
			continue
		}

		role := mapRole(msg.Role)
		parts, err := buildParts(msg, toolIDToName)
		if err != nil {
			return nil, err
		}
		if len(parts) == 0 {
			continue
		}
		contents = append(contents, ir.Content{Role: role, Parts: parts})
	}

	contents = ir.MergeConsecutiveSameRole(contents)

	inner := &ir.InnerRequest{Contents: contents}
	if len(systemParts) > 0 {
		inner.SystemInstruction = &ir.Content{
			Role:  ir.RoleUser,
			Parts: []ir.Part{ir.TextPart(strings.Join(systemParts, "\n"))},
		}
	}

	inner.GenerationConfig = buildGenerationConfig(req)

	applyThinking(req, inner, physicalModel, opts)

	if len(req.Tools) > 0 || hasRawTools(req.Tools) {
		decls, err := buildFunctionDeclarations(req.Tools)
		if err != nil {
			return nil, err
		}
		if len(decls) > 0 {
			inner.Tools = []ir.Tool{{FunctionDeclarations: decls}}
		}
	}

	if opts.IsImageGen {
		inner.Tools = nil
		inner.SystemInstruction = nil
		applyImageConfig(inner, req, physicalModel)
	}

	return inner, nil
}

// applyImageConfig resolves generationConfig.imageConfig from the
// size/image_size pair for the gemini package's shared image-gen arm.
func applyImageConfig(inner *ir.InnerRequest, req *ChatCompletionRequest, physicalModel string) {
	if inner.GenerationConfig == nil {
		inner.GenerationConfig = &ir.GenerationConfig{}
	}
	imageSize := gemini.ResolveImageSize(req.ImageSize, "", physicalModel)
	aspectRatio := "1:1"
	if req.Size != "" {
		aspectRatio = gemini.CalculateAspectRatioFromSize(req.Size)
	}
	inner.GenerationConfig.ImageConfig = &ir.ImageConfig{
		ImageSize:   imageSize,
		AspectRatio: aspectRatio,
	}
}

func hasRawTools(raw json.RawMessage) bool { return len(raw) > 0 && string(raw) != "null" }

func mapRole(role string) ir.Role {
	switch role {
	case "assistant":
		return ir.RoleModel
	case "tool", "function":
		return ir.RoleUser
	default:
		return ir.RoleUser
	}
}

// scanToolCallNames pre-scans assistant messages to recover
// tool_call_id -> function_name, needed when mapping later tool-response
// messages back into functionResponse parts.
func scanToolCallNames(messages []ChatMessage) map[string]string {
	out := map[string]string{}
	for _, msg := range messages {
		for _, tc := range msg.ToolCalls {
			out[tc.ID] = tc.Function.Name
		}
	}
	return out
}

func extractMessageText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	v := gjson.ParseBytes(raw)
	if v.Type == gjson.String {
		return v.String()
	}
	if v.IsArray() {
		var texts []string
		v.ForEach(func(_, block gjson.Result) bool {
			if block.Get("type").String() == "text" {
				texts = append(texts, block.Get("text").String())
			}
			return true
		})
		return strings.Join(texts, " ")
	}
	return ""
}

func buildParts(msg ChatMessage, toolIDToName map[string]string) ([]ir.Part, error) {
	var parts []ir.Part

	if msg.Reasoning != "" {
		parts = append(parts, ir.ThoughtPart(msg.Reasoning, ""))
	}

	if msg.Role == "tool" || msg.Role == "function" {
		name := toolIDToName[msg.ToolCallID]
		if name == "" {
			name = msg.Name
		}
		resultText := extractMessageText(msg.Content)
		response, _ := json.Marshal(map[string]any{"result": resultText})
		parts = append(parts, ir.FunctionResponsePart(ir.FunctionResponse{
			Name: name, Response: response, ID: msg.ToolCallID,
		}))
		return parts, nil
	}

	if len(msg.Content) > 0 {
		v := gjson.ParseBytes(msg.Content)
		switch {
		case v.Type == gjson.String:
			if v.String() != "" {
				parts = append(parts, ir.TextPart(v.String()))
			}
		case v.IsArray():
			v.ForEach(func(_, block gjson.Result) bool {
				switch block.Get("type").String() {
				case "text":
					if t := block.Get("text").String(); t != "" {
						parts = append(parts, ir.TextPart(t))
					}
				case "image_url":
					url := block.Get("image_url.url").String()
					if strings.HasPrefix(url, "data:") {
						mime, data := parseDataURL(url)
						parts = append(parts, ir.InlineDataPart(mime, data))
					} else if strings.HasPrefix(url, "http") {
						parts = append(parts, ir.FileDataPart("image/jpeg", url))
					}
				}
				return true
			})
		}
	}

	for _, tc := range msg.ToolCalls {
		args := tc.Function.Arguments
		var parsed json.RawMessage
		if args != "" {
			var probe any
			if json.Unmarshal([]byte(args), &probe) == nil {
				parsed = json.RawMessage(args)
			}
		}
		if parsed == nil {
			parsed = json.RawMessage("{}")
		}
		parts = append(parts, ir.FunctionCallPart(ir.FunctionCall{
			Name: tc.Function.Name, Args: parsed, ID: tc.ID,
		}))
	}

	return parts, nil
}

// parseDataURL extracts mime type and base64 payload from a data: URL.
func parseDataURL(url string) (mime, data string) {
	rest := strings.TrimPrefix(url, "data:")
	idx := strings.Index(rest, ",")
	if idx < 0 {
		return "application/octet-stream", ""
	}
	header := rest[:idx]
	data = rest[idx+1:]
	mime = strings.TrimSuffix(header, ";base64")
	if mime == "" {
		mime = "application/octet-stream"
	}
	return mime, data
}

func buildGenerationConfig(req *ChatCompletionRequest) *ir.GenerationConfig {
	temp := 1.0
	if req.Temperature != nil {
		temp = *req.Temperature
	}
	topP := 0.95
	if req.TopP != nil {
		topP = *req.TopP
	}
	gc := &ir.GenerationConfig{Temperature: &temp, TopP: &topP}

	if req.MaxTokens != nil {
		gc.MaxOutputTokens = req.MaxTokens
	}
	if req.N != nil {
		gc.CandidateCount = req.N
	}
	if stops := parseStopSequences(req.Stop); len(stops) > 0 {
		gc.StopSequences = stops
	}
	if req.ResponseFormat != nil && req.ResponseFormat.Type == "json_object" {
		gc.ResponseMimeType = "application/json"
	}
	return gc
}

func parseStopSequences(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	v := gjson.ParseBytes(raw)
	if v.Type == gjson.String {
		return []string{v.String()}
	}
	if v.IsArray() {
		var out []string
		v.ForEach(func(_, item gjson.Result) bool {
			out = append(out, item.String())
			return true
		})
		return out
	}
	return nil
}

func applyThinking(req *ChatCompletionRequest, inner *ir.InnerRequest, physicalModel string, opts Options) {
	clientRequested := req.Thinking != nil && req.Thinking.Type == "enabled"
	enabled := util.ShouldEnableThinking(physicalModel, clientRequested)

	if opts.IsImageGen && opts.ImageThinkingDisabled {
		inner.GenerationConfig.ThinkingConfig = &ir.ThinkingConfig{IncludeThoughts: false}
		return
	}

	if !enabled {
		return
	}

	requested := 0
	if req.Thinking != nil && req.Thinking.BudgetTokens > 0 {
		requested = req.Thinking.BudgetTokens
	}
	var budget int
	if opts.IsImageGen {
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
	raised := util.EnsureMaxOutputTokensAboveBudget(current, budget, opts.IsImageGen)
	inner.GenerationConfig.MaxOutputTokens = &raised
}

// buildFunctionDeclarations converts the raw `tools` array into Gemini
// functionDeclarations.
func buildFunctionDeclarations(rawTools json.RawMessage) ([]ir.FunctionDeclaration, error) {
	if len(rawTools) == 0 {
		return nil, nil
	}
	v := gjson.ParseBytes(rawTools)
	if !v.IsArray() {
		return nil, nil
	}

	var decls []ir.FunctionDeclaration
	v.ForEach(func(_, tool gjson.Result) bool {
		var fn gjson.Result
		if tool.Get("function").Exists() {
			fn = tool.Get("function")
		} else {
			fn = tool
		}

		name := fn.Get("name").String()
		if name == "" {
			return true
		}
		var params map[string]any
		if p := fn.Get("parameters"); p.Exists() {
			_ = json.Unmarshal([]byte(p.Raw), &params)
		}
		params = schema.EnsureObjectShape(params)

		decls = append(decls, ir.FunctionDeclaration{
			Name:        name,
			Description: fn.Get("description").String(),
			Parameters:  params,
		})
		return true
	})
	return decls, nil
}

// DetectImageGen reports true when either of size/image_size is present or
// the physical model name contains "image".
func DetectImageGen(req *ChatCompletionRequest, physicalModel string) bool {
	if req.Size != "" || req.ImageSize != "" {
		return true
	}
	return strings.Contains(physicalModel, "image")
}
