// Package ir defines the internal Gemini-shape request envelope shared by
// the OpenAI, Claude, and Gemini mappers. Content parts are modeled as a
// small closed set of tagged variants rather than an interface hierarchy,
// mirroring how the rest of the mapper layer treats provider formats.
package ir

import "encoding/json"

// Role is the role of a content turn in the internal Gemini shape.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// RequestType classifies the upstream call for logging and model aliasing.
type RequestType string

const (
	RequestTypeChat      RequestType = "chat"
	RequestTypeAgent     RequestType = "agent"
	RequestTypeWebSearch RequestType = "web_search"
	RequestTypeImageGen  RequestType = "image_gen"
)

// Content is one turn of the conversation: a role plus an ordered list of parts.
type Content struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// PartKind discriminates the Part union.
type PartKind string

const (
	PartText             PartKind = "text"
	PartInlineData       PartKind = "inlineData"
	PartFileData         PartKind = "fileData"
	PartFunctionCall      PartKind = "functionCall"
	PartFunctionResponse PartKind = "functionResponse"
)

// Part is the Gemini content-element union: text, inlineData, fileData,
// functionCall, functionResponse. Only the fields relevant to Kind are set;
// MarshalJSON/UnmarshalJSON project to/from the wire shape Google expects.
type Part struct {
	Kind PartKind

	Text    string `json:"-"`
	Thought bool   `json:"-"`

	ThoughtSignature string `json:"-"`

	InlineData *Blob `json:"-"`
	FileData   *File `json:"-"`

	FunctionCall     *FunctionCall     `json:"-"`
	FunctionResponse *FunctionResponse `json:"-"`
}

// Blob is inline base64 media (images, audio) embedded directly in the request.
type Blob struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// File is a reference to out-of-band media.
type File struct {
	FileURI  string `json:"fileUri"`
	MimeType string `json:"mimeType"`
}

// FunctionCall is a model-issued tool invocation.
type FunctionCall struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
	ID   string          `json:"id,omitempty"`
}

// FunctionResponse is the client's reply to a FunctionCall.
type FunctionResponse struct {
	Name     string          `json:"name"`
	Response json.RawMessage `json:"response,omitempty"`
	ID       string          `json:"id,omitempty"`
}

func TextPart(text string) Part               { return Part{Kind: PartText, Text: text} }
func ThoughtPart(text, signature string) Part  { return Part{Kind: PartText, Text: text, Thought: true, ThoughtSignature: signature} }
func InlineDataPart(mime, data string) Part    { return Part{Kind: PartInlineData, InlineData: &Blob{MimeType: mime, Data: data}} }
func FileDataPart(mime, uri string) Part       { return Part{Kind: PartFileData, FileData: &File{MimeType: mime, FileURI: uri}} }
func FunctionCallPart(fc FunctionCall) Part    { return Part{Kind: PartFunctionCall, FunctionCall: &fc} }
func FunctionResponsePart(fr FunctionResponse) Part {
	return Part{Kind: PartFunctionResponse, FunctionResponse: &fr}
}

// IsTextOnly reports whether the part is a plain (non-thought) text part,
// used by the mergers that collapse adjacent text.
func (p Part) IsTextOnly() bool { return p.Kind == PartText && !p.Thought }

// MarshalJSON projects the tagged-variant Part onto the flat wire object
// Gemini expects (one of text/inlineData/fileData/functionCall/functionResponse).
func (p Part) MarshalJSON() ([]byte, error) {
	m := map[string]any{}
	switch p.Kind {
	case PartText:
		m["text"] = p.Text
		if p.Thought {
			m["thought"] = true
		}
		if p.ThoughtSignature != "" {
			m["thoughtSignature"] = p.ThoughtSignature
		}
	case PartInlineData:
		if p.InlineData != nil {
			m["inlineData"] = p.InlineData
		}
	case PartFileData:
		if p.FileData != nil {
			m["fileData"] = p.FileData
		}
	case PartFunctionCall:
		if p.FunctionCall != nil {
			m["functionCall"] = p.FunctionCall
		}
	case PartFunctionResponse:
		if p.FunctionResponse != nil {
			m["functionResponse"] = p.FunctionResponse
		}
	}
	return json.Marshal(m)
}

// UnmarshalJSON recovers the tagged variant from the flat wire object.
func (p *Part) UnmarshalJSON(data []byte) error {
	var raw struct {
		Text             *string          `json:"text"`
		Thought          bool             `json:"thought"`
		ThoughtSignature string           `json:"thoughtSignature"`
		InlineData       *Blob            `json:"inlineData"`
		FileData         *File            `json:"fileData"`
		FunctionCall     *FunctionCall    `json:"functionCall"`
		FunctionResponse *FunctionResponse `json:"functionResponse"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.FunctionCall != nil:
		p.Kind = PartFunctionCall
		p.FunctionCall = raw.FunctionCall
	case raw.FunctionResponse != nil:
		p.Kind = PartFunctionResponse
		p.FunctionResponse = raw.FunctionResponse
	case raw.InlineData != nil:
		p.Kind = PartInlineData
		p.InlineData = raw.InlineData
	case raw.FileData != nil:
		p.Kind = PartFileData
		p.FileData = raw.FileData
	default:
		p.Kind = PartText
		if raw.Text != nil {
			p.Text = *raw.Text
		}
		p.Thought = raw.Thought
		p.ThoughtSignature = raw.ThoughtSignature
	}
	return nil
}

// ThinkingConfig controls upstream reasoning/thinking generation.
type ThinkingConfig struct {
	IncludeThoughts bool `json:"includeThoughts"`
	ThinkingBudget  int  `json:"thinkingBudget"`
}

// ImageConfig controls image generation parameters on generationConfig.
type ImageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
	ImageSize   string `json:"imageSize,omitempty"`
}

// GenerationConfig mirrors Gemini's generationConfig object.
type GenerationConfig struct {
	Temperature      *float64        `json:"temperature,omitempty"`
	TopP             *float64        `json:"topP,omitempty"`
	MaxOutputTokens  *int            `json:"maxOutputTokens,omitempty"`
	CandidateCount   *int            `json:"candidateCount,omitempty"`
	StopSequences    []string        `json:"stopSequences,omitempty"`
	ResponseMimeType string          `json:"responseMimeType,omitempty"`
	ThinkingConfig   *ThinkingConfig `json:"thinkingConfig,omitempty"`
	ImageConfig      *ImageConfig    `json:"imageConfig,omitempty"`
	ResponseLogprobs bool            `json:"responseLogprobs,omitempty"`
	Logprobs         *int            `json:"logprobs,omitempty"`
}

// FunctionDeclaration is a single tool function exposed to the model.
type FunctionDeclaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// Tool wraps one or more function declarations (Gemini groups them together)
// or a built-in tool such as googleSearch.
type Tool struct {
	FunctionDeclarations []FunctionDeclaration `json:"functionDeclarations,omitempty"`
	GoogleSearch         map[string]any        `json:"googleSearch,omitempty"`
}

// SafetySetting is one content-safety category/threshold pair.
type SafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

// InnerRequest is the Gemini-shape request body.
type InnerRequest struct {
	Contents          []Content         `json:"contents"`
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
	Tools             []Tool            `json:"tools,omitempty"`
	SafetySettings    []SafetySetting   `json:"safetySettings,omitempty"`
}

// UsageMetadata mirrors Gemini's usageMetadata object.
type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount,omitempty"`
	CandidatesTokenCount int `json:"candidatesTokenCount,omitempty"`
	TotalTokenCount      int `json:"totalTokenCount,omitempty"`
	ThoughtsTokenCount   int `json:"thoughtsTokenCount,omitempty"`
}

// Candidate is one reply candidate.
type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

// Reply is the canonical internal reply shape produced by the collector and
// consumed by every per-protocol response mapper.
type Reply struct {
	Candidates    []Candidate    `json:"candidates"`
	UsageMetadata *UsageMetadata `json:"usageMetadata,omitempty"`
}

// RequestEnvelope is the full v1internal wire envelope.
type RequestEnvelope struct {
	Project     string        `json:"project,omitempty"`
	RequestID   string        `json:"requestId"`
	Request     *InnerRequest `json:"request"`
	Model       string        `json:"model"`
	UserAgent   string        `json:"userAgent"`
	RequestType RequestType   `json:"requestType"`
}

// MergeConsecutiveSameRole merges adjacent same-role Content entries and
// adjacent text-only parts within a turn.
func MergeConsecutiveSameRole(contents []Content) []Content {
	out := make([]Content, 0, len(contents))
	for _, c := range contents {
		if n := len(out); n > 0 && out[n-1].Role == c.Role {
			out[n-1].Parts = mergeParts(append(out[n-1].Parts, c.Parts...))
			continue
		}
		cc := c
		cc.Parts = mergeParts(c.Parts)
		out = append(out, cc)
	}
	return out
}

// mergeParts collapses runs of adjacent plain-text parts into one.
func mergeParts(parts []Part) []Part {
	out := make([]Part, 0, len(parts))
	for _, p := range parts {
		if n := len(out); n > 0 && out[n-1].IsTextOnly() && p.IsTextOnly() {
			out[n-1].Text += p.Text
			continue
		}
		out = append(out, p)
	}
	return out
}
