// Package modellist renders the registry's model table into each client
// protocol's native list/get envelope. Grounded on the teacher's own
// per-protocol response-shape convention (one small struct per wire format,
// no shared "generic model" type) already used throughout internal/mapper.
package modellist

import "time"

// OpenAIModel is one entry of the OpenAI /v1/models list.
type OpenAIModel struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

// OpenAIList is the OpenAI /v1/models response envelope.
type OpenAIList struct {
	Object string        `json:"object"`
	Data   []OpenAIModel `json:"data"`
}

// BuildOpenAIList renders the sorted model id list as an OpenAI list
// envelope ("object:\"list\"").
func BuildOpenAIList(ids []string) OpenAIList {
	created := time.Now().Unix()
	models := make([]OpenAIModel, 0, len(ids))
	for _, id := range ids {
		models = append(models, OpenAIModel{ID: id, Object: "model", Created: created, OwnedBy: "llm-gw"})
	}
	return OpenAIList{Object: "list", Data: models}
}

// ClaudeModel is one entry of the Anthropic /v1/models list.
type ClaudeModel struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	DisplayName string `json:"display_name"`
	CreatedAt   string `json:"created_at"`
}

// ClaudeList is the Anthropic /v1/models response envelope.
type ClaudeList struct {
	Data    []ClaudeModel `json:"data"`
	HasMore bool          `json:"has_more"`
	FirstID string        `json:"first_id"`
	LastID  string        `json:"last_id"`
}

// BuildClaudeList renders the sorted model id list as an Anthropic list
// envelope ("data + has_more + first_id + last_id").
func BuildClaudeList(ids []string) ClaudeList {
	created := time.Now().UTC().Format(time.RFC3339)
	models := make([]ClaudeModel, 0, len(ids))
	for _, id := range ids {
		models = append(models, ClaudeModel{ID: id, Type: "model", DisplayName: id, CreatedAt: created})
	}
	list := ClaudeList{Data: models}
	if len(models) > 0 {
		list.FirstID = models[0].ID
		list.LastID = models[len(models)-1].ID
	}
	return list
}

// GeminiModel is one entry of the Gemini /v1beta/models list.
type GeminiModel struct {
	Name                       string   `json:"name"`
	DisplayName                string   `json:"displayName"`
	SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
}

// GeminiList is the Gemini /v1beta/models response envelope.
type GeminiList struct {
	Models []GeminiModel `json:"models"`
}

var geminiMethods = []string{"generateContent", "streamGenerateContent", "countTokens"}

// BuildGeminiList renders the sorted model id list as a Gemini list envelope
// ("{models:[…]}").
func BuildGeminiList(ids []string) GeminiList {
	models := make([]GeminiModel, 0, len(ids))
	for _, id := range ids {
		models = append(models, geminiModel(id))
	}
	return GeminiList{Models: models}
}

// BuildGeminiModel renders a single GET /v1beta/models/:name response.
func BuildGeminiModel(id string) GeminiModel {
	return geminiModel(id)
}

func geminiModel(id string) GeminiModel {
	return GeminiModel{Name: "models/" + id, DisplayName: id, SupportedGenerationMethods: geminiMethods}
}
