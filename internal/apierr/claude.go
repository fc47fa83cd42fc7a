package apierr

// ClaudeEnvelope is the `{type:"error", error:{type,message}}` shape.
type ClaudeEnvelope struct {
	Type  string          `json:"type"`
	Error ClaudeErrorBody `json:"error"`
}

type ClaudeErrorBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ToClaude renders e in the Anthropic-compatible error envelope. NoCapacity
// maps to 429/overloaded rather than the generic 503 other protocols use.
func ToClaude(e *Error) (int, ClaudeEnvelope) {
	status := e.Status
	typ := e.Type
	if e.Category == NoCapacity {
		status = 429
		typ = "overloaded_error"
	}
	return status, ClaudeEnvelope{
		Type:  "error",
		Error: ClaudeErrorBody{Type: typ, Message: e.Error()},
	}
}
