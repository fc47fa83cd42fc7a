package apierr

// OpenAIEnvelope is the `{error:{message,type,code}}` shape.
type OpenAIEnvelope struct {
	Error OpenAIErrorBody `json:"error"`
}

type OpenAIErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
}

// ToOpenAI renders e in the OpenAI-compatible error envelope.
func ToOpenAI(e *Error) (int, OpenAIEnvelope) {
	return e.Status, OpenAIEnvelope{Error: OpenAIErrorBody{
		Message: e.Error(),
		Type:    e.Type,
	}}
}
