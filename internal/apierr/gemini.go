package apierr

// GeminiEnvelope is the `{error:{code,message,status}}` shape.
type GeminiEnvelope struct {
	Error GeminiErrorBody `json:"error"`
}

type GeminiErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

var statusNames = map[int]string{
	400: "INVALID_ARGUMENT",
	401: "UNAUTHENTICATED",
	403: "PERMISSION_DENIED",
	404: "NOT_FOUND",
	429: "RESOURCE_EXHAUSTED",
	499: "CANCELLED",
	500: "INTERNAL",
	503: "UNAVAILABLE",
	529: "UNAVAILABLE",
}

// ToGemini renders e in the Gemini-compatible error envelope.
func ToGemini(e *Error) (int, GeminiEnvelope) {
	status := statusNames[e.Status]
	if status == "" {
		status = "UNKNOWN"
	}
	return e.Status, GeminiEnvelope{Error: GeminiErrorBody{
		Code:    e.Status,
		Message: e.Error(),
		Status:  status,
	}}
}
