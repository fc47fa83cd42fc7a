// Package logging builds and emits the per-request RequestLog and the
// external-collaborator callback hooks a gateway request lifecycle needs:
// on_request_start, on_request_end, on_rotate. Storage of these logs is
// explicitly out of scope — this package only constructs them, writes a
// structured line via logrus, and forwards them to whatever collaborator
// funcs the caller registered. Grounded on the teacher's logrus usage and
// go.mod's own lumberjack/logrus/uuid/tiktoken-go dependencies.
package logging

import "time"

// Protocol identifies which client-facing wire format produced a request.
type Protocol string

const (
	ProtocolOpenAI Protocol = "openai"
	ProtocolClaude Protocol = "claude"
	ProtocolGemini Protocol = "gemini"
)

// RequestLog is emitted once per completed request. Every
// field here is transient: no component in this gateway persists it, it is
// only ever logged and handed to external collaborators.
type RequestLog struct {
	ID            string
	Timestamp     time.Time
	Method        string
	URL           string
	Status        int
	Duration      time.Duration
	ClientModel   string
	PhysicalModel string
	AccountEmail  string
	ClientIP      string
	Error         string
	InputTokens   int
	OutputTokens  int
	Protocol      Protocol
}
