// Package apierr centralizes the error taxonomy and per-protocol envelope
// rendering. Mappers and the upstream client never swallow errors
// silently — they return an *Error carrying one of the five categories
// below — and the orchestrator is the only place that decides retry vs.
// surface.
package apierr

import "fmt"

// Category is one of the five error classes below.
type Category int

const (
	// ClientShape: request fails schema validation. 400, never retried,
	// no account consumed.
	ClientShape Category = iota
	// NoCapacity: empty healthy pool. 503 (OpenAI/Gemini) or 429/overloaded
	// (Anthropic). Never retried inside the orchestrator.
	NoCapacity
	// Transient: upstream 429/500/503/529, network error. Handled by the
	// retry table; rotates the account when appropriate.
	Transient
	// AuthLike: upstream 401/403/404. Short cooldown, rotate, limited
	// retries.
	AuthLike
	// Fatal: upstream 400 (except the known signature bug), mapper-internal
	// failure, parse failure. Surfaces the upstream text; no retry.
	Fatal
	// DownstreamClientGone: client cancellation. Drop task, release lease,
	// no mark.
	DownstreamClientGone
)

// Error is the gateway's internal error type; Status is the HTTP status to
// surface to the client (protocol-specific callers may remap it, e.g.
// Anthropic maps NoCapacity to 429 rather than 503).
type Error struct {
	Category Category
	Status   int
	Message  string
	Type     string // upstream-style type tag, e.g. "invalid_request_error"
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error for the given category with a default status and
// type tag, overridable via the With* helpers below.
func New(category Category, message string) *Error {
	e := &Error{Category: category, Message: message}
	switch category {
	case ClientShape:
		e.Status, e.Type = 400, "invalid_request_error"
	case NoCapacity:
		e.Status, e.Type = 503, "overloaded_error"
	case Transient:
		e.Status, e.Type = 503, "api_error"
	case AuthLike:
		e.Status, e.Type = 401, "authentication_error"
	case Fatal:
		e.Status, e.Type = 400, "invalid_request_error"
	case DownstreamClientGone:
		e.Status, e.Type = 499, "client_closed_request"
	}
	return e
}

// Wrap attaches an upstream/underlying error as the cause.
func Wrap(category Category, message string, cause error) *Error {
	e := New(category, message)
	e.Err = cause
	return e
}

// WithStatus overrides the default HTTP status (e.g. Anthropic's
// NoCapacity → 429 instead of 503).
func (e *Error) WithStatus(status int) *Error {
	e.Status = status
	return e
}

// WithType overrides the upstream-style type tag.
func (e *Error) WithType(t string) *Error {
	e.Type = t
	return e
}

// FromUpstreamStatus classifies a non-2xx upstream HTTP status into a
// Category (429/500/503/529 Transient; 401/403/404 AuthLike; 400
// Fatal unless the caller has already identified it as the known signature
// bug, in which case it should construct a Transient error directly).
func FromUpstreamStatus(status int, body string) *Error {
	switch status {
	case 429, 500, 503, 529:
		return Wrap(Transient, fmt.Sprintf("upstream returned %d", status), fmt.Errorf("%s", body))
	case 401, 403, 404:
		return Wrap(AuthLike, fmt.Sprintf("upstream returned %d", status), fmt.Errorf("%s", body))
	default:
		return Wrap(Fatal, fmt.Sprintf("upstream returned %d", status), fmt.Errorf("%s", body))
	}
}
