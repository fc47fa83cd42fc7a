// Package retry implements the upstream retry/rotation decision table:
// given the HTTP status an upstream call failed with, how long to wait
// before the next attempt, and whether the offending account should be
// rotated out of the pool first. The table itself is an exact per-status
// lookup rather than a single uniform backoff curve, so it is expressed as
// plain functions here; internal/orchestrator drives the loop itself with
// this table plus the per-account gobreaker.CircuitBreaker consulted through
// internal/pool, rather than through a generic retry executor.
package retry

import (
	"strings"
	"time"
)

// Strategy names the backoff shape applied for a given status.
type Strategy int

const (
	StrategyNone Strategy = iota
	StrategyFixed
	StrategyLinear
	StrategyExponential
)

// Decision is the retry/backoff outcome for one failed attempt.
type Decision struct {
	Retry bool
	Delay time.Duration
	// DisableThinking asks the caller to strip thinking from the envelope
	// on the next attempt: a signature-bug retry reproduces the same 400
	// if it resends the identical thinking-enabled request.
	DisableThinking bool
}

// signatureBugSubstrings are the known 400-class upstream messages that
// indicate a transient request-signing bug worth one retry, rather than a
// genuine client-shape error ("400 with a known signature-bug
// substring retries once at a fixed delay; other 400s do not retry").
var signatureBugSubstrings = []string{
	"Invalid signature",
	"thinking.signature",
	"thinking.thinking",
	"Corrupted thought signature",
}

// ForStatus computes the retry decision for statusCode on the given
// zero-based attempt index. body is consulted only for 400s, to distinguish
// a known signature-bug substring from a genuine client-shape error.
// retryAfterMs is the upstream's advertised Retry-After in milliseconds, if
// any (429 only); 0 means absent.
func ForStatus(statusCode int, attempt int, retryAfterMs int, body string) Decision {
	switch statusCode {
	case 400:
		if containsAny(body, signatureBugSubstrings) {
			return Decision{Retry: attempt == 0, Delay: 200 * time.Millisecond, DisableThinking: attempt == 0}
		}
		return Decision{Retry: false}
	case 401, 403:
		return Decision{Retry: true, Delay: 200 * time.Millisecond}
	case 404:
		return Decision{Retry: true, Delay: 300 * time.Millisecond}
	case 429:
		if retryAfterMs > 0 {
			d := retryAfterMs + 200
			if d > 30000 {
				d = 30000
			}
			return Decision{Retry: true, Delay: time.Duration(d) * time.Millisecond}
		}
		return Decision{Retry: true, Delay: time.Duration(5000*(attempt+1)) * time.Millisecond}
	case 500:
		return Decision{Retry: true, Delay: time.Duration(3000*(attempt+1)) * time.Millisecond}
	case 503, 529:
		ms := 10000 * (1 << uint(attempt))
		if ms > 60000 {
			ms = 60000
		}
		return Decision{Retry: true, Delay: time.Duration(ms) * time.Millisecond}
	default:
		return Decision{Retry: false}
	}
}

func containsAny(s string, substrs []string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// ShouldRotate reports whether an account should be cooled/rotated out of
// the pool after a failure with this status ("401, 403, 404, 429, 500
// rotate the account; 503/529 retry on the same account").
func ShouldRotate(statusCode int) bool {
	switch statusCode {
	case 401, 403, 404, 429, 500:
		return true
	default:
		return false
	}
}

// MaxAttempts computes the retry budget for a protocol given the current
// healthy pool size ("min(3, pool_size+1), bounded below by 2 for
// Claude/OpenAI and 1 for Gemini passthrough").
func MaxAttempts(poolSize int, protocol string) int {
	n := poolSize + 1
	if n > 3 {
		n = 3
	}
	floor := 2
	if protocol == "gemini" {
		floor = 1
	}
	if n < floor {
		n = floor
	}
	return n
}
