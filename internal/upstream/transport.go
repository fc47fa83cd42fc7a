// Package upstream implements the v1internal HTTP client contract consumed
// by the orchestrator: call_v1_internal(method, bearer, body, query,
// account_id) -> {response}. SharedTransport is the one pooled connection
// set used for both connection prewarming (see prewarm.go) and live traffic
// against cloudcode-pa.googleapis.com.
package upstream

import (
	"net/http"
	"time"
)

// SharedTransport is the process-wide HTTP transport for all v1internal
// calls (and the prewarm HEAD pings), tuned for a small number of
// long-lived upstream hosts with frequent reuse rather than many distinct
// hosts.
var SharedTransport = &http.Transport{
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 20,
	IdleConnTimeout:     90 * time.Second,
	TLSHandshakeTimeout: 10 * time.Second,
	ForceAttemptHTTP2:   true,
}

// BaseURL is the v1internal Gemini-for-Antigravity endpoint host.
const BaseURL = "https://cloudcode-pa.googleapis.com"
