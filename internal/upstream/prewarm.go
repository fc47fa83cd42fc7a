package upstream

import (
	"context"
	"net/http"
	"time"
)

// PrewarmConnections issues a HEAD probe against BaseURL so the first real
// request doesn't pay a fresh TLS handshake. Uses SharedTransport, the same
// connection pool every live call goes through, so the warmed connection is
// actually reused rather than discarded.
func PrewarmConnections(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, BaseURL, nil)
	if err != nil {
		return
	}

	client := &http.Client{Transport: SharedTransport, Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return
	}
	resp.Body.Close()
}
