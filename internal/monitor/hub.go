package monitor

import (
	"net/http"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// upgrader accepts any origin — the live monitor is meant for a
// decoupled local operator UI, the same trust boundary the rest of this
// gateway already assumes (it binds to a local address, not a public one).
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// safeConn serializes concurrent writes to one websocket connection —
// gorilla/websocket connections are not safe for concurrent writers,
// grounded on win30221-genesis's web_channel.go SafeConn wrapper.
type safeConn struct {
	*websocket.Conn
	mu sync.Mutex
}

func (c *safeConn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	payload, err := sonic.Marshal(v)
	if err != nil {
		return err
	}
	return c.WriteMessage(websocket.TextMessage, payload)
}

// Hub fans RequestLog records out to every attached operator UI. It keeps
// no history and no queue per connection: a slow reader just misses
// whatever was broadcast while it was behind, since storage/replay is
// explicitly out of scope for this gateway.
type Hub struct {
	mu    sync.RWMutex
	conns map[*safeConn]struct{}
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[*safeConn]struct{})}
}

// Handle upgrades GET /internal/monitor to a websocket and registers the
// connection for broadcast until it closes.
func (h *Hub) Handle(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	sc := &safeConn{Conn: conn}

	h.mu.Lock()
	h.conns[sc] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.conns, sc)
		h.mu.Unlock()
		conn.Close()
	}()

	// The feed is broadcast-only; read and discard so the connection
	// notices a client-initiated close instead of hanging forever.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Broadcast fans v out to every currently-attached connection, ignoring
// write errors; a broken connection stays registered until its own Handle
// goroutine notices the read failure and removes it.
func (h *Hub) Broadcast(v any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sc := range h.conns {
		_ = sc.writeJSON(v)
	}
}

// Connections reports the current attached-UI count, useful for a
// /internal/metrics gauge or a debug endpoint.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
