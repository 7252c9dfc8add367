package httpapi

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// pushEvent is the envelope every websocket push message carries.
type pushEvent struct {
	Type     string `json:"type"`
	HostUUID string `json:"hostUuid,omitempty"`
	AppID    int    `json:"appId,omitempty"`
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The control API is a local-only surface; any origin is
	// accepted the same way the documented CORS policy allows any origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// hub fans out push events to every connected UI client (the
// onHostChanged/onStreamRequested/onQuitRequested push
// channel, alongside the documented polling endpoints).
type hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func newHub() *hub {
	return &hub{clients: make(map[*websocket.Conn]struct{})}
}

func (h *hub) add(c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *hub) remove(c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

func (h *hub) broadcast(ev pushEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if err := c.WriteJSON(ev); err != nil {
			c.Close()
			delete(h.clients, c)
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debugw("websocket upgrade failed", "error", err)
		return
	}
	s.hub.add(conn)

	defer func() {
		s.hub.remove(conn)
		conn.Close()
	}()

	// Clients don't send anything meaningful; this goroutine's only job is
	// detecting disconnects by blocking on Read until it errors.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// OnHostChanged implements session.EventSink.
func (s *Server) OnHostChanged(hostUUID string) {
	s.hub.broadcast(pushEvent{Type: "hostChanged", HostUUID: hostUUID})
}

// OnStreamRequested implements session.EventSink.
func (s *Server) OnStreamRequested(hostUUID string, appID int) {
	s.hub.broadcast(pushEvent{Type: "streamRequested", HostUUID: hostUUID, AppID: appID})
}

// OnQuitRequested implements session.EventSink.
func (s *Server) OnQuitRequested(hostUUID string) {
	s.hub.broadcast(pushEvent{Type: "quitRequested", HostUUID: hostUUID})
}
