// Package wsbroadcast live-tails recorded command-script lines over
// WebSocket. It is purely additive to internal/proxy's recording path:
// connecting a viewer never changes what gets written to a ScriptSink.
//
// Grounded on internal/websocket's reconnecting tail client, mirrored
// into the server side of the same library (gorilla/websocket). The
// keepalive timing constants below are its own copies, with the same
// values internal/websocket uses; it does not import that package.
package wsbroadcast

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sibson/vncdotool/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024
	clientSendBuf  = 64
)

var log = logging.L("wsbroadcast")

// Hub fans out broadcast lines to every connected viewer. The zero value
// is not usable; construct with NewHub.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*viewer]struct{}

	broadcast  chan string
	register   chan *viewer
	unregister chan *viewer
	done       chan struct{}
	closeOnce  sync.Once
}

type viewer struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a Hub and starts its run loop. Call Close when done.
func NewHub() *Hub {
	h := &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients:    make(map[*viewer]struct{}),
		broadcast:  make(chan string, 256),
		register:   make(chan *viewer),
		unregister: make(chan *viewer),
		done:       make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case v := <-h.register:
			h.mu.Lock()
			h.clients[v] = struct{}{}
			h.mu.Unlock()

		case v := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[v]; ok {
				delete(h.clients, v)
				close(v.send)
			}
			h.mu.Unlock()

		case line := <-h.broadcast:
			h.mu.Lock()
			for v := range h.clients {
				select {
				case v.send <- []byte(line):
				default:
					log.Warn("viewer send buffer full, dropping line")
				}
			}
			h.mu.Unlock()

		case <-h.done:
			h.mu.Lock()
			for v := range h.clients {
				close(v.send)
			}
			h.clients = nil
			h.mu.Unlock()
			return
		}
	}
}

// Broadcast queues line for delivery to every connected viewer. Safe to
// call on a nil Hub (no-op), so wiring a broadcaster is optional.
func (h *Hub) Broadcast(line string) {
	if h == nil {
		return
	}
	select {
	case h.broadcast <- line:
	case <-h.done:
	}
}

// ServeHTTP upgrades r into a WebSocket viewer connection and streams
// every subsequently broadcast line to it until the connection closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", "error", err)
		return
	}

	v := &viewer{conn: conn, send: make(chan []byte, clientSendBuf)}
	h.register <- v

	go h.readPump(v)
	go h.writePump(v)
}

// readPump drains and discards inbound frames; a viewer is read-only but
// must still be pumped so gorilla/websocket processes control frames
// (pong, close) and detects a dropped connection.
func (h *Hub) readPump(v *viewer) {
	defer func() {
		h.unregister <- v
		v.conn.Close()
	}()
	v.conn.SetReadLimit(maxMessageSize)
	v.conn.SetReadDeadline(time.Now().Add(pongWait))
	v.conn.SetPongHandler(func(string) error {
		v.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := v.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(v *viewer) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		v.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-v.send:
			v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				v.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := v.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := v.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close stops the hub's run loop and disconnects every viewer.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}
