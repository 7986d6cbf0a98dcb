// Package ws serves the browser preview: the page, a websocket stream of
// rendered frames, and health and metrics endpoints.
package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/coreman2200/funtimes-promptviz/internal/render"
)

const writeWait = 200 * time.Millisecond

// Hub fans frames out to every connected viewer. It is a render.Driver.
type Hub struct {
	// wmu serializes writes; a gorilla conn allows one writer at a time.
	wmu sync.Mutex

	mu        sync.RWMutex
	clients   map[*websocket.Conn]struct{}
	last      []byte
	frame     render.Frame
	startTime time.Time
	fps       int

	minGap   time.Duration
	lastSent time.Time

	// OnClients is called with the viewer count whenever it changes.
	OnClients func(n int)

	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// SetMaxRate limits broadcasts to hz frames per second. Frames in between
// are still kept as the latest frame. hz <= 0 removes the limit.
func (h *Hub) SetMaxRate(hz int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if hz <= 0 {
		h.minGap = 0
		return
	}
	h.minGap = time.Second / time.Duration(hz)
}

func NewHub(fps int, log zerolog.Logger) *Hub {
	return &Hub{
		clients:   map[*websocket.Conn]struct{}{},
		startTime: time.Now(),
		fps:       fps,
		log:       log.With().Str("component", "ws").Logger(),
		upgrader:  websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

// Write stores f as the latest frame and broadcasts it to each viewer in
// turn. It runs on the render loop, so every slow viewer can hold a tick for
// up to writeWait before its write fails and it is dropped.
func (h *Hub) Write(f render.Frame) error {
	b, err := json.Marshal(f)
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.last = b
	h.frame = f
	now := time.Now()
	if h.minGap > 0 && now.Sub(h.lastSent) < h.minGap {
		h.mu.Unlock()
		return nil
	}
	h.lastSent = now
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	h.wmu.Lock()
	defer h.wmu.Unlock()
	for _, c := range clients {
		h.send(c, b)
	}
	return nil
}

func (h *Hub) send(c *websocket.Conn, b []byte) {
	_ = c.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
		h.log.Debug().Err(err).Msg("write frame")
		h.drop(c)
	}
}

// Last returns the most recent frame written, if any.
func (h *Hub) Last() (render.Frame, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.frame, h.last != nil
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) add(c *websocket.Conn) []byte {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n, last := len(h.clients), h.last
	h.mu.Unlock()
	h.notify(n)
	return last
}

func (h *Hub) drop(c *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()
	if ok {
		_ = c.Close()
		h.notify(n)
	}
}

func (h *Hub) notify(n int) {
	if h.OnClients != nil {
		h.OnClients(n)
	}
}

// HandleFramesWS upgrades the request and registers the viewer. The latest
// frame is sent straight away so a new tab does not wait a tick.
func (h *Hub) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	if last := h.add(conn); last != nil {
		h.wmu.Lock()
		h.send(conn, last)
		h.wmu.Unlock()
	}

	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

type health struct {
	FrameID   uint64  `json:"frame_id"`
	Tick      uint64  `json:"tick"`
	Scene     string  `json:"scene"`
	UptimeS   float64 `json:"uptime_s"`
	FPS       int     `json:"fps"`
	Clients   int     `json:"clients"`
	Connected bool    `json:"connected"`
	Enabled   bool    `json:"mqtt_enabled"`
}

func (h *Hub) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	resp := health{
		FrameID:   h.frame.ID,
		Tick:      h.frame.Tick,
		Scene:     h.frame.Scene,
		UptimeS:   time.Since(h.startTime).Seconds(),
		FPS:       h.fps,
		Clients:   len(h.clients),
		Connected: h.frame.HUD.Connected,
		Enabled:   h.frame.HUD.Enabled,
	}
	h.mu.RUnlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// Close disconnects every viewer.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = map[*websocket.Conn]struct{}{}
	h.mu.Unlock()
	for c := range clients {
		_ = c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutdown"),
			time.Now().Add(writeWait))
		_ = c.Close()
	}
	h.notify(0)
}
