package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	diag "github.com/promisedneverland/neopixel/internal/diagnostics"
	"github.com/promisedneverland/neopixel/internal/driver"
	"github.com/promisedneverland/neopixel/internal/pixel"
)

const writeDeadline = 200 * time.Millisecond

// Hooks are dependency-injected callbacks into the daemon's control loop.
type Hooks struct {
	SetColor      func(r, g, b uint8)
	SetBrightness func(level uint8)
	StartCycle    func(wait time.Duration)
	StopCycle     func()
}

// State owns the websocket clients and translates control messages into
// hook calls. Frames reach clients through the Tap driver middleware.
type State struct {
	mu          sync.RWMutex
	px          *pixel.Pixel
	hooks       Hooks
	frameID     uint64
	startTime   time.Time
	clients     map[*websocket.Conn]bool
	diagClients map[*websocket.Conn]bool
}

func NewState() *State {
	return &State{
		startTime:   time.Now(),
		clients:     map[*websocket.Conn]bool{},
		diagClients: map[*websocket.Conn]bool{},
	}
}

// Bind attaches the pixel and control hooks once the daemon has built them.
func (s *State) Bind(px *pixel.Pixel, hooks Hooks) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.px = px
	s.hooks = hooks
}

// Routes registers all handlers on mux.
func (s *State) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/frames", s.HandleFramesWS)
	mux.HandleFunc("/ws/control", s.HandleControlWS)
	mux.HandleFunc("/ws/diag", s.HandleDiagWS)
	mux.HandleFunc("/health", s.HandleHealth)
}

// Tap wraps inner so every written frame is also broadcast to clients.
func (s *State) Tap(inner driver.Driver) driver.Driver {
	return &tap{s: s, inner: inner}
}

type tap struct {
	s     *State
	inner driver.Driver
}

func (t *tap) Write(rgb []byte) error {
	if err := t.inner.Write(rgb); err != nil {
		return err
	}
	t.s.broadcastFrame(rgb)
	return nil
}

func (t *tap) Close() error { return t.inner.Close() }

func (s *State) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	// Status goes out before the conn is registered: once registered the
	// broadcaster may write to it, and gorilla conns take one writer at a
	// time.
	s.sendStatus(conn)
	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.clients, conn)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *State) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.diagClients[conn] = true
	s.mu.Unlock()
	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.diagClients, conn)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *State) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg map[string]any
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		s.ApplyControl(msg)
		s.sendStatus(conn)
	}
}

func (s *State) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	frameID := s.frameID
	start := s.startTime
	px := s.px
	s.mu.RUnlock()

	// Pixel getters take the pixel lock, and writers arrive in tap.Write
	// already holding it; querying the pixel only after releasing s.mu
	// keeps the two locks ordered one way.
	resp := map[string]any{
		"frame_id": frameID,
		"uptime_s": time.Since(start).Seconds(),
	}
	if px != nil {
		r8, g8, b8 := px.Color()
		resp["count"] = px.Count()
		resp["brightness"] = px.Brightness()
		resp["color"] = []uint8{r8, g8, b8}
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// ApplyControl dispatches one decoded control message. Recognized keys:
// "color" ([r,g,b]), "brightness" (0-255), "cycle" (bool), "wait_ms" (int).
func (s *State) ApplyControl(msg map[string]any) {
	s.mu.RLock()
	hooks := s.hooks
	s.mu.RUnlock()

	wait := time.Duration(0)
	if v, ok := msg["wait_ms"].(float64); ok && v > 0 {
		wait = time.Duration(v) * time.Millisecond
	}
	for k := range msg {
		switch k {
		case "color", "brightness", "cycle", "wait_ms":
		default:
			s.pushDiag(diag.Diagnostic{
				Severity: diag.Warn, Code: "CTRL.UNKNOWN", Summary: "Unknown control key",
				Evidence: map[string]any{"key": k},
			})
		}
	}
	if v, ok := msg["color"].([]any); ok && len(v) == 3 && hooks.SetColor != nil {
		var ch [3]uint8
		for i := 0; i < 3; i++ {
			if f, ok2 := v[i].(float64); ok2 {
				ch[i] = uint8(clamp(f, 0, 255))
			}
		}
		if hooks.StopCycle != nil {
			hooks.StopCycle()
		}
		hooks.SetColor(ch[0], ch[1], ch[2])
	}
	if v, ok := msg["brightness"].(float64); ok && hooks.SetBrightness != nil {
		hooks.SetBrightness(uint8(clamp(v, 0, 255)))
	}
	if v, ok := msg["cycle"].(bool); ok {
		if v && hooks.StartCycle != nil {
			hooks.StartCycle(wait)
		} else if !v && hooks.StopCycle != nil {
			hooks.StopCycle()
		}
	}
}

func (s *State) sendStatus(conn *websocket.Conn) {
	s.mu.RLock()
	frameID := s.frameID
	px := s.px
	s.mu.RUnlock()

	status := map[string]any{"frame_id": frameID}
	if px != nil {
		r8, g8, b8 := px.Color()
		status["count"] = px.Count()
		status["brightness"] = px.Brightness()
		status["color"] = []uint8{r8, g8, b8}
	}
	b, _ := json.Marshal(status)
	_ = conn.WriteMessage(websocket.TextMessage, b)
}

// broadcastFrame holds the write lock for the whole fan-out so only one
// goroutine ever writes to a frames conn at a time.
func (s *State) broadcastFrame(rgb []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frameID++
	id := s.frameID
	if len(s.clients) == 0 {
		return
	}
	type frame struct {
		T       int64  `json:"t"`
		FrameID uint64 `json:"frame_id"`
		RGB     []byte `json:"rgb"`
	}
	b, _ := json.Marshal(frame{T: time.Now().UnixNano(), FrameID: id, RGB: rgb})
	for c := range s.clients {
		c.SetWriteDeadline(time.Now().Add(writeDeadline))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Debug().Err(err).Msg("write frame")
		}
	}
}

func (s *State) pushDiag(d diag.Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, _ := json.Marshal(d)
	for c := range s.diagClients {
		c.SetWriteDeadline(time.Now().Add(writeDeadline))
		_ = c.WriteMessage(websocket.TextMessage, b)
	}
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
