// Package gaze bridges the browser gaze engine to the Go process. The bridge
// serves a companion page that hosts the engine and the framed target page,
// and talks to it over a single websocket.
package gaze

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"github.com/csheth/gazescout/internal/session"
)

//go:embed web/index.html
var webFS embed.FS

const (
	pongWait     = 60 * time.Second
	pingPeriod   = 54 * time.Second
	writeWait    = 10 * time.Second
	sendBuffer   = 256
	maxFrameSize = 64 << 10
)

// ErrNoClient is returned when a message needs a connected page and none is.
var ErrNoClient = errors.New("gaze: no companion page connected")

// Config configures a bridge.
type Config struct {
	Addr string
	// AllowedOrigins lists extra origins allowed to open the websocket and
	// call the HTTP endpoints. Same-host requests are always allowed.
	AllowedOrigins []string
}

// Bridge implements session.GazeSource by remote-controlling the companion
// page. It also implements session.Presenter and heatmap.Publisher.
type Bridge struct {
	cfg      Config
	upgrader websocket.Upgrader
	handler  http.Handler

	mu       sync.Mutex
	client   *client
	ready    bool
	failure  error
	running  bool
	paused   bool
	video    bool
	overlay  bool
	stage    *session.Stage
	listener func(*session.GazePoint)
	onEvent  func(Event)

	listenerNet net.Listener
	server      *http.Server
}

type client struct {
	id        string
	conn      *websocket.Conn
	send      chan []byte
	closed    bool
	closeOnce sync.Once
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		c.closed = true
		close(c.send)
	})
}

// New builds a bridge. Call Listen and Serve to expose it, or mount Handler.
func New(cfg Config) *Bridge {
	b := &Bridge{cfg: cfg}
	b.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     b.originAllowed,
	}

	router := mux.NewRouter()
	router.HandleFunc("/", b.serveIndex).Methods(http.MethodGet)
	router.HandleFunc("/ws", b.serveWebSocket).Methods(http.MethodGet)
	router.HandleFunc("/healthz", b.serveHealth).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	b.handler = c.Handler(router)
	b.server = &http.Server{
		Handler:           b.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return b
}

// Handler exposes the routes, for mounting under another server or httptest.
func (b *Bridge) Handler() http.Handler { return b.handler }

// OnEvent registers the callback for page events. It runs on the connection's
// read goroutine and must not block.
func (b *Bridge) OnEvent(fn func(Event)) {
	b.mu.Lock()
	b.onEvent = fn
	b.mu.Unlock()
}

// Listen binds the configured address so Addr is known before Serve runs.
func (b *Bridge) Listen() error {
	ln, err := net.Listen("tcp", b.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", b.cfg.Addr, err)
	}
	b.listenerNet = ln
	return nil
}

// Addr is the bound address, or the configured one before Listen.
func (b *Bridge) Addr() string {
	if b.listenerNet != nil {
		return b.listenerNet.Addr().String()
	}
	return b.cfg.Addr
}

// URL is the companion page address the user opens in a browser.
func (b *Bridge) URL() string {
	return "http://" + b.Addr() + "/"
}

// Serve blocks until Shutdown. It returns nil after a clean shutdown.
func (b *Bridge) Serve() error {
	if b.listenerNet == nil {
		if err := b.Listen(); err != nil {
			return err
		}
	}
	log.Printf("[bridge] serving companion page on %s", b.URL())
	if err := b.server.Serve(b.listenerNet); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve bridge: %w", err)
	}
	return nil
}

// Shutdown disconnects the page and stops the HTTP server.
func (b *Bridge) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	if b.client != nil {
		b.client.close()
		b.client = nil
	}
	b.ready = false
	b.mu.Unlock()
	err := b.server.Shutdown(ctx)
	if b.listenerNet != nil {
		// Serve may never have run; closing twice is harmless.
		_ = b.listenerNet.Close()
	}
	return err
}

func (b *Bridge) originAllowed(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range b.cfg.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(parsed.Host, r.Host)
}

func (b *Bridge) serveIndex(w http.ResponseWriter, r *http.Request) {
	page, err := webFS.ReadFile("web/index.html")
	if err != nil {
		http.Error(w, "companion page missing", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(page)
}

func (b *Bridge) serveHealth(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	status := struct {
		Status    string `json:"status"`
		Connected bool   `json:"connected"`
		Ready     bool   `json:"ready"`
	}{Status: "ok", Connected: b.client != nil, Ready: b.ready}
	b.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(status)
}

func (b *Bridge) serveWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[bridge] websocket upgrade error: %v", err)
		return
	}
	c := &client{id: uuid.NewString(), conn: conn, send: make(chan []byte, sendBuffer)}

	b.mu.Lock()
	if previous := b.client; previous != nil {
		log.Printf("[bridge] client %s replaced by %s", previous.id, c.id)
		previous.close()
	}
	b.client = c
	b.ready = false
	b.failure = nil
	b.replayLocked(c)
	b.mu.Unlock()

	log.Printf("[bridge] client %s connected from %s", c.id, r.RemoteAddr)
	b.emit(Event{Kind: EventConnected, ClientID: c.id})

	go b.writePump(c)
	go b.readPump(c)
}

// replayLocked brings a freshly connected page up to the engine state the
// session expects, so reloading the page does not lose the session. A paused
// engine is not restarted on the new page; the next Start begins it afresh.
func (b *Bridge) replayLocked(c *client) {
	if b.stage != nil {
		b.enqueueLocked(c, CmdStage, b.stage)
	}
	if b.running && b.paused {
		b.running = false
		b.paused = false
	}
	if !b.running {
		return
	}
	b.enqueueLocked(c, CmdStart, nil)
	b.enqueueLocked(c, CmdVideoPreview, togglePayload{Enabled: b.video})
	b.enqueueLocked(c, CmdPredictionOverlay, togglePayload{Enabled: b.overlay})
}

func (b *Bridge) readPump(c *client) {
	defer func() {
		b.mu.Lock()
		current := b.client == c
		if current {
			b.client = nil
			b.ready = false
		}
		c.close()
		b.mu.Unlock()
		c.conn.Close()
		if current {
			log.Printf("[bridge] client %s disconnected", c.id)
			b.emit(Event{Kind: EventDisconnected, ClientID: c.id})
		}
	}()

	c.conn.SetReadLimit(maxFrameSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[bridge] websocket error: %v", err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		var msg Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			log.Printf("[bridge] dropping malformed message: %v", err)
			continue
		}
		b.handle(c, msg)
	}
}

func (b *Bridge) handle(c *client, msg Message) {
	b.mu.Lock()
	current := b.client == c
	b.mu.Unlock()
	if !current {
		return
	}

	switch msg.Type {
	case EvtReady:
		b.mu.Lock()
		b.ready = true
		b.failure = nil
		b.mu.Unlock()
		b.emit(Event{Kind: EventReady, ClientID: c.id})

	case EvtCameraError:
		var payload cameraErrorPayload
		_ = json.Unmarshal(msg.Data, &payload)
		cause := strings.TrimSpace(payload.Name + " " + payload.Message)
		if cause == "" {
			cause = "camera unavailable"
		}
		err := errors.New(cause)
		b.mu.Lock()
		b.ready = false
		b.failure = err
		b.mu.Unlock()
		log.Printf("[bridge] camera error from %s: %s", c.id, cause)
		b.emit(Event{Kind: EventCameraError, ClientID: c.id, Err: err})

	case EvtGaze:
		var point *session.GazePoint
		if len(msg.Data) > 0 && string(msg.Data) != "null" {
			point = &session.GazePoint{}
			if err := json.Unmarshal(msg.Data, point); err != nil {
				return
			}
		}
		b.mu.Lock()
		listener := b.listener
		b.mu.Unlock()
		if listener != nil {
			listener(point)
		}

	case EvtViewport:
		var vp session.Viewport
		if err := json.Unmarshal(msg.Data, &vp); err != nil {
			return
		}
		b.emit(Event{Kind: EventViewport, ClientID: c.id, Width: vp.Width, Height: vp.Height})

	case EvtCalibrationClick:
		b.emit(Event{Kind: EventCalibrationClick, ClientID: c.id})

	case EvtFrameBlocked:
		var payload frameBlockedPayload
		_ = json.Unmarshal(msg.Data, &payload)
		b.emit(Event{Kind: EventFrameBlocked, ClientID: c.id, URL: payload.URL})

	default:
		log.Printf("[bridge] unknown message type %q from %s", msg.Type, c.id)
	}
}

func (b *Bridge) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (b *Bridge) emit(ev Event) {
	b.mu.Lock()
	fn := b.onEvent
	b.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

func (b *Bridge) enqueueLocked(c *client, kind string, data any) bool {
	if c == nil || c.closed {
		return false
	}
	payload, err := json.Marshal(outbound{Type: kind, Data: data, Timestamp: time.Now()})
	if err != nil {
		log.Printf("[bridge] marshal %s: %v", kind, err)
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		log.Printf("[bridge] send buffer full, dropping %s for %s", kind, c.id)
		return false
	}
}

func (b *Bridge) command(kind string, data any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enqueueLocked(b.client, kind, data)
}

// Publish sends an arbitrary typed message to the connected page.
func (b *Bridge) Publish(kind string, payload any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.client == nil {
		return ErrNoClient
	}
	if !b.enqueueLocked(b.client, kind, payload) {
		return fmt.Errorf("gaze: could not queue %s", kind)
	}
	return nil
}

// Present remembers the stage and forwards it to the page.
func (b *Bridge) Present(stage session.Stage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stage = &stage
	b.enqueueLocked(b.client, CmdStage, stage)
}

func (b *Bridge) SetListener(fn func(*session.GazePoint)) {
	b.mu.Lock()
	b.listener = fn
	b.mu.Unlock()
}

// Start asks the page to begin the engine; readiness is reported back with a
// ready or camera_error event. A paused engine is resumed instead.
func (b *Bridge) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running && b.paused {
		b.paused = false
		b.enqueueLocked(b.client, CmdResume, nil)
		return
	}
	b.running = true
	b.paused = false
	b.ready = false
	b.failure = nil
	b.enqueueLocked(b.client, CmdStart, nil)
}

func (b *Bridge) Pause() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.paused = true
	b.enqueueLocked(b.client, CmdPause, nil)
}

// Stop ends the engine and releases the camera.
func (b *Bridge) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.running = false
	b.paused = false
	b.ready = false
	b.video = false
	b.overlay = false
	b.listener = nil
	b.enqueueLocked(b.client, CmdStop, nil)
}

func (b *Bridge) ShowVideoPreview(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.video = on
	b.enqueueLocked(b.client, CmdVideoPreview, togglePayload{Enabled: on})
}

func (b *Bridge) ShowPredictionOverlay(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.overlay = on
	b.enqueueLocked(b.client, CmdPredictionOverlay, togglePayload{Enabled: on})
}

func (b *Bridge) RecordCalibrationSample(x, y int, kind string) {
	b.command(CmdCalibrationSample, calibrationPayload{X: x, Y: y, Kind: kind})
}

// IsReady reports whether the connected page has a running engine.
func (b *Bridge) IsReady() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ready && b.client != nil
}

// Failure is the last camera error reported since Start.
func (b *Bridge) Failure() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failure
}

// Connected reports whether a companion page is attached.
func (b *Bridge) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.client != nil
}
