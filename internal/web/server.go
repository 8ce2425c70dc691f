// Package web serves a small HTTP control panel: live telemetry, a virtual control
// surface and config saving.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/guidoenr/spectralmesh/internal/analyzer"
	"github.com/guidoenr/spectralmesh/internal/control"
	"github.com/guidoenr/spectralmesh/internal/params"
)

const telemetryInterval = 500 * time.Millisecond

// Telemetry is the published view of the running instrument.
type Telemetry struct {
	FPS         float64           `json:"fps"`
	Step        int               `json:"step"`
	Recording   bool              `json:"recording"`
	Mesh        string            `json:"mesh"`
	Sensitivity float64           `json:"sensitivity"`
	Dropped     uint64            `json:"dropped"`
	Features    analyzer.Features `json:"features"`
	Snapshot    params.Snapshot   `json:"snapshot"`
}

// AppInterface is what the server needs from the running application.
type AppInterface interface {
	Telemetry() Telemetry
	SaveConfig() (string, error)
}

type Server struct {
	mu        sync.Mutex
	app       AppInterface
	queue     *control.Queue
	log       *log.Logger
	clients   map[*websocketClient]bool
	broadcast chan []byte
	upgrader  websocket.Upgrader
}

type websocketClient struct {
	conn   *websocket.Conn
	send   chan []byte
	server *Server
}

// CCRequest injects one control-change message. Either Bytes or the
// Status/Controller/Value triple is used; Status defaults to channel 1.
type CCRequest struct {
	Status     int   `json:"status,omitempty"`
	Controller int   `json:"controller"`
	Value      int   `json:"value"`
	Bytes      []int `json:"bytes,omitempty"`
}

type ccResponse struct {
	Accepted bool   `json:"accepted"`
	Command  string `json:"command,omitempty"`
}

// NewServer creates a server that pushes decoded commands onto queue.
func NewServer(app AppInterface, queue *control.Queue, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		app:       app,
		queue:     queue,
		log:       logger,
		clients:   make(map[*websocketClient]bool),
		broadcast: make(chan []byte, 256),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Handler returns the routes of the panel.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/cc", s.handleCC)
	mux.HandleFunc("/api/save", s.handleSave)
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

// Start serves on port until ctx is cancelled.
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.log.Printf("[web] panel on http://0.0.0.0%s", srv.Addr)

	go s.broadcastLoop(ctx)
	go s.statusUpdateLoop(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web server: %w", err)
	}
	return nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.app.Telemetry())
}

func (s *Server) handleCC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req CCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	msg, err := req.message()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cmd, ok := control.Decode(msg)
	if !ok {
		// unmapped input is not an error, same as from hardware
		writeJSON(w, http.StatusOK, ccResponse{Accepted: false})
		return
	}
	if !s.queue.Push(cmd) {
		http.Error(w, "command queue full", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, ccResponse{Accepted: true, Command: fmt.Sprintf("%T", cmd)})
}

func (req CCRequest) message() ([]byte, error) {
	if len(req.Bytes) > 0 {
		msg := make([]byte, len(req.Bytes))
		for i, b := range req.Bytes {
			limit := 0x7F
			if i == 0 {
				limit = 0xFF
			}
			if b < 0 || b > limit {
				return nil, fmt.Errorf("byte %d out of range: %d", i, b)
			}
			msg[i] = byte(b)
		}
		return msg, nil
	}
	status := req.Status
	if status == 0 {
		status = control.StatusControlChange
	}
	if status < 0x80 || status > 0xFF {
		return nil, fmt.Errorf("invalid status byte: %d", status)
	}
	if req.Controller < 0 || req.Controller > 127 || req.Value < 0 || req.Value > 127 {
		return nil, fmt.Errorf("controller and value must be within 0-127")
	}
	return []byte{byte(status), byte(req.Controller), byte(req.Value)}, nil
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	path, err := s.app.SaveConfig()
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to save config: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved", "path": path})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Printf("[web] websocket upgrade: %v", err)
		return
	}
	client := &websocketClient{
		conn:   conn,
		send:   make(chan []byte, 16),
		server: s,
	}
	s.mu.Lock()
	s.clients[client] = true
	s.mu.Unlock()

	if data, err := json.Marshal(s.app.Telemetry()); err == nil {
		client.send <- data
	}

	go client.writePump()
	go client.readPump()
}

func (s *Server) broadcastLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case message := <-s.broadcast:
			s.mu.Lock()
			for client := range s.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(s.clients, client)
				}
			}
			s.mu.Unlock()
		}
	}
}

func (s *Server) statusUpdateLoop(ctx context.Context) {
	ticker := time.NewTicker(telemetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		data, err := json.Marshal(s.app.Telemetry())
		if err != nil {
			continue
		}
		select {
		case s.broadcast <- data:
		default:
		}
	}
}

func (c *websocketClient) readPump() {
	defer func() {
		c.server.mu.Lock()
		if c.server.clients[c] {
			delete(c.server.clients, c)
			close(c.send)
		}
		c.server.mu.Unlock()
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *websocketClient) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
