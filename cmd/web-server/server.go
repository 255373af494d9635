package main

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	"github.com/unklstewy/flightmap/internal/db"
	"github.com/unklstewy/flightmap/internal/engine"
	"github.com/unklstewy/flightmap/pkg/config"
	"github.com/unklstewy/flightmap/pkg/playback"
	"github.com/unklstewy/flightmap/pkg/view"
)

// Websocket timings
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Server holds the HTTP router and the render loop it drives
type Server struct {
	router   *chi.Mux
	loop     *engine.Loop
	cfg      *config.Config
	upgrader websocket.Upgrader

	// database is checked by /healthz when the dataset came from it
	database *db.DB
}

// NewServer creates a server around a running loop.
func NewServer(loop *engine.Loop, cfg *config.Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		loop:   loop,
		cfg:    cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	s.setupRoutes()
	return s
}

// SetDatabase makes /healthz report the health of the dataset database.
func (s *Server) SetDatabase(database *db.DB) {
	s.database = database
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	r := s.router

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/config", s.handleGetConfig)
		r.Get("/render", s.handleRender)
		r.Get("/ws", s.handleWebSocket)

		r.Post("/play", s.handlePlay)
		r.Post("/pause", s.handlePause)
		r.Post("/restart", s.handleRestart)
		r.Post("/speed", s.handleSpeed)
		r.Post("/window", s.handleWindow)
		r.Post("/style", s.handleStyle)
		r.Post("/select", s.handleSelect)
		r.Post("/camera", s.handleCamera)
	})
}

// windowRequest is the body of /restart and /window.
type windowRequest struct {
	StartDate string `json:"start_date"`
	StartTime string `json:"start_time"`
	EndDate   string `json:"end_date"`
	EndTime   string `json:"end_time"`
}

func (wr windowRequest) input() playback.WindowInput {
	return playback.WindowInput{
		StartDate: wr.StartDate,
		StartTime: wr.StartTime,
		EndDate:   wr.EndDate,
		EndTime:   wr.EndTime,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if _, ready := s.loop.Latest(); !ready {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "starting"})
		return
	}
	if s.database == nil {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	if !db.HealthCheck(r.Context(), s.database) {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": "unavailable"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "database": "ok"})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"map_styles":        s.cfg.Playback.MapStyles,
		"default_speed":     s.cfg.Playback.DefaultSpeed,
		"default_map_style": s.cfg.Playback.MapStyle,
		"tick_interval_ms":  s.cfg.Playback.TickIntervalMillis,
		"tick_step_seconds": s.cfg.Playback.TickStepSeconds,
	})
}

// handleRender returns the latest payload, rendering one if none exists yet.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	if p, ok := s.loop.Latest(); ok {
		respondJSON(w, http.StatusOK, p)
		return
	}
	s.dispatch(w, r, nil)
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, engine.Play{})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, engine.Pause{})
}

// handleRestart restarts with the posted window. Missing or invalid fields
// fall back to the dataset bounds.
func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	var req windowRequest
	if !decodeOptional(w, r, &req) {
		return
	}
	s.dispatch(w, r, engine.Restart{Window: req.input()})
}

func (s *Server) handleWindow(w http.ResponseWriter, r *http.Request) {
	var req windowRequest
	if !decode(w, r, &req) {
		return
	}
	s.dispatch(w, r, engine.WindowChange{Window: req.input()})
}

// handleSpeed accepts {"value": "2.5"} or {"value": 2.5}.
func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value json.RawMessage `json:"value"`
	}
	if !decode(w, r, &req) {
		return
	}
	text := string(req.Value)
	var str string
	if err := json.Unmarshal(req.Value, &str); err == nil {
		text = str
	}
	s.dispatch(w, r, engine.SpeedChange{Value: text})
}

func (s *Server) handleStyle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Style string `json:"style"`
	}
	if !decode(w, r, &req) {
		return
	}
	if !view.Known(req.Style) {
		log.Printf("Unknown map style %q passed through", req.Style)
	}
	s.dispatch(w, r, engine.StyleChange{Style: req.Style})
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EntityID string `json:"entity_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.dispatch(w, r, engine.Select{EntityID: req.EntityID})
}

// handleCamera stores the client's zoom and center for later cycles.
func (s *Server) handleCamera(w http.ResponseWriter, r *http.Request) {
	var req view.State
	if !decode(w, r, &req) {
		return
	}
	p, err := s.loop.SetCamera(r.Context(), req)
	if err != nil {
		http.Error(w, "Render loop unavailable", http.StatusServiceUnavailable)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// dispatch sends ev through the loop and responds with the payload.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, ev engine.Event) {
	p, err := s.loop.Send(r.Context(), ev)
	if err != nil {
		http.Error(w, "Render loop unavailable", http.StatusServiceUnavailable)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// handleWebSocket pushes every payload to the client until it disconnects.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("✗ WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	payloads, unsubscribe := s.loop.Subscribe()
	defer unsubscribe()

	// The reader only handles control frames and notices the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case p, ok := <-payloads:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(p); err != nil {
				log.Printf("WebSocket write failed: %v", err)
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// decode reads a JSON body into v, responding 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// decodeOptional is decode for endpoints whose body may be empty.
func decodeOptional(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("✗ Failed to encode response: %v", err)
	}
}

// originList formats allowed origins for the startup log.
func originList(origins []string) string {
	if len(origins) == 0 {
		return "(none)"
	}
	return strings.Join(origins, ", ")
}
