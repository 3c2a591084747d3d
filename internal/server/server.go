// Package server provides the HTTP front-end of the kiosk: the live stream,
// the identity panel state and the record APIs.
package server

import (
	"embed"
	"encoding/json"
	"io/fs"
	"net/http"
	"time"

	"github.com/ayusman/facekiosk/internal/app"
	"github.com/ayusman/facekiosk/internal/display"
	"github.com/ayusman/facekiosk/internal/people"
	"github.com/ayusman/facekiosk/internal/recognition"
	"github.com/ayusman/facekiosk/internal/server/api"
	"github.com/ayusman/facekiosk/internal/store"
)

//go:embed web
var webFS embed.FS

// Pipeline is the part of the running app the server reports on and controls.
type Pipeline interface {
	Stats() app.Stats
	IsEnabled() bool
	SetEnabled(enabled bool)
}

// Config holds the server configuration. Every component is optional; routes
// for missing components are not registered.
type Config struct {
	Title     string
	StaticDir string
	Board     *display.Board
	Pipeline  Pipeline
	Store     *store.Store
	People    *people.Directory
	Gallery   *recognition.Gallery
}

// Server represents the HTTP server for the kiosk.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Board != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Board))
		s.mux.Handle("/api/events", NewEventsHandler(s.config.Board))
		s.mux.HandleFunc("/api/state", s.handleState)
		s.mux.HandleFunc("/api/avatar", s.handleAvatar)
	}

	if s.config.Pipeline != nil {
		s.mux.HandleFunc("/api/recognition", s.handleRecognition)
	}

	if s.config.Store != nil {
		visits := api.NewVisitHandler(s.config.Store)
		s.mux.Handle("/api/visits", visits)
		s.mux.Handle("/api/visits/", visits)
	}

	if s.config.People != nil {
		peopleHandler := api.NewPeopleHandler(s.config.People)
		s.mux.Handle("/api/people", peopleHandler)
		s.mux.Handle("/api/people/", peopleHandler)
	}

	if s.config.Gallery != nil {
		gallery := api.NewGalleryHandler(s.config.Gallery)
		s.mux.Handle("/api/gallery", gallery)
		s.mux.Handle("/api/gallery/", gallery)
	}

	if s.config.StaticDir != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(s.config.StaticDir)))
		return
	}

	sub, _ := fs.Sub(webFS, "web")
	s.mux.Handle("/", http.FileServer(http.FS(sub)))
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).Round(time.Second).String(),
		"title":  s.config.Title,
	}
	if s.config.Gallery != nil {
		response["gallery_size"] = s.config.Gallery.Len()
	}
	if s.config.Pipeline != nil {
		stats := s.config.Pipeline.Stats()
		response["pipeline"] = stats
		response["dropped_frames"] = stats.Dropped
	}

	writeJSON(w, response)
}

// handleState returns the identity panel as JSON.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.config.Board.Snapshot())
}

// handleAvatar serves the photo shown next to the current identity.
func (s *Server) handleAvatar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	state := s.config.Board.Snapshot()
	if !state.HasAvatar {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, state.Avatar)
}

type recognitionRequest struct {
	Enabled bool `json:"enabled"`
}

// handleRecognition reports (GET) or switches (PUT) analysis.
func (s *Server) handleRecognition(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var req recognitionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		s.config.Pipeline.SetEnabled(req.Enabled)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, recognitionRequest{Enabled: s.config.Pipeline.IsEnabled()})
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}

// HTTPServer returns an http.Server for addr, for callers that need Shutdown.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
