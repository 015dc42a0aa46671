package internal

import (
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"huddle/internal/storage"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// all origins are allowed in development; tighten this if the server
		// is exposed publicly.
		return true
	},
}

// Server owns the hub, the registry, and the upload gateway, and exposes the
// HTTP handlers the app package wires into a mux.
type Server struct {
	hub      *Hub
	registry *Registry
	uploads  *UploadHandler
	store    *storage.Store
	metrics  *Metrics
}

// NewServer wires the coordination core together: the hub consumes the
// registry's roster notifications, and the upload gateway shares nothing
// with either beyond the path strings it hands back.
func NewServer(store *storage.Store, uploadDir string, maxUploadBytes int64) *Server {
	hub := NewHub()
	metrics := NewMetrics()
	return &Server{
		hub:      hub,
		registry: NewRegistry(hub),
		uploads:  NewUploadHandler(uploadDir, maxUploadBytes, store, metrics),
		store:    store,
		metrics:  metrics,
	}
}

// Hub exposes the fanout loop so the app package can start it.
func (s *Server) Hub() *Hub { return s.hub }

// Registry exposes the presence registry, mainly for tests and probes.
func (s *Server) Registry() *Registry { return s.registry }

// Uploads exposes the upload gateway handler.
func (s *Server) Uploads() *UploadHandler { return s.uploads }

// ServeWS upgrades the request and starts the session pumps. The connection
// id is assigned here; the client learns the roster keyed by those ids once
// it joins.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("upgrade error: %v", err)
		return
	}
	sess := newSession(uuid.NewString(), conn, s.hub, s.registry, s.metrics)
	s.hub.register <- sess
	s.metrics.IncConn()

	go sess.writePump()
	go sess.readPump()
}

// HandleAssets lists the upload index as json, newest first.
func (s *Server) HandleAssets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	assets, err := s.store.ListAssets(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"assets": assets})
}

// HandleHealthz is a liveness probe.
func (s *Server) HandleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// MetricsHandler returns the json counters endpoint.
func (s *Server) MetricsHandler() http.Handler {
	return s.metrics
}
