// Package api serves an optional HTTP view of the window manager: state
// snapshots, a websocket focus stream and an action endpoint that speaks the
// control socket grammar.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/bryanchriswhite/focuswm/internal/control"
	"github.com/bryanchriswhite/focuswm/internal/logger"
	"github.com/bryanchriswhite/focuswm/internal/wm"
)

// Version is reported by the health endpoint.
var Version = "dev"

// Server represents the HTTP API server
type Server struct {
	router   *mux.Router
	hub      *wm.Hub
	queue    *control.Queue
	upgrader websocket.Upgrader
	http     *http.Server
	log      *zerolog.Logger
}

// NewServer creates a new API server. Snapshots come from hub; accepted
// actions are pushed onto queue.
func NewServer(hub *wm.Hub, queue *control.Queue) *Server {
	s := &Server{
		router: mux.NewRouter(),
		hub:    hub,
		queue:  queue,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		log: logger.WithComponent("api"),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Window state
	api.HandleFunc("/windows", s.handleGetWindows).Methods("GET")
	api.HandleFunc("/window/focused", s.handleGetFocused).Methods("GET")
	api.HandleFunc("/window/stream", s.handleWindowStream)

	// Control
	api.HandleFunc("/actions", s.handlePostAction).Methods("POST")
}

// Handler returns the routed handler with CORS applied.
func (s *Server) Handler() http.Handler {
	return s.enableCORS(s.router)
}

// Start serves on port until Shutdown is called.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.log.Info().Str("addr", addr).Msg("Starting API server")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// Shutdown stops a server started with Start.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Debug().Err(err).Msg("Failed to write response")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": Version,
	})
}

func (s *Server) handleGetWindows(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.hub.Latest())
}

func (s *Server) handleGetFocused(w http.ResponseWriter, r *http.Request) {
	focused := s.hub.Latest().Focused
	if focused == wm.None {
		http.Error(w, "No window focused", http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"window": focused,
		"id":     focused.String(),
	})
}

type actionRequest struct {
	Command string `json:"command"`
}

func (s *Server) handlePostAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	a := control.ParseLine(req.Command)
	if a == nil {
		http.Error(w, fmt.Sprintf("unknown command %q", req.Command), http.StatusBadRequest)
		return
	}

	s.queue.Push(a)
	s.log.Debug().Stringer("action", a).Msg("Action queued")
	s.writeJSON(w, http.StatusAccepted, map[string]string{
		"status": "queued",
		"action": a.String(),
	})
}

func (s *Server) handleWindowStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	updates := s.hub.Subscribe()
	defer s.hub.Unsubscribe(updates)

	// The peer never sends anything; reading only notices the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := conn.WriteJSON(s.hub.Latest()); err != nil {
		s.log.Debug().Err(err).Msg("WebSocket write failed")
		return
	}

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(snap); err != nil {
				s.log.Debug().Err(err).Msg("WebSocket write failed")
				return
			}
		}
	}
}
