// Package api provides the HTTP server for viewerscope.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"golang.org/x/net/netutil"

	"github.com/quantumlife/viewerscope/internal/geo"
	"github.com/quantumlife/viewerscope/internal/logging"
	"github.com/quantumlife/viewerscope/internal/presence"
)

// Server is the HTTP server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server

	// Components
	presence *presence.Service
	resolver geo.Resolver
	upgrader *websocket.Upgrader

	addr           string
	staticDir      string
	maxConnections int
	startedAt      time.Time
	log            *logging.Logger
}

// Config for the server
type Config struct {
	Host           string
	Port           int
	StaticDir      string
	MaxConnections int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	Presence       *presence.Service
	Resolver       geo.Resolver
}

// New creates a new server
func New(cfg Config) *Server {
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 15 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 15 * time.Second
	}

	s := &Server{
		presence:       cfg.Presence,
		resolver:       cfg.Resolver,
		upgrader:       presence.NewUpgrader(),
		addr:           fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		staticDir:      cfg.StaticDir,
		maxConnections: cfg.MaxConnections,
		startedAt:      time.Now(),
		log:            logging.WithField("component", "api"),
	}

	s.setupRouter()

	s.httpServer = &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// WebSocket stays outside the timeout group; it lives as long as the viewer.
	r.Get("/ws", s.handleWebSocket)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		r.Get("/health", s.handleHealth)

		r.Route("/api", func(r chi.Router) {
			r.Get("/visitors", s.handleVisitors)
			r.Post("/analyze", s.handleAnalyze)
		})

		if s.staticDir != "" {
			if info, err := os.Stat(s.staticDir); err == nil && info.IsDir() {
				fileServer := http.FileServer(http.Dir(s.staticDir))
				r.Handle("/*", fileServer)
			} else {
				s.log.Warn("static directory %s not usable, static serving disabled", s.staticDir)
			}
		}
	})

	s.router = r
}

// Handler returns the router, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the configured listen address
func (s *Server) Addr() string {
	return s.addr
}

// Start listens and serves until Stop is called. The listener is capped at
// MaxConnections when that is positive.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln
func (s *Server) Serve(ln net.Listener) error {
	if s.maxConnections > 0 {
		ln = netutil.LimitListener(ln, s.maxConnections)
	}

	s.log.Info("server listening on http://%s", ln.Addr())
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// --- Response helpers ---

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
