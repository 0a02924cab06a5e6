// Package server exposes layouts and live animation sessions over HTTP.
//
// A browser host creates a session, posts command requests to it and polls
// frames, or fetches static layouts of known routes. Sessions live in memory
// only and are reaped after a period of inactivity.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/packetflow/pkg/anim"
	"github.com/matzehuels/packetflow/pkg/pipeline"
)

// Defaults for new sessions.
const (
	DefaultWidth       = 800.0
	DefaultHeight      = 400.0
	DefaultSessionIdle = 30 * time.Minute
	maxBodyBytes       = 1 << 20
	shutdownTimeout    = 5 * time.Second
)

// Config configures a Server.
type Config struct {
	Width, Height float64
	DPR           float64
	FPS           int
	Policy        anim.PendingPolicy
	SessionIdle   time.Duration
}

func (c *Config) setDefaults() {
	if c.Width <= 0 {
		c.Width = DefaultWidth
	}
	if c.Height <= 0 {
		c.Height = DefaultHeight
	}
	if c.DPR < 1 {
		c.DPR = 1
	}
	if c.FPS <= 0 {
		c.FPS = anim.DefaultFPS
	}
	if c.SessionIdle <= 0 {
		c.SessionIdle = DefaultSessionIdle
	}
}

// Server serves the packetflow HTTP API.
type Server struct {
	cfg      Config
	runner   *pipeline.Runner
	sessions *registry
	logger   *log.Logger
	router   chi.Router
}

// New creates a server. Layouts and route lookups go through runner.
// If logger is nil, log.Default() is used.
func New(runner *pipeline.Runner, cfg Config, logger *log.Logger) *Server {
	cfg.setDefaults()
	if logger == nil {
		logger = log.Default()
	}
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, nil, logger)
	}
	s := &Server{
		cfg:      cfg,
		runner:   runner,
		sessions: newRegistry(logger),
		logger:   logger,
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/routes", s.handleListRoutes)
		r.Get("/routes/{dest}", s.handleGetRoute)
		r.Get("/routes/{dest}/layout", s.handleLayout)
		r.Get("/layout", s.handleLayout)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Get("/", s.handleListSessions)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDeleteSession)
				r.Post("/requests", s.handleRequest)
				r.Post("/replay", s.handleReplay)
				r.Post("/clear", s.handleClear)
				r.Post("/resize", s.handleResize)
				r.Get("/frame", s.handleFrame)
			})
		})
	})
	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully and
// stops every session.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	reapCtx, stopReaper := context.WithCancel(ctx)
	defer stopReaper()
	go s.sessions.reapEvery(reapCtx, s.cfg.SessionIdle/2, s.cfg.SessionIdle)

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		s.sessions.closeAll()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.sessions.closeAll()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

// Close stops every session.
func (s *Server) Close() {
	s.sessions.closeAll()
}
