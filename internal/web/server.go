package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/saltyorg/projectdb/internal/config"
	"github.com/saltyorg/projectdb/internal/web/handlers"
	"github.com/saltyorg/projectdb/internal/web/middleware"
)

// Server represents the web server
type Server struct {
	port     int
	bind     string
	timeouts config.ServerTimeouts
	router   *chi.Mux
	handlers *handlers.Handlers
}

// NewServer creates a new web server
func NewServer(db handlers.Store, port int, bind string, timeouts config.ServerTimeouts) *Server {
	s := &Server{
		port:     port,
		bind:     bind,
		timeouts: timeouts.WithDefaults(),
		router:   chi.NewRouter(),
		handlers: handlers.New(db),
	}

	s.setupRoutes()
	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	r := s.router
	h := s.handlers

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(s.timeouts.Request))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(chimiddleware.AllowContentType("application/json"))

		r.Post("/users", h.Register)
		r.Post("/login", h.Login)

		r.Get("/statuses", h.ListStatuses)

		r.Route("/skills", func(r chi.Router) {
			r.Get("/", h.ListSkills)
			r.Post("/", h.CreateSkill)
		})

		r.Route("/users/{userID}/projects", func(r chi.Router) {
			r.Get("/", h.ListProjects)
			r.Post("/", h.CreateProject)
			r.Get("/by-name/{name}", h.GetProject)
			r.Patch("/by-name/{name}", h.UpdateProject)
			r.Delete("/{projectID}", h.DeleteProject)
		})

		r.Route("/projects/{projectID}/skills", func(r chi.Router) {
			r.Get("/", h.ListProjectSkills)
			r.Post("/{skillID}", h.AddProjectSkill)
			r.Delete("/{skillID}", h.RemoveProjectSkill)
		})
	})
}

// Start serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	var addr string
	if s.bind != "" {
		addr = fmt.Sprintf("%s:%d", s.bind, s.port)
	} else {
		addr = fmt.Sprintf(":%d", s.port)
	}

	server := &http.Server{
		Addr:        addr,
		Handler:     s.router,
		ReadTimeout: s.timeouts.Read,
		IdleTimeout: s.timeouts.Idle,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}
