// Package web provides the HTTP server: HTML pages for the browser UI and a
// JSON API over the same service.
package web

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/fileconverter/internal/config"
	"github.com/JonMunkholm/fileconverter/internal/core"
	"github.com/JonMunkholm/fileconverter/internal/metrics"
	"github.com/JonMunkholm/fileconverter/internal/web/middleware"
)

//go:embed static
var staticFiles embed.FS

// Server is the HTTP server for the converter.
type Server struct {
	service *core.Service
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a Server with middleware and routes configured.
func NewServer(service *core.Service, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	s.server = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(middleware.SecurityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(s.cfg.RateLimit.RequestsPerMinute, s.rejectRateLimited)
		s.router.Use(limiter.Handler)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic("web: static files not embedded: " + err.Error())
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	s.router.Get("/healthz", s.handleHealth)
	if s.cfg.MetricsEnabled {
		s.router.Handle("/metrics", metrics.Handler())
	}

	// Everything below is scoped to the browser session.
	s.router.Group(func(r chi.Router) {
		r.Use(middleware.Session(s.cfg.Session.CookieName, s.cfg.Session.CookieSecure))

		uploads := s.uploadLimiter()

		// Pages
		r.Get("/", s.handleIndex)
		r.With(uploads).Post("/upload", s.handleUploadPage)
		r.Get("/files/{id}", s.handleFilePage)
		r.Get("/files/{id}/download", s.handleDownload)
		r.Post("/files/{id}/delete", s.handleDeletePage)

		// JSON API
		r.Route("/api", func(r chi.Router) {
			r.With(uploads).Post("/files", s.handleAPIUpload)
			r.Get("/files", s.handleAPIListFiles)
			r.Get("/files/{id}", s.handleAPIGetFile)
			r.Delete("/files/{id}", s.handleAPIDeleteFile)
			r.Get("/files/{id}/preview", s.handleAPIPreview)
			r.Get("/files/{id}/download", s.handleDownload)
			r.Get("/history", s.handleAPIHistory)
			r.Get("/status", s.handleAPIStatus)
		})
	})

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.respondStatus(w, r, http.StatusNotFound, pageNotFound)
	})
}

// uploadLimiter applies the stricter per-IP limit to upload endpoints.
func (s *Server) uploadLimiter() func(http.Handler) http.Handler {
	if !s.cfg.RateLimit.Enabled {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.NewRateLimiter(s.cfg.RateLimit.UploadLimit, s.rejectRateLimited).Handler
}

// Start begins listening for HTTP requests. It returns nil after a
// graceful Shutdown.
func (s *Server) Start() error {
	slog.Info("starting server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
