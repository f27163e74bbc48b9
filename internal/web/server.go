package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vbonduro/explainui/internal/service"
)

type Options struct {
	// MaxImageBytes caps an image upload.
	MaxImageBytes int64
	// SiteDir, when set, is served under /site/.
	SiteDir string
}

type Server struct {
	service *service.SessionService
	opts    Options
	router  chi.Router
	logger  *slog.Logger
}

func NewServer(svc *service.SessionService, opts Options, logger *slog.Logger) *Server {
	if opts.MaxImageBytes <= 0 {
		opts.MaxImageBytes = defaultMaxImageBytes
	}
	s := &Server{
		service: svc,
		opts:    opts,
		router:  chi.NewRouter(),
		logger:  logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(func(next http.Handler) http.Handler { return requestLogger(s.logger, next) })
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog", s.handleCatalog)

		r.Get("/session", s.handleGetSession)
		r.Delete("/session", s.handleClearSession)

		r.Post("/image", s.handleUploadImage)
		r.Get("/image", s.handleGetImage)

		r.Post("/events", s.handleEvent)

		r.Route("/pins/{id}", func(r chi.Router) {
			r.Patch("/", s.handleUpdatePin)
			r.Delete("/", s.handleDeletePin)
			r.Post("/draft", s.handleDraftNote)
		})

		r.Put("/selection", s.handleSelectPin)
		r.Patch("/selection", s.handleUpdateSelectedPin)
		r.Put("/active", s.handleSetActive)
		r.Post("/view/reset", s.handleResetView)

		r.Get("/export", s.handleExport)
		r.Post("/import", s.handleImport)
	})

	if s.opts.SiteDir != "" {
		r.Handle("/site/*", http.StripPrefix("/site/", http.FileServer(http.Dir(s.opts.SiteDir))))
	}
}

// securityHeaders adds defensive HTTP response headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy",
			"default-src 'self'; "+
				"style-src 'self' 'unsafe-inline'; "+
				"img-src 'self' data: blob:; "+
				"connect-src 'self'")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns an http.Server for addr. Callers own its lifecycle.
func (s *Server) Handler(addr string) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("starting server", "addr", addr)
	return s.Handler(addr).ListenAndServe()
}
