// Package api provides the HTTP API server and handlers for the comment
// overlay service.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jonboulle/clockwork"

	"github.com/easycomment/easycomment-server/internal/metrics"
	"github.com/easycomment/easycomment-server/internal/ratelimit"
	"github.com/easycomment/easycomment-server/internal/room"
	"github.com/easycomment/easycomment-server/internal/sse"
	"github.com/easycomment/easycomment-server/internal/store"
	"github.com/easycomment/easycomment-server/internal/ws"
)

// DefaultAllowedOrigins are the browser origins allowed when none are configured.
var DefaultAllowedOrigins = []string{
	"http://localhost:3000",
	"http://127.0.0.1:3000",
	"https://easy-comment.clite.jp",
}

// Options holds the optional collaborators of the server.
type Options struct {
	Clock          clockwork.Clock
	Location       *time.Location
	Metrics        *metrics.Metrics
	CommentLimiter *ratelimit.KeyedRateLimiter
	AllowedOrigins []string
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store          *store.Store
	services       *Services
	rooms          *room.Manager
	metrics        *metrics.Metrics
	commentLimiter *ratelimit.KeyedRateLimiter
	clock          clockwork.Clock
	location       *time.Location
	router         *chi.Mux
	api            huma.API
	logger         *slog.Logger
	allowedOrigins []string
	startedAt      time.Time
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st *store.Store, services *Services, rooms *room.Manager, opts Options, logger *slog.Logger) *Server {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = DefaultAllowedOrigins
	}

	router := chi.NewRouter()

	s := &Server{
		store:          st,
		services:       services,
		rooms:          rooms,
		metrics:        opts.Metrics,
		commentLimiter: opts.CommentLimiter,
		clock:          opts.Clock,
		location:       opts.Location,
		router:         router,
		logger:         logger,
		allowedOrigins: opts.AllowedOrigins,
		startedAt:      opts.Clock.Now(),
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("Easy Comment API", "1.0.0")
	humaConfig.Info.Description = "Live comment overlay server"
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"basic": {
			Type:   "http",
			Scheme: "basic",
		},
	}
	s.api = humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the underlying huma API (used by tests and OpenAPI export).
func (s *Server) API() huma.API {
	return s.api
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

// setupRoutes registers the REST operations and mounts the realtime
// transports and the metrics endpoint on the router.
func (s *Server) setupRoutes() {
	s.registerRootRoutes()
	s.registerHealthRoutes()
	s.registerInstanceRoutes()
	s.registerAdminRoutes()
	s.registerCommentRoutes()
	s.registerSettingsRoutes()
	s.registerWebhookRoutes()
	s.registerExportRoutes()

	if s.services != nil && s.services.Live != nil && s.rooms != nil {
		s.router.Handle("/ws", ws.NewHandler(s.rooms, s.services.Live, s.allowedOrigins, s.clock, s.logger))
		s.router.Get("/stream/{id}/", sse.NewHandler(s.rooms, s.services.Live, room.RoleViewer, s.logger).ServeHTTP)
		s.router.Get("/admin/stream/{id}/", sse.NewHandler(s.rooms, s.services.Live, room.RoleAdmin, s.logger).ServeHTTP)
	}

	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler())
	}
}

// requestLogger logs each request through the server's structured logger.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Debug("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())))
	})
}
