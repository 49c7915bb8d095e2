package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/terra-clan/skillify/internal/auth"
	"github.com/terra-clan/skillify/internal/config"
	"github.com/terra-clan/skillify/internal/gate"
	"github.com/terra-clan/skillify/internal/planner"
	"github.com/terra-clan/skillify/internal/workspace"
)

// Pinger is a dependency checked by /ready
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP API server
type Server struct {
	config         config.ServerConfig
	router         *chi.Mux
	auth           *auth.Service
	workspaces     *workspace.Manager
	maxUploadBytes int64
	checks         map[string]Pinger
}

// NewServer creates a new API server. checks are pinged by /ready.
func NewServer(
	cfg config.ServerConfig,
	authService *auth.Service,
	workspaces *workspace.Manager,
	maxUploadBytes int64,
	checks map[string]Pinger,
) *Server {
	if maxUploadBytes <= 0 {
		maxUploadBytes = planner.DefaultMaxUploadBytes
	}
	s := &Server{
		config:         cfg,
		auth:           authService,
		workspaces:     workspaces,
		maxUploadBytes: maxUploadBytes,
		checks:         checks,
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	origins := s.config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Location"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	// Live updates. Long-lived, so outside the request timeout.
	r.With(s.requireWorkspace).Get("/events", s.handleEvents)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		// Public screens
		r.Get(gate.PathHome, s.handleHome)
		r.Get(gate.PathAuth, s.handleAuthScreen)

		// Auth API. Registered path by path so /auth stays the screen.
		r.Post("/auth/sign-up", s.handleSignUp)
		r.Post("/auth/sign-in", s.handleSignIn)
		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			r.Get("/auth/session", s.handleGetSession)
			r.Post("/auth/sign-out", s.handleSignOut)
			r.Post("/auth/refresh", s.handleRefresh)
			r.Put("/auth/user", s.handleUpdateUser)
		})

		// Protected screens
		r.Group(func(r chi.Router) {
			r.Use(s.gateMiddleware)

			r.Get(gate.PathDashboard, s.handleDashboard)

			r.Get(gate.PathUploadCV, s.handleUploadScreen)
			r.Post(gate.PathUploadCV, s.handleUploadCV)

			r.Get(gate.PathDreamJob, s.handleDreamJobScreen)
			r.Post(gate.PathDreamJob, s.handleSetDreamJob)

			r.Route(gate.PathRoadmap, func(r chi.Router) {
				r.Get("/", s.handleRoadmap)
				r.Put("/{id}", s.handleSetRoadmapStatus)
			})

			r.Route(gate.PathSchedule, func(r chi.Router) {
				r.Get("/", s.handleSchedule)
				r.Post("/", s.handleAddScheduleItem)
				r.Post("/template", s.handleGenerateSchedule)
				r.Put("/{id}", s.handleUpdateScheduleItem)
				r.Delete("/{id}", s.handleDeleteScheduleItem)
			})

			r.Route(gate.PathChatbot, func(r chi.Router) {
				r.Get("/", s.handleChat)
				r.Post("/messages", s.handleSendMessage)
			})

			r.Route(gate.PathInterview, func(r chi.Router) {
				r.Get("/", s.handleInterview)
				r.Post("/start", s.handleInterviewStart)
				r.Post("/next", s.handleInterviewNext)
				r.Post("/feedback", s.handleInterviewFeedback)
				r.Post("/restart", s.handleInterviewRestart)
				r.Put("/category", s.handleInterviewCategory)
				r.Post("/test/start", s.handleTestStart)
				r.Post("/test/answer", s.handleTestAnswer)
				r.Post("/test/next", s.handleTestNext)
			})
		})
	})

	r.NotFound(s.handleNotFound)

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
