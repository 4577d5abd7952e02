package http

import (
	"context"
	"net/http"
	"time"

	"myeconomy/internal/auth"
	applog "myeconomy/internal/log"
	"myeconomy/internal/middleware/ratelimit"
	"myeconomy/internal/middleware/security"
	"myeconomy/internal/middleware/trace"
	"myeconomy/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options tunes the server's middleware.
type Options struct {
	Logger             *applog.Logger
	AllowedOrigins     []string
	RateLimitPerMinute int
}

// Server wraps http.Server with the API routes and the middleware state
// exposed on /metrics.
type Server struct {
	*http.Server

	expenses *services.ExpenseService
	accounts *services.AccountService
	store    Pinger
	logger   *applog.Logger

	securityDetector *security.Detector
	rateLimiter      *ratelimit.Limiter
	traceMiddleware  *trace.Middleware
	started          time.Time
}

// NewServer builds the router. store is pinged by /readyz.
func NewServer(addr string, expenses *services.ExpenseService, accounts *services.AccountService, store Pinger, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	detector := security.NewDetector()
	s := &Server{
		expenses:         expenses,
		accounts:         accounts,
		store:            store,
		logger:           opts.Logger.WithComponent(applog.ComponentHTTP),
		securityDetector: detector,
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		traceMiddleware:  trace.NewMiddleware(opts.Logger.WithComponent(applog.ComponentTrace), detector.ExtractClientIP),
		started:          time.Now(),
	}

	r := chi.NewRouter()
	r.Use(s.traceMiddleware.Middleware)
	r.Use(applog.Middleware(s.logger))
	r.Use(applog.RequestIDMiddleware(func(r *http.Request) string { return trace.GetRequestID(r.Context()) }))
	r.Use(middleware.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(detector.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", trace.RequestIDHeader},
		ExposedHeaders:   []string{trace.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(s.rateLimiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, please try again later").Write(w)
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", s.handleMetrics)

	r.Route("/api", func(r chi.Router) {
		r.Post("/users/register", s.handleRegister)
		r.Post("/users/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Get("/users/me", s.handleProfile)
			r.Patch("/users/me", s.handleUpdateProfile)
			r.Put("/users/me/password", s.handleChangePassword)
			r.Delete("/users/me", s.handleDeleteAccount)

			r.Post("/expenses", s.handleCreateExpense)
			r.Put("/expenses/{id}", s.handleEditExpense)
			r.Patch("/expenses/{id}", s.handleEditExpense)
			r.Delete("/expenses/{id}", s.handleDeleteExpense)

			r.Post("/limits", s.handleSetLimit)
			r.Delete("/limits/{id}", s.handleDeleteLimit)

			r.Get("/summary/{month}/{year}", s.handleSummary)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("route not found").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").Write(w)
	})

	s.Server = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops background workers and gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.rateLimiter.Stop()
	return s.Server.Shutdown(ctx)
}

// requireAuth resolves the bearer token to a user and stores the email in the context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := auth.BearerToken(r.Header.Get("Authorization"))
		if !ok {
			UnauthorizedError("missing bearer token").Write(w)
			return
		}
		email, err := s.accounts.Authenticate(r.Context(), token)
		if err != nil {
			ErrorFor(r, err).Write(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithEmail(r.Context(), email)))
	})
}

// currentEmail returns the authenticated email. Routes behind requireAuth always have one.
func currentEmail(r *http.Request) string {
	email, _ := auth.EmailFromContext(r.Context())
	return email
}
