package router

import (
	"net/http"
	"time"

	"github.com/rkohli77/canadian-rental-platform/internal/handler"
	"github.com/rkohli77/canadian-rental-platform/pkg/metrics"
	"github.com/rkohli77/canadian-rental-platform/pkg/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Options struct {
	AllowedOrigins []string
	// Redis backs the rate limiter; nil disables rate limiting.
	Redis    redis.UniversalClient
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

func SetupRoutes(r chi.Router, h *handler.RentalHandler, users middleware.UserResolver, opts Options) chi.Router {
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(opts.Logger, opts.Metrics))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	limit := func(n int, window time.Duration, prefix string) func(http.Handler) http.Handler {
		if opts.Redis == nil {
			return func(next http.Handler) http.Handler { return next }
		}
		return middleware.RateLimiter(opts.Redis, n, window, window, prefix)
	}

	r.Get("/healthz", h.Health)
	if opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(limit(100, time.Minute, "global_rental"))

		// ---------------- Public ----------------
		api.Group(func(pub chi.Router) {
			pub.With(limit(5, 30*time.Second, "register")).Post("/register", h.Register)
			pub.With(limit(5, 30*time.Second, "login")).Post("/login", h.Login)
			pub.Post("/check-email", h.CheckEmail)
			pub.Get("/properties/search", h.SearchProperties)
		})

		// ---------------- Authenticated ----------------
		api.Group(func(g chi.Router) {
			g.Use(middleware.RequireAuth(users))
			g.Post("/logout", h.Logout)
			g.Get("/me", h.Me)
			g.Post("/properties", h.CreateProperty)
		})
	})

	return r
}
