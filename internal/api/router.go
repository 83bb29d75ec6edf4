package api

import (
	"delivery-eta-service/internal/api/dto"
	"delivery-eta-service/internal/api/handlers"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type RouterOptions struct {
	Snapshots   handlers.SnapshotProvider
	Invalidator handlers.SnapshotInvalidator
	Logger      *zap.Logger
	// Clock override for tests; time.Now when nil.
	Now             func() time.Time
	StorefrontRPS   float64
	StorefrontBurst int
	AllowedOrigins  []string
	CartConcurrency int
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	etaHandler := &handlers.ETAHandler{
		Snapshots:       opts.Snapshots,
		Invalidator:     opts.Invalidator,
		Now:             opts.Now,
		CartConcurrency: opts.CartConcurrency,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(middleware.Recoverer)

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteError(w, r, http.StatusMethodNotAllowed, dto.ErrCodeMethod, "method not allowed")
	})

	r.Get("/health", handlers.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/admin/shops/{shop}", func(ar chi.Router) {
		ar.Post("/eta", etaHandler.AdminCalculate)
		ar.Post("/cache/invalidate", etaHandler.InvalidateCache)
	})

	// Storefront endpoints are called cross-origin from the shop's pages.
	r.Route("/storefront/shops/{shop}", func(sr chi.Router) {
		sr.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
			ExposedHeaders: []string{requestIDHeader, "Retry-After"},
			MaxAge:         300,
		}))
		sr.Use(middleware.RealIP)
		sr.Use(rateLimitMiddleware(newLimiterStore(opts.StorefrontRPS, opts.StorefrontBurst)))

		sr.Post("/eta", etaHandler.ProductETA)
		sr.Post("/cart", etaHandler.Cart)
		sr.Post("/checkout", etaHandler.Checkout)
	})

	return r
}
