package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/notifyhub/event-fanout/internal/api/handler"
	apimw "github.com/notifyhub/event-fanout/internal/api/middleware"
	"github.com/notifyhub/event-fanout/internal/ratelimiter"
	"github.com/notifyhub/event-fanout/internal/service"
)

// NewRouter wires the chi router, attaches all middleware, and registers
// every route. It is the single source of truth for the HTTP surface area.
func NewRouter(
	svc *service.DispatchService,
	limiter *ratelimiter.APILimiter,
	reg prometheus.Gatherer,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- global middleware (applied to every route) ---
	r.Use(chimw.Recoverer)          // recover panics, return 500
	r.Use(chimw.RealIP)             // trust X-Forwarded-For / X-Real-IP
	r.Use(chimw.RequestSize(4 << 20)) // 4 MB max request body; recipient lists can be large
	r.Use(apimw.CorrelationID)      // X-Correlation-ID inject / echo
	r.Use(apimw.RequestLogger(logger))

	// --- handler instances ---
	dh := handler.NewDispatchHandler(svc, logger)
	hh := handler.NewHealthHandler()

	// --- routes ---
	r.Get("/health", hh.Health)

	// Raw Prometheus scrape endpoint (for Prometheus server / Grafana)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		// Only dispatch creation is rate limited; a single request can fan
		// out to thousands of outgoing calls.
		r.With(apimw.RateLimit(limiter)).Post("/dispatches", dh.Create)

		r.Get("/dispatches", dh.List)
		r.Get("/dispatches/{id}", dh.GetByID)
	})

	return r
}
