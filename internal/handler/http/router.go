package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Leonardo-Silva-Nascimento/Catalog-api/internal/service"
	"github.com/Leonardo-Silva-Nascimento/Catalog-api/pkg/health"
	"github.com/Leonardo-Silva-Nascimento/Catalog-api/pkg/middleware"
)

const serviceName = "catalog-api"

// RouterConfig holds optional router settings.
type RouterConfig struct {
	// PprofAllowedCIDRs restricts /debug/pprof access. Empty disables pprof.
	PprofAllowedCIDRs []string
}

// NewRouter creates a chi router with all catalog routes registered.
func NewRouter(
	catalogService *service.CatalogService,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware. Recovery runs outermost so panics in the rest of
	// the chain still produce a JSON 500.
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.CORS)

	// Operational endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	if len(cfg.PprofAllowedCIDRs) > 0 {
		middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)
	}

	// Product API endpoints
	productHandler := NewProductHandler(catalogService, logger)

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", productHandler.ListProducts)
		r.Post("/", productHandler.CreateProduct)
		r.Get("/{id}", productHandler.GetProduct)
		r.Put("/{id}", productHandler.UpdateProduct)
		r.Delete("/{id}", productHandler.DeleteProduct)
		r.Post("/{id}/restore", productHandler.RestoreProduct)
		r.Post("/{id}/image", productHandler.UploadImage)
	})

	// Search API endpoints
	searchHandler := NewSearchHandler(catalogService, logger)

	r.Route("/api/v1/search", func(r chi.Router) {
		r.Get("/products", searchHandler.Search)
	})

	return r
}
