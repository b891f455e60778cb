package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/omanfreight/quote-service/api/controllers"
	"github.com/omanfreight/quote-service/api/middleware"
	"github.com/omanfreight/quote-service/api/responses"
	product "github.com/omanfreight/quote-service/internal/products"
	"github.com/omanfreight/quote-service/internal/quotes"
	"github.com/omanfreight/quote-service/pkg/config"
	pkgerrors "github.com/omanfreight/quote-service/pkg/errors"
	"github.com/omanfreight/quote-service/pkg/logger"
	"github.com/omanfreight/quote-service/pkg/metrics"
	"github.com/omanfreight/quote-service/pkg/ratelimit"
	"github.com/omanfreight/quote-service/pkg/redis"
)

// Dependencies are the wired services the router exposes.
type Dependencies struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          controllers.Pinger
	Redis       controllers.Pinger
	Idempotency redis.IdempotencyStore
	QuoteLimit  ratelimit.Limiter
	SubmitLimit ratelimit.Limiter
	Metrics     *metrics.QuoteMetrics
	Gatherer    prometheus.Gatherer
	Quotes      quotes.Service
	Products    product.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Recoverer(logg),
		middleware.ClientIP(cfg.App.TrustedProxyHops, logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		responses.WriteError(req.Context(), nil, w, pkgerrors.New(pkgerrors.CodeNotFound, "route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	})

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    deps.DB,
			"redis": deps.Redis,
		}))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	quoteLimit := middleware.RateLimit(ratelimit.PolicyQuote, deps.QuoteLimit, deps.Metrics, logg)
	submitLimit := middleware.RateLimit(ratelimit.PolicyQuoteSubmit, deps.SubmitLimit, deps.Metrics, logg)
	idempotent := middleware.Idempotency(deps.Idempotency, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/quotes", func(r chi.Router) {
			r.With(quoteLimit).Post("/calculate", controllers.QuoteCalculate(deps.Quotes, logg))
			r.With(submitLimit, idempotent).Post("/", controllers.QuoteSubmit(deps.Quotes, logg))
			r.With(quoteLimit).Get("/{reference}", controllers.QuoteGet(deps.Quotes, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Use(quoteLimit)
			r.Get("/", controllers.ProductList(deps.Products, logg))
			r.Get("/{productId}", controllers.ProductGet(deps.Products, logg))
		})

		if cfg.Admin.Enabled() {
			r.Route("/admin/products", func(r chi.Router) {
				r.Use(middleware.AdminKey(cfg.Admin.APIKey, logg))
				r.With(idempotent).Post("/", controllers.AdminCreateProduct(deps.Products, logg))
				r.With(idempotent).Put("/{productId}/tiers", controllers.AdminReplaceTiers(deps.Products, logg))
			})
		}
	})

	return r
}
