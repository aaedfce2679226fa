package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/khalifgfrz/coffee-shop-storefront/internal/service"
	"github.com/khalifgfrz/coffee-shop-storefront/pkg/health"
	"github.com/khalifgfrz/coffee-shop-storefront/pkg/middleware"
)

// Services groups the services the router dispatches to.
type Services struct {
	Checkout *service.CheckoutService
	Catalog  *service.CatalogService
	Account  *service.AccountService
}

// RouterConfig holds the HTTP-level settings of the storefront.
type RouterConfig struct {
	ServiceName        string
	RequestTimeout     time.Duration
	CORS               middleware.CORSConfig
	Session            SessionConfig
	ProductCacheMaxAge int
	LoginRatePerMinute int
	LoginBurst         int
	PprofCIDRs         []string
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(svcs Services, healthHandler *health.Handler, logger *slog.Logger, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(chimw.Compress(5))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	checkoutHandler := NewCheckoutHandler(svcs.Checkout, logger)
	catalogHandler := NewCatalogHandler(svcs.Catalog, logger)
	accountHandler := NewAccountHandler(svcs.Account, cfg.Session, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(Session(cfg.Session))

		// Long-lived; must stay outside the request timeout.
		r.With(middleware.NoStore).Get("/checkout/stream", checkoutHandler.Stream)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(cfg.RequestTimeout))

			r.Route("/products", func(r chi.Router) {
				r.With(middleware.CacheControl(cfg.ProductCacheMaxAge)).Get("/", catalogHandler.ListProducts)
				r.With(middleware.CacheControl(cfg.ProductCacheMaxAge)).Get("/{uuid}", catalogHandler.GetProduct)
				r.With(middleware.NoStore).Post("/{uuid}/checkout", checkoutHandler.AddProduct)
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Use(middleware.NoStore)

				r.Get("/", checkoutHandler.GetCheckout)
				r.Delete("/", checkoutHandler.Clear)
				r.Get("/count", checkoutHandler.GetCount)

				r.Post("/items", checkoutHandler.AddItem)
				r.Patch("/items/{uuid}", checkoutHandler.UpdateItem)
				r.Delete("/items/{uuid}", checkoutHandler.RemoveItem)
			})

			r.Route("/auth", func(r chi.Router) {
				r.Use(middleware.NoStore)
				r.With(LoginRateLimit(cfg.LoginRatePerMinute, cfg.LoginBurst, logger)).Post("/login", accountHandler.Login)
				r.Post("/logout", accountHandler.Logout)
			})

			r.With(middleware.NoStore).Patch("/profile", accountHandler.UpdateProfile)
		})
	})

	return r
}
