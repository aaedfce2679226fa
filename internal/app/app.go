package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/khalifgfrz/coffee-shop-storefront/internal/backend"
	"github.com/khalifgfrz/coffee-shop-storefront/internal/config"
	"github.com/khalifgfrz/coffee-shop-storefront/internal/event"
	handler "github.com/khalifgfrz/coffee-shop-storefront/internal/handler/http"
	"github.com/khalifgfrz/coffee-shop-storefront/internal/repository"
	memoryrepo "github.com/khalifgfrz/coffee-shop-storefront/internal/repository/memory"
	redisrepo "github.com/khalifgfrz/coffee-shop-storefront/internal/repository/redis"
	"github.com/khalifgfrz/coffee-shop-storefront/internal/service"
	"github.com/khalifgfrz/coffee-shop-storefront/pkg/health"
	"github.com/khalifgfrz/coffee-shop-storefront/pkg/httpclient"
	pkgkafka "github.com/khalifgfrz/coffee-shop-storefront/pkg/kafka"
	"github.com/khalifgfrz/coffee-shop-storefront/pkg/middleware"
	"github.com/khalifgfrz/coffee-shop-storefront/pkg/tracing"
)

const serviceName = "storefront"

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	rdb            *redis.Client
	memRepo        *memoryrepo.SessionRepository
	kafka          *pkgkafka.Producer
	events         *event.Producer
	sessions       *service.SessionRegistry
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	healthHandler := health.NewHandler()

	// Session repository.
	var repo repository.SessionRepository
	switch cfg.SessionBackend {
	case config.SessionBackendRedis:
		a.rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})
		if err := a.rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("connected to Redis",
			slog.String("addr", cfg.RedisAddr),
			slog.Int("db", cfg.RedisDB),
		)
		repo = redisrepo.NewSessionRepository(a.rdb, cfg.SessionTTL)
		healthHandler.RegisterCritical("redis", repo.Ping)
	default:
		a.memRepo = memoryrepo.NewSessionRepository(cfg.SessionTTL)
		repo = a.memRepo
		logger.Info("using in-memory session store")
	}

	// Backend API client with retries and a circuit breaker.
	baseClient := httpclient.New(httpclient.Config{
		Timeout:         cfg.BackendTimeout,
		MaxRetries:      cfg.BackendMaxRetries,
		RetryWaitMin:    200 * time.Millisecond,
		RetryWaitMax:    2 * time.Second,
		MaxConnsPerHost: 50,
	})
	cbClient := httpclient.NewCircuitBreakerClient(baseClient, httpclient.DefaultCircuitBreakerConfig("coffee-shop-api"), logger)
	api := backend.NewClient(cbClient, cfg.BackendBaseURL, cfg.BackendTimeout, logger)
	healthHandler.RegisterNonCritical("backend_api", api.Ping)
	logger.Info("backend client initialized", slog.String("base_url", cfg.BackendBaseURL))

	// Build the dependency graph.
	a.sessions = service.NewSessionRegistry(repo, cfg.SessionTTL, logger)

	if cfg.KafkaEnabled {
		a.kafka = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		a.events = event.NewProducer(a.kafka, logger, 1024)
		a.sessions.OnCreate(func(s *service.Session) {
			s.Store.Subscribe(a.events.CheckoutListener(s.ID, s.UserID))
		})
		healthHandler.RegisterNonCritical("kafka", a.kafka.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	svcs := handler.Services{
		Checkout: service.NewCheckoutService(a.sessions, api, logger),
		Catalog:  service.NewCatalogService(api, a.sessions, logger),
		Account:  service.NewAccountService(api, a.sessions, logger),
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins

	router := handler.NewRouter(svcs, healthHandler, logger, handler.RouterConfig{
		ServiceName:    serviceName,
		RequestTimeout: cfg.HTTPRequestTimeout,
		CORS:           cors,
		Session: handler.SessionConfig{
			CookieName: cfg.SessionCookieName,
			Secure:     cfg.SessionCookieSecure,
			TTL:        cfg.SessionTTL,
		},
		ProductCacheMaxAge: cfg.ProductCacheMaxAge,
		LoginRatePerMinute: cfg.LoginRatePerMinute,
		LoginBurst:         cfg.LoginBurst,
		PprofCIDRs:         cfg.PprofAllowedCIDRs,
	})

	// WriteTimeout stays zero so the checkout stream can stay open; other
	// routes are bounded by the router's request timeout.
	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return a, nil
}

// Run starts the HTTP server and the session janitor, and blocks until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go a.sessions.Run(janitorCtx, a.cfg.SessionJanitorEvery)
	if a.memRepo != nil {
		go a.purgeSnapshots(janitorCtx)
	}

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

func (a *App) purgeSnapshots(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.SessionJanitorEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.memRepo.Purge(); n > 0 {
				a.logger.Debug("purged expired session snapshots", slog.Int("count", n))
			}
		}
	}
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	// Drain queued checkout events before closing the Kafka writer.
	if a.events != nil {
		a.events.Close()
	}
	if a.kafka != nil {
		if err := a.kafka.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}

	if a.tracerShutdown != nil {
		if err := a.tracerShutdown(shutdownCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		}
	}

	a.logger.Info("application shutdown complete")
	return nil
}
