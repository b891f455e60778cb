package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/omanfreight/quote-service/api/routes"
	"github.com/omanfreight/quote-service/internal/pricing"
	product "github.com/omanfreight/quote-service/internal/products"
	"github.com/omanfreight/quote-service/internal/quotes"
	"github.com/omanfreight/quote-service/pkg/config"
	"github.com/omanfreight/quote-service/pkg/db"
	"github.com/omanfreight/quote-service/pkg/logger"
	"github.com/omanfreight/quote-service/pkg/metrics"
	"github.com/omanfreight/quote-service/pkg/migrate"
	"github.com/omanfreight/quote-service/pkg/outbox"
	"github.com/omanfreight/quote-service/pkg/ratelimit"
	"github.com/omanfreight/quote-service/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		_ = dbClient.Close()
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		_ = dbClient.Close()
		os.Exit(1)
	}

	closeAll := func() error {
		return multierr.Combine(redisClient.Close(), dbClient.Close())
	}
	fail := func(msg string, err error) {
		logg.Error(context.Background(), msg, err)
		if closeErr := closeAll(); closeErr != nil {
			logg.Error(context.Background(), "error releasing resources", closeErr)
		}
		os.Exit(1)
	}

	quotePolicy, submitPolicy := ratelimit.PoliciesFromConfig(cfg.RateLimit)
	quoteLimiter, err := ratelimit.New(cfg.RateLimit, quotePolicy, redisClient)
	if err != nil {
		fail("failed to create quote rate limiter", err)
	}
	submitLimiter, err := ratelimit.New(cfg.RateLimit, submitPolicy, redisClient)
	if err != nil {
		fail("failed to create submit rate limiter", err)
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	productService, err := product.NewService(product.NewRepository(dbClient.DB()), dbClient, outboxService)
	if err != nil {
		fail("failed to create product service", err)
	}

	quoteMetrics := metrics.NewQuoteMetrics(prometheus.DefaultRegisterer)
	quoteService, err := quotes.NewService(quotes.ServiceParams{
		Products:   productService,
		Engine:     pricing.NewEngine(pricing.DefaultOptions()),
		Repository: quotes.NewRepository(dbClient.DB()),
		TxRunner:   dbClient,
		Outbox:     outboxService,
		References: quotes.NewSequenceReferences(redisClient, cfg.Quotes.ReferencePrefix),
		Metrics:    quoteMetrics,
		Logger:     logg,
		Validity:   cfg.Quotes.Validity,
	})
	if err != nil {
		fail("failed to create quote service", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":                cfg.App.Env,
		"addr":               addr,
		"instance":           id,
		"rate_limit_backend": cfg.RateLimit.Backend,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Dependencies{
			Config:      cfg,
			Logger:      logg,
			DB:          dbClient,
			Redis:       redisClient,
			Idempotency: redisClient,
			QuoteLimit:  quoteLimiter,
			SubmitLimit: submitLimiter,
			Metrics:     quoteMetrics,
			Gatherer:    prometheus.DefaultGatherer,
			Quotes:      quoteService,
			Products:    productService,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	var runErr error
	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		runErr = server.Shutdown(shutdownCtx)
		cancel()
	}

	if err := multierr.Append(runErr, closeAll()); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}
