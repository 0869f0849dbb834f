package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/matespatagonico/storefront/api/routes"
	"github.com/matespatagonico/storefront/internal/auth"
	"github.com/matespatagonico/storefront/internal/catalog"
	"github.com/matespatagonico/storefront/internal/checkout"
	"github.com/matespatagonico/storefront/internal/images"
	"github.com/matespatagonico/storefront/internal/orders"
	"github.com/matespatagonico/storefront/internal/sessions"
	"github.com/matespatagonico/storefront/pkg/auth/session"
	"github.com/matespatagonico/storefront/pkg/backend"
	"github.com/matespatagonico/storefront/pkg/config"
	"github.com/matespatagonico/storefront/pkg/env"
	"github.com/matespatagonico/storefront/pkg/logger"
	"github.com/matespatagonico/storefront/pkg/metrics"
	"github.com/matespatagonico/storefront/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront-api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	var (
		registry       *prometheus.Registry
		metricsHandler http.Handler
	)
	if cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	}
	var registerer prometheus.Registerer
	if registry != nil {
		registerer = registry
	}

	client, err := backend.NewClient(cfg.Backend,
		backend.WithLogger(logg),
		backend.WithMetrics(metrics.NewBackendMetrics(registerer)),
	)
	if err != nil {
		logg.Error(ctx, "failed to create backend client", err)
		os.Exit(1)
	}

	sessionManager, err := session.NewManager(redisClient, cfg.Session.TTL)
	if err != nil {
		logg.Error(ctx, "failed to create session manager", err)
		os.Exit(1)
	}

	shoppers, err := sessions.NewRegistry(sessions.RegistryParams{Client: client, Logger: logg})
	if err != nil {
		logg.Error(ctx, "failed to create shopper registry", err)
		os.Exit(1)
	}
	go shoppers.Run(ctx, cfg.Shoppers.SweepInterval, cfg.Shoppers.MaxIdle)

	authService, err := auth.NewService(auth.ServiceParams{
		Client:   client,
		Sessions: sessionManager,
		Shoppers: shoppers,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create auth service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalog.ServiceParams{Client: client, Logger: logg})
	if err != nil {
		logg.Error(ctx, "failed to create catalog service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Orders:     client,
		Selections: client,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create checkout service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(orders.ServiceParams{Client: client, Logger: logg})
	if err != nil {
		logg.Error(ctx, "failed to create orders service", err)
		os.Exit(1)
	}

	resolver, err := images.NewResolver(images.ResolverParams{
		Fetcher:         client,
		Cache:           redisClient,
		CacheTTL:        cfg.Images.CacheTTL,
		PlaceholderHost: cfg.Images.PlaceholderHost,
		Logger:          logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create image resolver", err)
		os.Exit(1)
	}

	addr := ":" + env.Get(cfg.App.Port, "PORT")
	serverCtx := logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"backend": cfg.Backend.BaseURL,
	})

	router := routes.NewRouter(
		cfg,
		logg,
		redisClient,
		sessionManager,
		metricsHandler,
		authService,
		shoppers,
		catalogService,
		checkoutService,
		ordersService,
		resolver,
	)

	server := &http.Server{
		Addr: addr,
		Handler: otelhttp.NewHandler(router, "storefront-api", otelhttp.WithFilter(func(r *http.Request) bool {
			return !strings.HasPrefix(r.URL.Path, "/health") && r.URL.Path != "/metrics"
		})),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(serverCtx, "starting storefront api")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(serverCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(serverCtx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(serverCtx, "graceful shutdown failed", err)
		}
	}
}
