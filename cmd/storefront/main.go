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
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/bookstore-backend/api/routes"
	"github.com/angelmondragon/bookstore-backend/internal/cart"
	"github.com/angelmondragon/bookstore-backend/internal/pricing"
	"github.com/angelmondragon/bookstore-backend/pkg/config"
	"github.com/angelmondragon/bookstore-backend/pkg/fx"
	"github.com/angelmondragon/bookstore-backend/pkg/idempotency"
	"github.com/angelmondragon/bookstore-backend/pkg/kv"
	"github.com/angelmondragon/bookstore-backend/pkg/logger"
	"github.com/angelmondragon/bookstore-backend/pkg/metrics"
	"github.com/angelmondragon/bookstore-backend/pkg/redis"
	"github.com/angelmondragon/bookstore-backend/pkg/storeapi"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	requireResource(logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	api, err := storeapi.NewClient(cfg.Storefront.APIBaseURL, storeapi.WithTimeout(cfg.Storefront.RequestTimeout))
	requireResource(logg, "store api client", err)

	rateClient := fx.NewClient(
		fx.WithBaseURL(cfg.Exchange.ProviderURL),
		fx.WithAPIKey(cfg.Exchange.APIKey),
		fx.WithHTTPClient(&http.Client{Timeout: cfg.Exchange.RequestTimeout}),
		fx.WithBreaker(fx.BreakerSettings{
			ConsecutiveFailures: cfg.Exchange.BreakerFailures,
			Cooldown:            cfg.Exchange.BreakerCooldown,
			HalfOpenRequests:    cfg.Exchange.BreakerHalfOpenN,
		}),
	)

	guard, err := idempotency.NewManager(redisClient, cfg.Cart.ReconcileGuardTTL)
	requireResource(logg, "reconcile guard", err)

	cartMetrics := metrics.NewCartMetrics(prometheus.DefaultRegisterer)
	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer, "storefront")
	store := kv.NewRedis(redisClient)

	rates := pricing.NewRateCache(store, rateClient, cfg.Exchange.CacheTTL, logg, cartMetrics)
	deps := routes.StorefrontDeps{
		Carts:       cart.NewProvider(store, api, api, cfg.Cart, logg, cartMetrics),
		Pricer:      pricing.NewEngine(cfg.Pricing, api, rates, logg, cartMetrics),
		Reconciler:  cart.NewReconciler(guard, logg, cartMetrics),
		Gatherer:    prometheus.DefaultGatherer,
		HTTPMetrics: httpMetrics,
		Redis:       redisClient,
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"backend": cfg.Storefront.APIBaseURL,
	})
	logg.Info(ctx, "starting storefront server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewStorefrontRouter(cfg, logg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logg.Error(ctx, "storefront server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "storefront server stopped")
}

func requireResource(logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "resource not working: "+resource, err)
	os.Exit(1)
}
