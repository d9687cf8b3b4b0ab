package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/davivienda-ecommerce/storefront-backend/api"
	"github.com/davivienda-ecommerce/storefront-backend/api/routes"
	"github.com/davivienda-ecommerce/storefront-backend/internal/cart"
	"github.com/davivienda-ecommerce/storefront-backend/internal/identity"
	"github.com/davivienda-ecommerce/storefront-backend/internal/payments"
	product "github.com/davivienda-ecommerce/storefront-backend/internal/products"
	"github.com/davivienda-ecommerce/storefront-backend/internal/stock"
	"github.com/davivienda-ecommerce/storefront-backend/pkg/cardcrypto"
	"github.com/davivienda-ecommerce/storefront-backend/pkg/config"
	"github.com/davivienda-ecommerce/storefront-backend/pkg/db"
	"github.com/davivienda-ecommerce/storefront-backend/pkg/logger"
	"github.com/davivienda-ecommerce/storefront-backend/pkg/metrics"
	"github.com/davivienda-ecommerce/storefront-backend/pkg/migrate"
	"github.com/davivienda-ecommerce/storefront-backend/pkg/redis"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(ctx, "redis not configured; idempotency keys disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	identityService, err := identity.NewService(identity.NewRepository(dbClient.DB()), logg, cfg.Checkout.ReferenceCacheTTL)
	requireResource(ctx, logg, "identity service", err)

	catalog, err := product.NewCatalog(product.NewRepository(dbClient.DB()))
	requireResource(ctx, logg, "product catalog", err)

	ledger, err := stock.NewLedger(stock.NewRepository(dbClient.DB()))
	requireResource(ctx, logg, "stock ledger", err)

	cartRepo := cart.NewRepository(dbClient.DB())
	cartService, err := cart.NewService(cartRepo, dbClient, catalog, identityService, ledger, logg, checkoutMetrics, cfg.Checkout.ClientRoleName)
	requireResource(ctx, logg, "cart service", err)

	stockChecker, err := stock.NewChecker(cartRepo, ledger, logg, checkoutMetrics)
	requireResource(ctx, logg, "stock checker", err)

	decrypter, err := cardcrypto.New(cfg.CardCrypto)
	requireResource(ctx, logg, "card decrypter", err)

	references, err := payments.NewReferenceGenerator(cfg.Checkout.ReferenceAttempts, logg, checkoutMetrics)
	requireResource(ctx, logg, "reference generator", err)

	paymentService, err := payments.NewService(
		payments.NewRepository(dbClient.DB()),
		cartRepo,
		dbClient,
		decrypter,
		references,
		logg,
		checkoutMetrics,
		payments.Options{
			PendingStatusName: cfg.Checkout.PendingStatusName,
			LookupCacheTTL:    cfg.Checkout.ReferenceCacheTTL,
		},
	)
	requireResource(ctx, logg, "payment service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	serverCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(serverCtx, "starting api server")

	router := routes.NewRouter(
		cfg,
		logg,
		dbClient,
		redisClient,
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		identityService,
		cartService,
		stockChecker,
		paymentService,
	)

	if err := api.Serve(serverCtx, api.NewServer(addr, router), logg); err != nil {
		logg.Error(serverCtx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(context.Background(), "api server stopped")
}

func requireResource(ctx context.Context, logg *logger.Logger, name string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "failed to build "+name, err)
	os.Exit(1)
}
