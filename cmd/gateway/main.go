package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/threadline/storefront-gateway/api/controllers"
	"github.com/threadline/storefront-gateway/api/routes"
	"github.com/threadline/storefront-gateway/internal/admin"
	"github.com/threadline/storefront-gateway/internal/cart"
	"github.com/threadline/storefront-gateway/internal/fallback"
	"github.com/threadline/storefront-gateway/internal/identity"
	"github.com/threadline/storefront-gateway/internal/refresh"
	"github.com/threadline/storefront-gateway/internal/relay"
	"github.com/threadline/storefront-gateway/internal/remote"
	"github.com/threadline/storefront-gateway/internal/wishlist"
	"github.com/threadline/storefront-gateway/pkg/config"
	"github.com/threadline/storefront-gateway/pkg/db"
	"github.com/threadline/storefront-gateway/pkg/logger"
	"github.com/threadline/storefront-gateway/pkg/metrics"
	"github.com/threadline/storefront-gateway/pkg/migrate"
	"github.com/threadline/storefront-gateway/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "gateway"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "gateway",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	// Redis backs the idempotency cache and the refresh lock. The gateway
	// still serves without it: a single local instance needs neither.
	var redisClient *redis.Client
	if cfg.Redis.URL != "" || cfg.Redis.Address != "" {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(context.Background(), "redis not configured, idempotency replay protection disabled")
	}

	registry := prometheus.NewRegistry()
	syncMetrics := metrics.NewSyncMetrics(registry)
	jobMetrics := metrics.NewJobMetrics(registry)

	remoteClient, err := remote.NewClient(cfg.Remote, logg, syncMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create backend client", err)
		os.Exit(1)
	}

	store := fallback.NewStore(dbClient.DB())
	bus := relay.NewBus(relay.BusParams{
		Buffer:  cfg.Relay.SubscriberBuffer,
		Logger:  logg,
		Metrics: syncMetrics,
	})
	defer bus.Close()
	notifier := relay.NewNotifier(cfg.Relay.ToastTTL)

	cartService, err := cart.NewService(cart.ServiceParams{
		Remote:   remoteClient,
		Mirror:   store,
		Bus:      bus,
		Notifier: notifier,
		Logger:   logg,
		Metrics:  syncMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	wishlistService, err := wishlist.NewService(wishlist.ServiceParams{
		Remote:   remoteClient,
		Mirror:   store,
		Bus:      bus,
		Notifier: notifier,
		Logger:   logg,
		Metrics:  syncMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create wishlist service", err)
		os.Exit(1)
	}

	adminService, err := admin.NewService(remoteClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create admin service", err)
		os.Exit(1)
	}

	resolver := identity.NewResolver(cfg.JWT)
	tracker := refresh.NewTracker(0)

	refreshService, err := buildRefreshService(cfg, logg, jobMetrics, redisClient, tracker, cartService, wishlistService, notifier)
	if err != nil {
		logg.Error(context.Background(), "failed to create refresh service", err)
		os.Exit(1)
	}
	refreshCtx, stopRefresh := context.WithCancel(context.Background())
	defer stopRefresh()
	go func() {
		if err := refreshService.Run(refreshCtx); err != nil && refreshCtx.Err() == nil {
			logg.Error(refreshCtx, "refresh loop stopped unexpectedly", err)
		}
	}()

	readyDeps := map[string]controllers.Pinger{"database": dbClient}
	if redisClient != nil {
		readyDeps["redis"] = redisClient
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting storefront gateway")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:    cfg,
			Logger:    logg,
			Resolver:  resolver,
			Tracker:   tracker,
			Redis:     redisClient,
			Bus:       bus,
			Notifier:  notifier,
			Cart:      cartService,
			Wishlist:  wishlistService,
			Admin:     adminService,
			Registry:  registry,
			ReadyDeps: readyDeps,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "gateway server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func buildRefreshService(
	cfg *config.Config,
	logg *logger.Logger,
	jobMetrics *metrics.JobMetrics,
	redisClient *redis.Client,
	tracker *refresh.Tracker,
	cartService cart.Service,
	wishlistService wishlist.Service,
	notifier *relay.Notifier,
) (*refresh.Service, error) {
	convergence, err := refresh.NewConvergenceJob(refresh.ConvergenceJobParams{
		Logger:   logg,
		Tracker:  tracker,
		Cart:     cartService,
		Wishlist: wishlistService,
	})
	if err != nil {
		return nil, err
	}
	toastGC, err := refresh.NewToastGCJob(logg, notifier)
	if err != nil {
		return nil, err
	}

	var lock refresh.Lock = refresh.NoopLock{}
	if redisClient != nil {
		redisLock, err := refresh.NewRedisLock(redisClient, redisClient.LockKey("refresh"), cfg.Refresh.LockTTL)
		if err != nil {
			return nil, err
		}
		lock = redisLock
	}

	return refresh.NewService(refresh.ServiceParams{
		Logger:   logg,
		Registry: refresh.NewRegistry(convergence, toastGC),
		Lock:     lock,
		Metrics:  jobMetrics,
		Interval: cfg.Refresh.Interval,
	})
}
