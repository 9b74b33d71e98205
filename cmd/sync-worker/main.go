package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/nearbuy-backend/internal/cron"
	product "github.com/angelmondragon/nearbuy-backend/internal/products"
	"github.com/angelmondragon/nearbuy-backend/internal/stores"
	"github.com/angelmondragon/nearbuy-backend/pkg/config"
	"github.com/angelmondragon/nearbuy-backend/pkg/db"
	"github.com/angelmondragon/nearbuy-backend/pkg/db/models"
	"github.com/angelmondragon/nearbuy-backend/pkg/env"
	"github.com/angelmondragon/nearbuy-backend/pkg/localcache"
	"github.com/angelmondragon/nearbuy-backend/pkg/logger"
	"github.com/angelmondragon/nearbuy-backend/pkg/metrics"
	"github.com/angelmondragon/nearbuy-backend/pkg/redis"
	"github.com/angelmondragon/nearbuy-backend/pkg/remote"
	"github.com/angelmondragon/nearbuy-backend/pkg/syncpolicy"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "sync-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "sync-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	var rs remote.Store
	if cfg.Remote.UsesPostgres() {
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
		rs, err = remote.NewGormStore(dbClient.DB())
		if err != nil {
			logg.Error(context.Background(), "failed to create remote store", err)
			os.Exit(1)
		}
	} else {
		rs, err = remote.NewRESTStore(cfg.Remote.BaseURL, cfg.Remote.APIKey)
		if err != nil {
			logg.Error(context.Background(), "failed to create remote store", err)
			os.Exit(1)
		}
	}

	cacheClient, err := db.OpenSQLite(context.Background(), cfg.Cache.Path, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to open local cache", err)
		os.Exit(1)
	}
	defer func() {
		if err := cacheClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing local cache", err)
		}
	}()
	cache, err := localcache.NewSQLiteStore(cacheClient.DB())
	if err != nil {
		logg.Error(context.Background(), "failed to prepare local cache", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	opts := syncpolicy.Options{
		Timeout: cfg.Sync.RemoteTimeout,
		Logger:  logg,
		Metrics: metrics.NewSyncMetrics(prometheus.DefaultRegisterer),
	}
	registry, err := warmRegistry(rs, cache, opts)
	if err != nil {
		logg.Error(context.Background(), "failed to build warm jobs", err)
		os.Exit(1)
	}

	lock, err := redis.NewLock(redisClient, redisClient.LockKey("sync", "warm"), cfg.Sync.WarmInterval)
	if err != nil {
		logg.Error(context.Background(), "failed to create warm lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Sync.WarmInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sync service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"instance": env.Instance(),
		"interval": cfg.Sync.WarmInterval.String(),
	})

	metricsServer := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "metrics listener stopped", err)
		}
	}()
	defer func() {
		_ = metricsServer.Shutdown(context.Background())
	}()

	logg.Info(ctx, "starting sync worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "sync worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "sync worker shutting down gracefully")
}

func warmRegistry(rs remote.Store, cache localcache.Store, opts syncpolicy.Options) (*cron.Registry, error) {
	storePolicy, err := syncpolicy.New[models.Store](models.TableStores, rs, cache, opts)
	if err != nil {
		return nil, err
	}
	productPolicy, err := syncpolicy.New[models.Product](models.TableProducts, rs, cache, opts)
	if err != nil {
		return nil, err
	}
	productSvc, err := product.NewService(productPolicy)
	if err != nil {
		return nil, err
	}

	storeRepo := stores.NewRepository(storePolicy)
	storeJob, err := cron.NewStoreCatalogJob(storeRepo)
	if err != nil {
		return nil, err
	}
	productJob, err := cron.NewProductCatalogJob(storeRepo, productSvc)
	if err != nil {
		return nil, err
	}
	return cron.NewRegistry(storeJob, productJob)
}
