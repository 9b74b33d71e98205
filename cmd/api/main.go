package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/nearbuy-backend/api/routes"
	"github.com/angelmondragon/nearbuy-backend/internal/address"
	"github.com/angelmondragon/nearbuy-backend/internal/cart"
	"github.com/angelmondragon/nearbuy-backend/internal/orders"
	"github.com/angelmondragon/nearbuy-backend/internal/payments"
	product "github.com/angelmondragon/nearbuy-backend/internal/products"
	"github.com/angelmondragon/nearbuy-backend/internal/reviews"
	"github.com/angelmondragon/nearbuy-backend/internal/stores"
	"github.com/angelmondragon/nearbuy-backend/pkg/config"
	"github.com/angelmondragon/nearbuy-backend/pkg/db"
	"github.com/angelmondragon/nearbuy-backend/pkg/db/models"
	"github.com/angelmondragon/nearbuy-backend/pkg/env"
	"github.com/angelmondragon/nearbuy-backend/pkg/localcache"
	"github.com/angelmondragon/nearbuy-backend/pkg/logger"
	"github.com/angelmondragon/nearbuy-backend/pkg/maps"
	"github.com/angelmondragon/nearbuy-backend/pkg/metrics"
	"github.com/angelmondragon/nearbuy-backend/pkg/migrate"
	"github.com/angelmondragon/nearbuy-backend/pkg/redis"
	"github.com/angelmondragon/nearbuy-backend/pkg/remote"
	"github.com/angelmondragon/nearbuy-backend/pkg/syncpolicy"
)

const shutdownTimeout = 10 * time.Second

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

	infra := routes.Infra{Gatherer: prometheus.DefaultGatherer}

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

		if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
			logg.Error(context.Background(), "failed to run dev migrations", err)
			os.Exit(1)
		}

		gormStore, err := remote.NewGormStore(dbClient.DB())
		if err != nil {
			logg.Error(context.Background(), "failed to create remote store", err)
			os.Exit(1)
		}
		rs = gormStore
		infra.DB = dbClient
	} else {
		restStore, err := remote.NewRESTStore(cfg.Remote.BaseURL, cfg.Remote.APIKey)
		if err != nil {
			logg.Error(context.Background(), "failed to create remote store", err)
			os.Exit(1)
		}
		rs = restStore
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

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
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
		infra.Redis = redisClient
	} else {
		logg.Warn(context.Background(), "redis not configured, idempotency and rate limits disabled")
	}

	services, err := buildServices(cfg, logg, rs, cache, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	addr := ":" + env.Get("PORT", cfg.App.Port)
	id := env.Instance()
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":           cfg.App.Env,
		"addr":          addr,
		"instance":      id,
		"remote_driver": cfg.Remote.Driver,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, infra, services),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-sigCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server shut down gracefully")
}

func buildServices(cfg *config.Config, logg *logger.Logger, rs remote.Store, cache localcache.Store, redisClient *redis.Client) (routes.Services, error) {
	opts := syncpolicy.Options{
		Timeout: cfg.Sync.RemoteTimeout,
		Logger:  logg,
		Metrics: metrics.NewSyncMetrics(prometheus.DefaultRegisterer),
	}

	storePolicy, err := syncpolicy.New[models.Store](models.TableStores, rs, cache, opts)
	if err != nil {
		return routes.Services{}, err
	}
	productPolicy, err := syncpolicy.New[models.Product](models.TableProducts, rs, cache, opts)
	if err != nil {
		return routes.Services{}, err
	}
	reviewPolicy, err := syncpolicy.New[models.StoreReview](models.TableStoreReviews, rs, cache, opts)
	if err != nil {
		return routes.Services{}, err
	}
	addressPolicy, err := syncpolicy.New[models.Address](models.TableAddresses, rs, cache, opts)
	if err != nil {
		return routes.Services{}, err
	}
	// cart lines never leave the device
	linePolicy, err := syncpolicy.New[models.CartLine](models.TableCartLines, nil, cache, opts)
	if err != nil {
		return routes.Services{}, err
	}
	orderPolicy, itemPolicy, err := orders.NewPolicies(rs, cache, opts)
	if err != nil {
		return routes.Services{}, err
	}

	storeSvc, err := stores.NewService(stores.NewRepository(storePolicy))
	if err != nil {
		return routes.Services{}, err
	}
	productSvc, err := product.NewService(productPolicy)
	if err != nil {
		return routes.Services{}, err
	}
	reviewSvc, err := reviews.NewService(reviewPolicy, storePolicy, logg)
	if err != nil {
		return routes.Services{}, err
	}

	cartRepo, err := cart.NewRepository(linePolicy)
	if err != nil {
		return routes.Services{}, err
	}
	var locker cart.Locker = cart.NewMemoryLocker()
	if redisClient != nil {
		redisLocker, err := cart.NewRedisLocker(redisClient)
		if err != nil {
			return routes.Services{}, err
		}
		locker = redisLocker
	}
	cartSvc, err := cart.NewService(cartRepo, locker, storeSvc, productSvc)
	if err != nil {
		return routes.Services{}, err
	}

	orderSvc, err := orders.NewService(orderPolicy, itemPolicy, storeSvc, logg)
	if err != nil {
		return routes.Services{}, err
	}

	var places *maps.Client
	if cfg.GoogleMaps.APIKey != "" {
		places, err = maps.NewClient(cfg.GoogleMaps.APIKey)
		if err != nil {
			return routes.Services{}, err
		}
	}
	var addressSvc address.Service
	if places != nil {
		addressSvc, err = address.NewService(addressPolicy, places, logg)
	} else {
		addressSvc, err = address.NewService(addressPolicy, nil, logg)
	}
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Stores:    storeSvc,
		Products:  productSvc,
		Reviews:   reviewSvc,
		Cart:      cartSvc,
		Orders:    orderSvc,
		Addresses: addressSvc,
		Payments:  payments.NewService(),
	}, nil
}
