package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/campus-kds/canteen-backend/internal/cron"
	"github.com/campus-kds/canteen-backend/internal/menu"
	"github.com/campus-kds/canteen-backend/internal/orders"
	"github.com/campus-kds/canteen-backend/internal/realtime"
	"github.com/campus-kds/canteen-backend/pkg/config"
	"github.com/campus-kds/canteen-backend/pkg/db"
	"github.com/campus-kds/canteen-backend/pkg/logger"
	"github.com/campus-kds/canteen-backend/pkg/metrics"
	"github.com/campus-kds/canteen-backend/pkg/migrate"
	"github.com/campus-kds/canteen-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var lock cron.Lock = cron.NoopLock{}
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(ctx, "error closing redis", err)
			}
		}()
		redisLock, err := cron.NewRedisLock(redisClient, cfg.Cron.LockKey, cfg.Cron.LockTTL)
		if err != nil {
			logg.Error(ctx, "failed to create cron lock", err)
			os.Exit(1)
		}
		lock = redisLock
	} else {
		logg.Warn(ctx, "redis not configured, assuming a single cron instance")
	}

	// The reconcile job updates the catalog directly; broadcasts from
	// the worker would bypass the API's redis bridge anyway, so menu
	// events go to a throwaway local hub here.
	menuService, err := menu.NewService(menu.NewRepository(dbClient.DB()), realtime.NewHub(1, logg, nil), logg)
	if err != nil {
		logg.Error(ctx, "failed to create menu service", err)
		os.Exit(1)
	}

	reconcileJob, err := cron.NewStockReconcileJob(cron.StockReconcileJobParams{
		Logger:    logg,
		Orders:    orders.NewRepository(dbClient.DB()),
		Stock:     menuService,
		BatchSize: cfg.Cron.ReconcileBatchSize,
	})
	if err != nil {
		logg.Error(ctx, "failed to create stock reconcile job", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(reconcileJob),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(ctx, "failed to create cron service", err)
		os.Exit(1)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}
