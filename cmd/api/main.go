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
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/campus-kds/canteen-backend/api/routes"
	"github.com/campus-kds/canteen-backend/internal/menu"
	"github.com/campus-kds/canteen-backend/internal/orders"
	"github.com/campus-kds/canteen-backend/internal/realtime"
	"github.com/campus-kds/canteen-backend/internal/stats"
	"github.com/campus-kds/canteen-backend/pkg/config"
	"github.com/campus-kds/canteen-backend/pkg/db"
	"github.com/campus-kds/canteen-backend/pkg/logger"
	"github.com/campus-kds/canteen-backend/pkg/metrics"
	"github.com/campus-kds/canteen-backend/pkg/migrate"
	"github.com/campus-kds/canteen-backend/pkg/redis"
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

	orderMetrics := metrics.NewOrderMetrics(prometheus.DefaultRegisterer)

	hub := realtime.NewHub(cfg.Realtime.BufferSize, logg, orderMetrics)
	var events realtime.Broadcaster = hub

	var redisPinger redis.Pinger
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
		redisPinger = redisClient

		bridge := realtime.NewBridge(hub, redisClient, cfg.Realtime.Channel, logg)
		events = bridge
		go func() {
			if err := bridge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logg.Error(ctx, "realtime bridge stopped", err)
			}
		}()
	} else {
		logg.Warn(ctx, "redis not configured, realtime events stay process-local")
	}

	menuRepo := menu.NewRepository(dbClient.DB())
	menuService, err := menu.NewService(menuRepo, events, logg)
	if err != nil {
		logg.Error(ctx, "failed to create menu service", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(dbClient.DB())
	ordersService, err := orders.NewService(ordersRepo, dbClient, menuService, events, logg, orderMetrics)
	if err != nil {
		logg.Error(ctx, "failed to create order service", err)
		os.Exit(1)
	}

	statsService, err := stats.NewService(ordersRepo, menuRepo)
	if err != nil {
		logg.Error(ctx, "failed to create stats service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:  cfg,
			Logger:  logg,
			DB:      dbClient,
			Redis:   redisPinger,
			Hub:     hub,
			Menu:    menuService,
			Orders:  ordersService,
			Stats:   statsService,
			Metrics: promhttp.Handler(),
		}),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}

	logg.Info(ctx, "api server stopped")
}
