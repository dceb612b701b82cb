package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/helmshare/helmshare-backend/api/routes"
	"github.com/helmshare/helmshare-backend/internal/devices"
	"github.com/helmshare/helmshare-backend/internal/notifications"
	"github.com/helmshare/helmshare-backend/internal/preferences"
	"github.com/helmshare/helmshare-backend/pkg/config"
	"github.com/helmshare/helmshare-backend/pkg/db"
	"github.com/helmshare/helmshare-backend/pkg/logger"
	"github.com/helmshare/helmshare-backend/pkg/metrics"
	"github.com/helmshare/helmshare-backend/pkg/migrate"
	"github.com/helmshare/helmshare-backend/pkg/push"
	"github.com/helmshare/helmshare-backend/pkg/redis"
)

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

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pushClient, err := push.NewClient(cfg.Push.APIKey,
		push.WithBaseURL(cfg.Push.BaseURL),
		push.WithTimeout(cfg.Push.SendTimeout),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create push client", err)
		os.Exit(1)
	}

	notificationsRepo := notifications.NewRepository(dbClient.DB())

	notificationsService, err := notifications.NewService(notificationsRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	preferencesService, err := preferences.NewService(preferences.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create preferences service", err)
		os.Exit(1)
	}

	devicesService, err := devices.NewService(devices.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create devices service", err)
		os.Exit(1)
	}

	dispatcher, err := notifications.NewDispatcher(notifications.DispatcherParams{
		Repo:           notificationsRepo,
		Prefs:          preferencesService,
		Tokens:         devicesService,
		Gateway:        pushClient,
		Metrics:        metrics.NewDispatchMetrics(prometheus.DefaultRegisterer),
		Logger:         logg,
		GatewayTimeout: cfg.Push.SendTimeout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create dispatcher", err)
		os.Exit(1)
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
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg, logg,
			dbClient, redisClient,
			notificationsService, preferencesService, devicesService, dispatcher,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
