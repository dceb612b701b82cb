package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/helmshare/helmshare-backend/internal/devices"
	"github.com/helmshare/helmshare-backend/internal/notifications"
	"github.com/helmshare/helmshare-backend/internal/preferences"
	"github.com/helmshare/helmshare-backend/pkg/config"
	"github.com/helmshare/helmshare-backend/pkg/db"
	"github.com/helmshare/helmshare-backend/pkg/events/idempotency"
	"github.com/helmshare/helmshare-backend/pkg/logger"
	"github.com/helmshare/helmshare-backend/pkg/metrics"
	hspubsub "github.com/helmshare/helmshare-backend/pkg/pubsub"
	"github.com/helmshare/helmshare-backend/pkg/push"
	"github.com/helmshare/helmshare-backend/pkg/redis"
)

// The worker consumes charter domain events and dispatches notifications.
// Dispatch metrics are served on HELMSHARE_WORKER_METRICS_ADDR (default :9090).
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logg := logger.New(logger.Options{ServiceName: "worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	pubsubClient, err := hspubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer pubsubClient.Close()

	pushClient, err := push.NewClient(cfg.Push.APIKey,
		push.WithBaseURL(cfg.Push.BaseURL),
		push.WithTimeout(cfg.Push.SendTimeout),
	)
	if err != nil {
		logg.Error(ctx, "failed to create push client", err)
		os.Exit(1)
	}

	preferencesService, err := preferences.NewService(preferences.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(ctx, "failed to create preferences service", err)
		os.Exit(1)
	}

	devicesService, err := devices.NewService(devices.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(ctx, "failed to create devices service", err)
		os.Exit(1)
	}

	dispatcher, err := notifications.NewDispatcher(notifications.DispatcherParams{
		Repo:           notifications.NewRepository(dbClient.DB()),
		Prefs:          preferencesService,
		Tokens:         devicesService,
		Gateway:        pushClient,
		Metrics:        metrics.NewDispatchMetrics(prometheus.DefaultRegisterer),
		Logger:         logg,
		GatewayTimeout: cfg.Push.SendTimeout,
	})
	if err != nil {
		logg.Error(ctx, "failed to create dispatcher", err)
		os.Exit(1)
	}

	idem, err := idempotency.NewManager(redisClient, cfg.Eventing.IdempotencyTTL)
	if err != nil {
		logg.Error(ctx, "failed to create idempotency manager", err)
		os.Exit(1)
	}

	consumer, err := notifications.NewConsumer(pubsubClient.CharterSubscription(), dispatcher, idem, logg)
	if err != nil {
		logg.Error(ctx, "failed to create consumer", err)
		os.Exit(1)
	}

	go serveMetrics(ctx, logg)

	logg.Info(logg.WithField(ctx, "env", cfg.App.Env), "starting notification worker")

	if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
		logg.Error(ctx, "consumer stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "worker shutting down gracefully")
}

func serveMetrics(ctx context.Context, logg *logger.Logger) {
	addr := os.Getenv("HELMSHARE_WORKER_METRICS_ADDR")
	if addr == "" {
		addr = ":9090"
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		_ = server.Close()
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "metrics server stopped unexpectedly", err)
	}
}
