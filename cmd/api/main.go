package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shareit/internal/api"
	"shareit/internal/config"
	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/jobs"
	"shareit/internal/logging"
	"shareit/internal/metrics"
	"shareit/internal/repository"
	"shareit/internal/service"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	db, err := database.NewDB(cfg.Database.Path, logging.Component(logger, "database"))
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	redisClient := initRedis(cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := events.NewEventBus(logging.Component(logger, "events"))
	subscribeMetrics(bus)

	svcLogger := logging.Component(logger, "service")
	services := api.Services{
		Bookings: service.NewBookingService(db, bus, svcLogger),
		Items:    service.NewItemService(db, bus, svcLogger),
		Users:    service.NewUserService(db, svcLogger),
		Requests: service.NewRequestService(db, bus, svcLogger),
	}

	scheduler, err := jobs.NewScheduler(logging.Component(logger, "jobs"))
	if err != nil {
		return err
	}

	quota, err := initQuota(cfg, redisClient, scheduler, logger)
	if err != nil {
		return err
	}

	backup := database.NewBackupService(db, cfg.Database.Path, cfg.Backup, logging.Component(logger, "backup"))
	go backup.Start(ctx)

	startMetrics(ctx, cfg, logger)

	grpcServer, err := initGRPC(cfg, db, scheduler, logger)
	if err != nil {
		return err
	}
	go func() {
		if err := scheduler.Run(ctx); err != nil {
			logger.Error().Err(err).Msg("scheduler shutdown")
		}
	}()

	httpServer := api.NewHTTPServer(cfg.API, cfg.Exports, services, db, quota, logging.Component(logger, "http"))
	return serve(ctx, httpServer, grpcServer, cfg, logger)
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logging.Component(baseLogger, "api-main"), closer, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := repository.Ping(ctx, client); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = client.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return client
}

// initQuota returns nil when the per-user quota is off. Without redis the
// in-memory store is used alone; with redis it serves as the fallback.
func initQuota(cfg *config.Config, client *redis.Client, scheduler *jobs.Scheduler, logger *zerolog.Logger) (api.QuotaChecker, error) {
	if !cfg.API.UserQuota.Enabled {
		return nil, nil
	}
	window, err := cfg.API.UserQuota.WindowDuration()
	if err != nil {
		return nil, fmt.Errorf("user quota window: %w", err)
	}

	memory := repository.NewMemoryQuotaStore()
	err = scheduler.Every("quota-sweep", window, func(context.Context) error {
		if n := memory.Sweep(); n > 0 {
			logger.Debug().Int("removed", n).Msg("quota entries swept")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var store domain.QuotaStore = memory
	if client != nil {
		store = repository.NewFailoverQuotaStore(repository.NewRedisQuotaStore(client), memory, logging.Component(logger, "quota"))
	}
	return service.NewQuotaService(store, cfg.API.UserQuota.Requests, window, logging.Component(logger, "quota")), nil
}

// initGRPC returns nil when the gRPC health endpoint is off.
func initGRPC(cfg *config.Config, db *database.DB, scheduler *jobs.Scheduler, logger *zerolog.Logger) (*api.GRPCServer, error) {
	if !cfg.API.GRPC.Enabled {
		return nil, nil
	}
	srv := api.NewGRPCServer(cfg.API.GRPC, db, logging.Component(logger, "grpc"))
	if err := srv.CheckHealth(context.Background()); err != nil {
		logger.Warn().Err(err).Msg("initial health check failed")
	}
	if err := scheduler.Every("grpc-health", cfg.API.GRPC.CheckDuration(), srv.CheckHealth); err != nil {
		return nil, err
	}
	return srv, nil
}

func subscribeMetrics(bus *events.EventBus) {
	bus.Subscribe(events.EventBookingCreated, func(*events.Event) error {
		metrics.IncBookingCreated()
		return nil
	})
	bus.Subscribe(events.EventBookingApproved, func(*events.Event) error {
		metrics.IncDecision("approved")
		return nil
	})
	bus.Subscribe(events.EventBookingRejected, func(*events.Event) error {
		metrics.IncDecision("rejected")
		return nil
	})
	bus.Subscribe(events.EventCommentAdded, func(*events.Event) error {
		metrics.IncDirectory("comment")
		return nil
	})
	bus.Subscribe(events.EventRequestCreated, func(*events.Event) error {
		metrics.IncDirectory("request")
		return nil
	})
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func serve(ctx context.Context, httpServer *api.HTTPServer, grpcServer *api.GRPCServer, cfg *config.Config, logger *zerolog.Logger) error {
	errCh := make(chan error, 2)
	go func() {
		errCh <- httpServer.Start()
	}()
	if grpcServer != nil {
		go func() {
			errCh <- grpcServer.Start()
		}()
		logger.Info().Int("grpc_port", cfg.API.GRPC.Port).Msg("gRPC health server started")
	}

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Msg("API server started")

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("server stopped")
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.API.HTTP.ShutdownDuration())
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	if grpcServer != nil {
		grpcServer.Shutdown(shutdownCtx)
	}

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
