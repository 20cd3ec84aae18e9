package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/maintenance-service/internal/api/http"
	"github.com/spec-kit/maintenance-service/internal/api/http/handlers"
	"github.com/spec-kit/maintenance-service/internal/auth"
	"github.com/spec-kit/maintenance-service/internal/config"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/events"
	"github.com/spec-kit/maintenance-service/internal/observability"
	"github.com/spec-kit/maintenance-service/internal/persistence"
	"github.com/spec-kit/maintenance-service/internal/repository"
	"github.com/spec-kit/maintenance-service/internal/repository/memory"
	"github.com/spec-kit/maintenance-service/internal/service"
	"github.com/spec-kit/maintenance-service/internal/worker"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util/errorutil"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	var store repository.Store
	if cfg.Postgres.UsesPostgres() {
		store = repository.NewPostgresStore(pg.PoolHandle())
	} else {
		store = memory.NewStore()
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	dispatcher := events.NewInMemoryDispatcher()
	var sink *events.RedisStreamSink
	if cfg.Events.RedisStreamEnabled {
		sink = events.NewRedisStreamSink(redis.Client, cfg.Events.RedisStream, cfg.Events.RedisStreamMaxLen)
	}
	worker.StartEventSubscribers(dispatcher, service.NewEventLogService(dispatcher, logger), sink)

	maintenance := service.NewMaintenanceService(service.MaintenanceDependencies{
		Store:      store,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	users := store.Repositories().Users
	authService := service.NewAuthService(*cfg, users)
	if cfg.Seed.Enabled() {
		seedAdmin(ctx, authService, cfg.Seed, logger)
	}
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), users)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(maintenance),
		WorkOrders:     handlers.NewWorkOrdersHandler(maintenance),
		Parts:          handlers.NewPartsHandler(maintenance),
		AuthMiddleware: authMiddleware,
		Gatherer:       registry,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func seedAdmin(ctx context.Context, authService *service.AuthService, seed config.SeedConfig, logger *zap.Logger) {
	_, err := authService.RegisterUser(ctx, "Administrator", seed.AdminEmail, seed.AdminPassword, domain.RoleAdmin)
	switch {
	case err == nil:
		logger.Info("seeded admin account", zap.String("email", seed.AdminEmail))
	case apperrors.HasCode(err, apperrors.CodeConflict):
		logger.Debug("admin account already present", zap.String("email", seed.AdminEmail))
	default:
		var domainErr *apperrors.DomainError
		if errors.As(err, &domainErr) {
			logger.Warn("admin seed rejected", zap.String("code", domainErr.Code), zap.Error(err))
			return
		}
		logger.Error("admin seed failed", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
