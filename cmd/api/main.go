package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/EnuliForge/kwikorder-engine/internal/api/http"
	"github.com/EnuliForge/kwikorder-engine/internal/api/http/handlers"
	"github.com/EnuliForge/kwikorder-engine/internal/auth"
	"github.com/EnuliForge/kwikorder-engine/internal/cache"
	"github.com/EnuliForge/kwikorder-engine/internal/config"
	"github.com/EnuliForge/kwikorder-engine/internal/events"
	"github.com/EnuliForge/kwikorder-engine/internal/lifecycle"
	"github.com/EnuliForge/kwikorder-engine/internal/observability"
	"github.com/EnuliForge/kwikorder-engine/internal/persistence"
	"github.com/EnuliForge/kwikorder-engine/internal/repository"
	"github.com/EnuliForge/kwikorder-engine/internal/service"
	"github.com/EnuliForge/kwikorder-engine/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
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
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	rabbit, err := persistence.NewRabbitMQ(cfg.RabbitMQ, logger)
	if err != nil {
		logger.Fatal("failed to connect rabbitmq", zap.Error(err))
	}
	defer rabbit.Close()

	metrics := observability.NewMetrics("kwikorder")

	pool := pg.PoolHandle()
	tenantID := cfg.App.TenantID
	ticketRepo := repository.NewTicketRepository(pool, tenantID)
	eventRepo := repository.NewEventRepository(pool, tenantID)
	orderRepo := repository.NewOrderRepository(pool, tenantID)
	menuRepo := repository.NewMenuRepository(pool, tenantID)

	orderCache := cache.NewRedisOrderCache(redis.Client, cfg.Redis.CacheTTL())
	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(dispatcher, orderCache, events.NewRedisBroadcaster(redis.Client), logger)
	worker.StartNotificationWorker(notificationService)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		EventRepo:  eventRepo,
		Engine:     lifecycle.NewEngine(),
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	orderService := service.NewOrderService(service.OrderDependencies{
		OrderRepo: orderRepo,
		MenuRepo:  menuRepo,
		Cache:     orderCache,
		Logger:    logger,
	})
	stationAuth := service.NewStationAuthService(cfg.Auth)
	authMiddleware := auth.NewAuthMiddleware(stationAuth.TokenManager())

	var wg sync.WaitGroup
	if cfg.Relay.Enabled && rabbit.Enabled() {
		relay := worker.NewEventRelay(eventRepo, worker.NewAMQPPublisher(rabbit, cfg.RabbitMQ.Exchange), worker.RelayOptions{
			Interval:  cfg.Relay.PollInterval(),
			BatchSize: cfg.Relay.BatchSize,
			Metrics:   metrics,
			Logger:    logger,
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			relay.Run(ctx)
		}()
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
		Immutable:             true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
		"postgres": pg,
		"redis":    redis,
	})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         healthHandler,
		Orders:         handlers.NewOrdersHandler(orderService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		StationAuth:    handlers.NewStationAuthHandler(stationAuth),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
	})

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	cancel()
	wg.Wait()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
