package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/intercom-bridge/internal/api/http"
	"github.com/spec-kit/intercom-bridge/internal/api/http/handlers"
	"github.com/spec-kit/intercom-bridge/internal/auth"
	"github.com/spec-kit/intercom-bridge/internal/config"
	"github.com/spec-kit/intercom-bridge/internal/display"
	"github.com/spec-kit/intercom-bridge/internal/events"
	"github.com/spec-kit/intercom-bridge/internal/intercom"
	"github.com/spec-kit/intercom-bridge/internal/observability"
	"github.com/spec-kit/intercom-bridge/internal/persistence"
	"github.com/spec-kit/intercom-bridge/internal/repository"
	"github.com/spec-kit/intercom-bridge/internal/service"
	"github.com/spec-kit/intercom-bridge/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	quickReplies, err := config.LoadQuickReplies()
	if err != nil {
		logger.Fatal("failed to load quick replies", zap.Error(err))
	}

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

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()

	var tickets repository.TicketRepository = repository.NewTicketRepository(pg.PoolHandle())
	tickets = repository.NewCachedTicketRepository(tickets, redis.Client, cfg.Redis.CacheTTL(), logger)

	intercomClient := intercom.NewClient(cfg.Intercom, cfg.Sync.PerPage, logger)
	surface := display.NewDiscordSurface(cfg.Discord, logger)

	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notify)
	worker.StartNotificationWorker(notificationService)

	reconciler := service.NewReconciler(service.ReconcilerDependencies{
		Tickets:    tickets,
		Client:     intercomClient,
		Surface:    surface,
		Replies:    quickReplies,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	quickReplyService := service.NewQuickReplyService(tickets, intercomClient, surface, quickReplies, dispatcher, logger)
	syncService := service.NewSyncService(tickets, intercomClient, reconciler, cfg.Sync.BatchSize, cfg.Sync.BatchDelay(), logger)

	retention := worker.NewRetentionWorker(syncService, cfg.Retention.Days, cfg.Retention.Interval(), logger)
	retention.Start(ctx)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewMiddleware(tokens)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Webhook:        handlers.NewWebhookHandler(reconciler, cfg.Intercom.WebhookSecret, metrics, logger),
		Interactions:   handlers.NewInteractionsHandler(quickReplyService),
		Admin:          handlers.NewAdminHandler(syncService, tickets, cfg.Retention.Days),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)
	cancel()

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
