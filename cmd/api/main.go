package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-workflow/internal/api/http"
	"github.com/spec-kit/helpdesk-workflow/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-workflow/internal/auth"
	"github.com/spec-kit/helpdesk-workflow/internal/config"
	"github.com/spec-kit/helpdesk-workflow/internal/events"
	"github.com/spec-kit/helpdesk-workflow/internal/observability"
	"github.com/spec-kit/helpdesk-workflow/internal/persistence"
	"github.com/spec-kit/helpdesk-workflow/internal/queue"
	"github.com/spec-kit/helpdesk-workflow/internal/repository"
	"github.com/spec-kit/helpdesk-workflow/internal/service"
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

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	historyRepo := repository.NewTicketHistoryRepository(pool)
	jobRepo := repository.NewJobRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	notifications := service.NewNotificationService(dispatcher, logger)
	notifications.RegisterHandlers()

	transport := queue.NewRedisTransport(redis.Client, cfg.Queue.Name, logger)

	jobService := service.NewJobService(service.JobDependencies{
		JobRepo:   jobRepo,
		Transport: transport,
		Logger:    logger,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  ticketRepo,
		HistoryRepo: historyRepo,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	messageService := service.NewMessageService(messageRepo)
	slaService := service.NewSLAService(service.SLADependencies{
		TicketRepo:   ticketRepo,
		Jobs:         jobService,
		Dispatcher:   dispatcher,
		Logger:       logger,
		DefaultHours: cfg.SLA.DefaultHours,
	})

	metrics := observability.NewMetrics()
	authMiddleware := auth.NewAuthMiddleware(auth.NewTokenVerifier(cfg.Auth.JWTSecret))

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Jobs:           handlers.NewJobsHandler(jobService),
		SLA:            handlers.NewSLAHandler(slaService),
		Messages:       handlers.NewMessagesHandler(messageService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
