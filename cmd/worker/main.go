package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-workflow/internal/config"
	"github.com/spec-kit/helpdesk-workflow/internal/events"
	"github.com/spec-kit/helpdesk-workflow/internal/mailer"
	"github.com/spec-kit/helpdesk-workflow/internal/observability"
	"github.com/spec-kit/helpdesk-workflow/internal/persistence"
	"github.com/spec-kit/helpdesk-workflow/internal/queue"
	"github.com/spec-kit/helpdesk-workflow/internal/report"
	"github.com/spec-kit/helpdesk-workflow/internal/repository"
	"github.com/spec-kit/helpdesk-workflow/internal/service"
	"github.com/spec-kit/helpdesk-workflow/internal/worker"
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

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	jobRepo := repository.NewJobRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)

	store, err := report.NewMinioStore(cfg.Report)
	if err != nil {
		logger.Fatal("failed to init object store", zap.Error(err))
	}
	if store == nil {
		logger.Warn("MINIO_ENDPOINT not set; excel export jobs will fail")
	}
	smtp := mailer.NewSMTPMailer(cfg.SMTP)
	if smtp == nil {
		logger.Warn("SMTP_HOST not set; email report jobs will fail")
	}

	dispatcher := events.NewInMemoryDispatcher()
	notifications := service.NewNotificationService(dispatcher, logger)
	notifications.RegisterHandlers()

	consumer := worker.NewConsumer(worker.ConsumerDependencies{
		Transport:   queue.NewRedisTransport(redis.Client, cfg.Queue.Name, logger),
		JobRepo:     jobRepo,
		MessageRepo: messageRepo,
		Builder:     report.NewBuilder(ticketRepo, nil),
		Renderer:    report.NewCSVRenderer(),
		Store:       store,
		Mailer:      smtp,
		Dispatcher:  dispatcher,
		Metrics:     observability.NewMetrics(),
		Logger:      logger,
		Queue:       cfg.Queue,
	})

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("consumer stopped", zap.Error(err))
	}
}
