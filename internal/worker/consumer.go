package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-workflow/internal/config"
	"github.com/spec-kit/helpdesk-workflow/internal/domain"
	"github.com/spec-kit/helpdesk-workflow/internal/events"
	"github.com/spec-kit/helpdesk-workflow/internal/observability"
	"github.com/spec-kit/helpdesk-workflow/internal/queue"
	"github.com/spec-kit/helpdesk-workflow/internal/report"
	"github.com/spec-kit/helpdesk-workflow/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-workflow/pkg/util"
)

// ReportBuilder computes the metrics a report is rendered from.
type ReportBuilder interface {
	Build(ctx context.Context, agentID, period string) (*report.Metrics, error)
}

// ReportRenderer turns metrics into a workbook buffer.
type ReportRenderer interface {
	Render(m *report.Metrics) ([]byte, error)
}

// ObjectStore persists a rendered report to a downloadable location.
type ObjectStore interface {
	Upload(ctx context.Context, objectName string, data []byte, contentType string) (string, error)
}

// Mailer delivers a report by email.
type Mailer interface {
	Send(ctx context.Context, to, subject string, body []byte, attachmentName string, attachment []byte) error
}

// Consumer long-polls the queue transport and dispatches jobs to per-type
// handlers. Each consumer runs one sequential loop; horizontal scaling is
// more consumers, and the transport's visibility timeout is the only guard
// against duplicate processing across them (at-least-once delivery).
type Consumer struct {
	transport  queue.Transport
	jobs       repository.JobRepository
	messages   repository.MessageRepository
	builder    ReportBuilder
	renderer   ReportRenderer
	store      ObjectStore
	mailer     Mailer
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	cfg        config.QueueConfig
}

// ConsumerDependencies bundles collaborators for the consumer.
type ConsumerDependencies struct {
	Transport   queue.Transport
	JobRepo     repository.JobRepository
	MessageRepo repository.MessageRepository
	Builder     ReportBuilder
	Renderer    ReportRenderer
	Store       ObjectStore
	Mailer      Mailer
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
	Queue       config.QueueConfig
}

// NewConsumer constructs the consumer.
func NewConsumer(deps ConsumerDependencies) *Consumer {
	return &Consumer{
		transport:  deps.Transport,
		jobs:       deps.JobRepo,
		messages:   deps.MessageRepo,
		builder:    deps.Builder,
		renderer:   deps.Renderer,
		store:      deps.Store,
		mailer:     deps.Mailer,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		cfg:        deps.Queue,
	}
}

// Run polls until the context is canceled. Messages within a batch are
// processed one at a time.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("job consumer started",
		zap.Int("batch_size", c.cfg.BatchSize),
		zap.Duration("wait", c.cfg.Wait()),
		zap.Duration("visibility", c.cfg.Visibility()))

	for {
		if err := ctx.Err(); err != nil {
			c.logger.Info("job consumer stopping")
			return err
		}
		msgs, err := c.transport.Receive(ctx, c.cfg.BatchSize, c.cfg.Wait(), c.cfg.Visibility())
		if err != nil {
			if errors.Is(err, context.Canceled) {
				continue
			}
			c.logger.Error("queue receive failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		for _, msg := range msgs {
			c.process(ctx, msg)
		}
	}
}

// process runs one message through its handler. Success acknowledges the
// message; failure records the error and leaves the message to reappear
// after the visibility timeout, which is the system's only retry mechanism.
// At the attempts ceiling the job is parked in FAILED_PERMANENT and the
// message is acknowledged so it stops circulating.
func (c *Consumer) process(ctx context.Context, msg queue.Message) {
	jobID := msg.Envelope.JobID
	logger := c.logger.With(zap.String("job_id", jobID), zap.String("type", string(msg.Envelope.Type)))

	job, err := c.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Should not happen: the record is written before the message is
			// published. Skip and let the message age out.
			logger.Warn("received message with no backing job record")
			return
		}
		logger.Error("job lookup failed", zap.Error(err))
		return
	}

	attempts, err := c.jobs.MarkProcessing(ctx, job.ID)
	if err != nil {
		logger.Error("failed to mark job processing", zap.Error(err))
		return
	}
	logger.Info("processing job", zap.Int("attempt", attempts))

	result, handlerErr := c.dispatch(ctx, job)
	if handlerErr == nil {
		if err := c.jobs.MarkCompleted(ctx, job.ID, result); err != nil {
			logger.Error("failed to record job completion", zap.Error(err))
			return
		}
		if err := c.transport.Delete(ctx, msg); err != nil {
			logger.Error("failed to delete acknowledged message", zap.Error(err))
		}
		c.recordOutcome(ctx, job, attempts, "")
		logger.Info("job completed", zap.Int("attempts", attempts))
		return
	}

	if c.cfg.MaxAttempts > 0 && attempts >= c.cfg.MaxAttempts {
		if err := c.jobs.MarkFailedPermanent(ctx, job.ID, handlerErr.Error()); err != nil {
			logger.Error("failed to record permanent failure", zap.Error(err))
			return
		}
		// Acknowledge so the transport stops redelivering a poison message.
		if err := c.transport.Delete(ctx, msg); err != nil {
			logger.Error("failed to delete poison message", zap.Error(err))
		}
		c.recordOutcome(ctx, job, attempts, handlerErr.Error())
		logger.Error("job failed permanently", zap.Int("attempts", attempts), zap.Error(handlerErr))
		return
	}

	if err := c.jobs.MarkFailed(ctx, job.ID, handlerErr.Error()); err != nil {
		logger.Error("failed to record job failure", zap.Error(err))
		return
	}
	// No delete: the message becomes visible again after the visibility
	// timeout and will be redelivered.
	c.recordOutcome(ctx, job, attempts, handlerErr.Error())
	logger.Warn("job failed, awaiting redelivery", zap.Int("attempts", attempts), zap.Error(handlerErr))
}

func (c *Consumer) dispatch(ctx context.Context, job *domain.AsyncJob) (json.RawMessage, error) {
	if !job.Type.IsValid() {
		return nil, apperrors.NewUnsupportedJobType(string(job.Type))
	}
	payload, err := job.DecodePayload()
	if err != nil {
		return nil, err
	}
	switch p := payload.(type) {
	case domain.ExcelExportPayload:
		return c.handleExcelExport(ctx, p)
	case domain.EmailReportPayload:
		return c.handleEmailReport(ctx, p)
	case domain.NotificationPayload:
		return c.handleNotification(ctx, p)
	}
	return nil, apperrors.NewUnsupportedJobType(string(job.Type))
}

func (c *Consumer) handleExcelExport(ctx context.Context, payload domain.ExcelExportPayload) (json.RawMessage, error) {
	metrics, err := c.builder.Build(ctx, payload.AgentID, payload.Period)
	if err != nil {
		return nil, err
	}
	data, err := c.renderer.Render(metrics)
	if err != nil {
		return nil, err
	}
	fileName := reportFileName(payload.AgentID, payload.Period)
	url, err := c.store.Upload(ctx, fileName, data, "text/csv")
	if err != nil {
		return nil, err
	}
	return json.Marshal(domain.ExcelExportResult{
		DownloadURL: url,
		FileName:    fileName,
		AgentID:     payload.AgentID,
		Period:      payload.Period,
	})
}

func (c *Consumer) handleEmailReport(ctx context.Context, payload domain.EmailReportPayload) (json.RawMessage, error) {
	if payload.To == "" {
		return nil, fmt.Errorf("email report requires a recipient")
	}
	metrics, err := c.builder.Build(ctx, payload.AgentID, payload.Period)
	if err != nil {
		return nil, err
	}
	data, err := c.renderer.Render(metrics)
	if err != nil {
		return nil, err
	}
	subject := fmt.Sprintf("Agent performance report: %s", payload.AgentID)
	body := []byte(fmt.Sprintf("Attached is the performance report for agent %s (%s).",
		payload.AgentID, periodLabel(payload.Period)))
	if err := c.mailer.Send(ctx, payload.To, subject, body, reportFileName(payload.AgentID, payload.Period), data); err != nil {
		return nil, err
	}
	return json.Marshal(domain.EmailReportResult{
		SentTo:  payload.To,
		AgentID: payload.AgentID,
		Period:  payload.Period,
	})
}

func (c *Consumer) handleNotification(ctx context.Context, payload domain.NotificationPayload) (json.RawMessage, error) {
	if payload.Content == "" {
		return nil, fmt.Errorf("notification requires content")
	}
	msg := &domain.Message{
		ReceiverID: payload.ReceiverID,
		Content:    payload.Content,
	}
	if err := c.messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	return json.Marshal(domain.NotificationResult{MessageID: msg.ID})
}

func (c *Consumer) recordOutcome(ctx context.Context, job *domain.AsyncJob, attempts int, errMsg string) {
	if c.metrics != nil {
		outcome := "completed"
		if errMsg != "" {
			outcome = "failed"
		}
		c.metrics.RecordJob(string(job.Type), outcome)
		c.logger.Debug("job outcome recorded",
			zap.String("type", string(job.Type)),
			zap.String("outcome", outcome),
			zap.Int64("total", c.metrics.JobCount(string(job.Type), outcome)))
	}
	if c.dispatcher == nil {
		return
	}
	eventType := events.EventJobCompleted
	if errMsg != "" {
		eventType = events.EventJobFailed
	}
	_ = c.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Payload: events.JobOutcomePayload{
			JobID:    job.ID,
			Type:     job.Type,
			Attempts: attempts,
			Error:    errMsg,
		},
	})
}

func reportFileName(agentID, period string) string {
	return fmt.Sprintf("agent-report-%s-%s.csv", agentID, periodLabel(period))
}

func periodLabel(period string) string {
	if period == "" {
		return "all-time"
	}
	return period
}
