package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-workflow/internal/events"
)

// NotificationService logs domain events as they are published. Real-time
// delivery to supervisor dashboards is handled by an external broadcast
// transport; this subscriber is the audit trail.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	return &NotificationService{dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleEvent("TicketCreated"))
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleEvent("TicketStatusChanged"))
	n.dispatcher.Subscribe(events.EventSLAEscalated, n.handleEvent("SLAEscalated"))
	n.dispatcher.Subscribe(events.EventJobCompleted, n.handleEvent("JobCompleted"))
	n.dispatcher.Subscribe(events.EventJobFailed, n.handleEvent("JobFailed"))
}

func (n *NotificationService) handleEvent(name string) events.EventHandler {
	return func(ctx context.Context, event events.Event) error {
		n.logger.Info(name, zap.String("event_id", event.ID), zap.Any("payload", event.Payload))
		return nil
	}
}
