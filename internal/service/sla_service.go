package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-workflow/internal/domain"
	"github.com/spec-kit/helpdesk-workflow/internal/events"
	"github.com/spec-kit/helpdesk-workflow/internal/repository"
)

// JobEnqueuer is the slice of the job producer the scanner needs.
type JobEnqueuer interface {
	Enqueue(ctx context.Context, jobType domain.JobType, payload any) (*domain.AsyncJob, error)
}

// SLAService scans tickets for age violations, escalates their priority and
// notifies supervisors through the job queue. It runs on demand with no
// cooldown state: re-running while the same tickets remain unresolved
// re-escalates (harmless, the priority write is idempotent) and re-notifies
// (a fresh NOTIFICATION job every time).
type SLAService struct {
	tickets      repository.TicketRepository
	jobs         JobEnqueuer
	dispatcher   events.Dispatcher
	logger       *zap.Logger
	defaultHours int
	now          func() time.Time
}

// SLADependencies bundles collaborators for the SLA service.
type SLADependencies struct {
	TicketRepo   repository.TicketRepository
	Jobs         JobEnqueuer
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	DefaultHours int
	Now          func() time.Time
}

// ScanResult summarizes one scan invocation.
type ScanResult struct {
	Escalated int
	Notified  bool
	TicketIDs []string
}

// BreachPage is a paginated read-only view of currently breaching tickets.
type BreachPage struct {
	Hours       int
	Threshold   time.Time
	Total       int
	Pages       int
	CurrentPage int
	Breaches    []domain.Ticket
}

// NewSLAService constructs the service.
func NewSLAService(deps SLADependencies) *SLAService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	hours := deps.DefaultHours
	if hours < 1 {
		hours = 24
	}
	return &SLAService{
		tickets:      deps.TicketRepo,
		jobs:         deps.Jobs,
		dispatcher:   deps.Dispatcher,
		logger:       deps.Logger,
		defaultHours: hours,
		now:          now,
	}
}

// Scan finds every non-terminal ticket older than the threshold, bulk-sets
// its priority to URGENT and enqueues a single broadcast NOTIFICATION job.
// The escalation write and the enqueue are not transactional: if the enqueue
// fails after the bulk write, priorities stay raised and no notification goes
// out.
func (s *SLAService) Scan(ctx context.Context, hours int) (*ScanResult, error) {
	hours = s.normalizeHours(hours)
	cutoff := s.now().Add(-time.Duration(hours) * time.Hour)

	total, err := s.tickets.CountBreaching(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return &ScanResult{Escalated: 0, Notified: false}, nil
	}

	breaches, err := s.tickets.ListBreaching(ctx, cutoff, total, 0)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(breaches))
	for _, ticket := range breaches {
		ids = append(ids, ticket.ID)
	}

	if err := s.tickets.BulkSetPriority(ctx, ids, domain.TicketPriorityUrgent); err != nil {
		return nil, err
	}

	content := fmt.Sprintf("SLA automation escalated %d breached ticket(s) older than %dh", len(ids), hours)
	if _, err := s.jobs.Enqueue(ctx, domain.JobTypeNotification, domain.NotificationPayload{
		Content: content,
	}); err != nil {
		// Priorities are already escalated at this point; there is no
		// rollback path for the bulk write.
		if s.logger != nil {
			s.logger.Error("sla notification enqueue failed after escalation",
				zap.Int("escalated", len(ids)), zap.Error(err))
		}
		return nil, err
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			Type:      events.EventSLAEscalated,
			Timestamp: s.now(),
			Payload:   events.SLAEscalatedPayload{Hours: hours, TicketIDs: ids},
		})
	}

	return &ScanResult{Escalated: len(ids), Notified: true, TicketIDs: ids}, nil
}

// ListBreaches returns the current breach set without side effects.
func (s *SLAService) ListBreaches(ctx context.Context, hours, page, limit int) (*BreachPage, error) {
	hours = s.normalizeHours(hours)
	page, limit = normalizePage(page, limit)
	cutoff := s.now().Add(-time.Duration(hours) * time.Hour)

	total, err := s.tickets.CountBreaching(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	breaches, err := s.tickets.ListBreaching(ctx, cutoff, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	return &BreachPage{
		Hours:       hours,
		Threshold:   cutoff,
		Total:       total,
		Pages:       pageCount(total, limit),
		CurrentPage: page,
		Breaches:    breaches,
	}, nil
}

func (s *SLAService) normalizeHours(hours int) int {
	if hours < 1 {
		return s.defaultHours
	}
	return hours
}
