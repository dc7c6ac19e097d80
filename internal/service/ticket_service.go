package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-workflow/internal/domain"
	"github.com/spec-kit/helpdesk-workflow/internal/events"
	"github.com/spec-kit/helpdesk-workflow/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-workflow/pkg/util"
)

// TicketService owns the ticket lifecycle: creation and every status
// transition flows through it, regardless of which entry point received the
// request.
type TicketService struct {
	tickets    repository.TicketRepository
	history    repository.TicketHistoryRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	HistoryRepo repository.TicketHistoryRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Now         func() time.Time
}

// TicketCreateInput describes ticket submission. SupervisorID is set when a
// supervisor files the ticket on behalf of the agent, which places the ticket
// directly onto the supervisor-gated lifecycle.
type TicketCreateInput struct {
	AgentID       string
	IssueCategory string
	Description   string
	Priority      domain.TicketPriority
	SupervisorID  *string
}

// TransitionInput carries the requested mutation. Only non-nil fields are
// written. Timing fields are caller-supplied except the two stamped
// automatically on entering RESOLUTION_REQUESTED and RESOLVED. ActorID is the
// authenticated subject recorded in the audit trail; nil means automation.
type TransitionInput struct {
	ActorID               *string
	Status                *domain.TicketStatus
	Priority              *domain.TicketPriority
	StartedAt             *time.Time
	ResolutionRequestedAt *time.Time
	ResolvedAt            *time.Time
	RejectedAt            *time.Time
	RejectionReason       *string
}

// TicketListInput describes listing filters with 1-indexed pagination.
type TicketListInput struct {
	AgentID    *string
	Statuses   []domain.TicketStatus
	Priorities []domain.TicketPriority
	Page       int
	Limit      int
}

// TicketPage is a paginated ticket listing.
type TicketPage struct {
	Total       int
	Pages       int
	CurrentPage int
	Items       []domain.Ticket
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		now:        now,
	}
}

// CreateTicket files a new ticket. Agent submissions start OPEN; supervisor
// submissions start ASSIGNED with supervisor provenance recorded.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	if strings.TrimSpace(input.AgentID) == "" {
		return nil, apperrors.NewValidationError("agent_id required", nil)
	}
	if strings.TrimSpace(input.IssueCategory) == "" {
		return nil, apperrors.NewValidationError("issue_category required", nil)
	}

	ticket := &domain.Ticket{
		AgentID:       input.AgentID,
		IssueCategory: strings.TrimSpace(input.IssueCategory),
		Description:   strings.TrimSpace(input.Description),
		Status:        domain.TicketStatusOpen,
		Priority:      input.Priority,
		IssueDateTime: s.now(),
	}
	if ticket.Priority == "" {
		ticket.Priority = domain.TicketPriorityMedium
	}
	if !ticket.Priority.IsValid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": input.Priority})
	}
	if input.SupervisorID != nil {
		source := domain.AssignedBySupervisor
		ticket.Status = domain.TicketStatusAssigned
		ticket.AssignedBy = &source
		ticket.CreatedBy = input.SupervisorID
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type: events.EventTicketCreated,
		Payload: events.TicketCreatedPayload{
			TicketID:      ticket.ID,
			AgentID:       ticket.AgentID,
			IssueCategory: ticket.IssueCategory,
			Priority:      ticket.Priority,
		},
	})
	return ticket, nil
}

// GetTicket fetches a ticket by identifier.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, err
	}
	return ticket, nil
}

// ListTickets returns a paginated ticket listing.
func (s *TicketService) ListTickets(ctx context.Context, input TicketListInput) (*TicketPage, error) {
	page, limit := normalizePage(input.Page, input.Limit)
	filter := repository.TicketFilter{
		AgentID:    input.AgentID,
		Statuses:   input.Statuses,
		Priorities: input.Priorities,
		Limit:      limit,
		Offset:     (page - 1) * limit,
	}
	total, err := s.tickets.CountWithFilter(ctx, filter)
	if err != nil {
		return nil, err
	}
	items, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &TicketPage{
		Total:       total,
		Pages:       pageCount(total, limit),
		CurrentPage: page,
		Items:       items,
	}, nil
}

// ApplyTransition validates and applies a status mutation. Supervisor-gated
// tickets follow a strict accept/request-resolution/approve cycle;
// self-service tickets may move to any status directly. Terminal tickets
// reject every mutation.
func (s *TicketService) ApplyTransition(ctx context.Context, ticketID string, input TransitionInput) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, err
	}

	priorStatus := ticket.Status
	priorPriority := ticket.Priority
	if priorStatus.IsTerminal() {
		return nil, apperrors.NewInvalidStatusTransition("Finalized ticket cannot transition")
	}

	if input.Status != nil {
		next := *input.Status
		if !next.IsValid() {
			return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": next})
		}
		if err := validateTransition(ticket, next); err != nil {
			return nil, err
		}
		ticket.Status = next
	}
	if input.Priority != nil {
		if !input.Priority.IsValid() {
			return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": *input.Priority})
		}
		ticket.Priority = *input.Priority
	}
	if input.StartedAt != nil {
		ticket.StartedAt = input.StartedAt
	}
	if input.ResolutionRequestedAt != nil {
		ticket.ResolutionRequestedAt = input.ResolutionRequestedAt
	}
	if input.ResolvedAt != nil {
		ticket.ResolvedAt = input.ResolvedAt
	}
	if input.RejectedAt != nil {
		ticket.RejectedAt = input.RejectedAt
	}
	if input.RejectionReason != nil {
		ticket.RejectionReason = input.RejectionReason
	}

	// Entering these states stamps the matching instant unless the caller
	// supplied one explicitly. All other timing fields are caller-owned.
	if ticket.Status == domain.TicketStatusResolutionRequested && priorStatus != ticket.Status && input.ResolutionRequestedAt == nil {
		now := s.now()
		ticket.ResolutionRequestedAt = &now
	}
	if ticket.Status == domain.TicketStatusResolved && priorStatus != ticket.Status && input.ResolvedAt == nil {
		now := s.now()
		ticket.ResolvedAt = &now
	}

	if err := s.tickets.UpdateIfStatus(ctx, ticket, priorStatus); err != nil {
		if errors.Is(err, repository.ErrStatusChanged) {
			return nil, apperrors.NewConflict("ticket was modified concurrently", map[string]any{"ticket_id": ticketID})
		}
		return nil, err
	}

	if ticket.Status != priorStatus {
		s.recordHistory(ctx, ticket.ID, input.ActorID, domain.ChangeTypeStatus,
			string(priorStatus), string(ticket.Status))
		s.publishEvent(ctx, events.Event{
			Type: events.EventTicketStatusChanged,
			Payload: events.TicketStatusChangedPayload{
				TicketID:  ticket.ID,
				OldStatus: priorStatus,
				NewStatus: ticket.Status,
			},
		})
	}
	if ticket.Priority != priorPriority {
		s.recordHistory(ctx, ticket.ID, input.ActorID, domain.ChangeTypePriority,
			string(priorPriority), string(ticket.Priority))
	}
	return ticket, nil
}

// ListHistory returns the ticket's audit trail, oldest entry first.
func (s *TicketService) ListHistory(ctx context.Context, ticketID string, page, limit int) ([]domain.TicketHistory, error) {
	if _, err := s.GetTicket(ctx, ticketID); err != nil {
		return nil, err
	}
	if s.history == nil {
		return []domain.TicketHistory{}, nil
	}
	page, limit = normalizePage(page, limit)
	return s.history.ListByTicket(ctx, ticketID, limit, (page-1)*limit)
}

// recordHistory appends an audit entry. The ticket write has already
// committed; a failed history insert is logged and does not fail the
// transition.
func (s *TicketService) recordHistory(ctx context.Context, ticketID string, actorID *string, changeType domain.TicketChangeType, oldValue, newValue string) {
	if s.history == nil {
		return
	}
	entry := &domain.TicketHistory{
		TicketID:   ticketID,
		ChangedBy:  actorID,
		ChangeType: changeType,
		OldValue:   oldValue,
		NewValue:   newValue,
	}
	if err := s.history.Create(ctx, entry); err != nil && s.logger != nil {
		s.logger.Error("failed to record ticket history",
			zap.String("ticket_id", ticketID), zap.Error(err))
	}
}

// validateTransition enforces the supervisor-gated cycle. Self-service
// tickets may write any status. Note the gated cycle has no terminal
// rejection: sending a gated ticket back always lands on IN_PROGRESS, and
// terminal REJECTED is reachable only for self-service tickets.
func validateTransition(ticket *domain.Ticket, next domain.TicketStatus) error {
	if !ticket.SupervisorGated() {
		return nil
	}
	switch ticket.Status {
	case domain.TicketStatusAssigned:
		if next != domain.TicketStatusInProgress {
			return apperrors.NewInvalidStatusTransition("Assigned supervisor ticket must be accepted first")
		}
	case domain.TicketStatusInProgress:
		if next != domain.TicketStatusResolutionRequested {
			return apperrors.NewInvalidStatusTransition("Supervisor ticket in progress must request resolution first")
		}
	case domain.TicketStatusResolutionRequested:
		if next != domain.TicketStatusResolved && next != domain.TicketStatusInProgress {
			return apperrors.NewInvalidStatusTransition("Awaiting-resolution ticket can only be approved or sent back to in-progress")
		}
	}
	return nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func normalizePage(page, limit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

func pageCount(total, limit int) int {
	if total == 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
