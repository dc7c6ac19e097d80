package report

import (
	"context"
	"fmt"
	"time"

	"github.com/spec-kit/helpdesk-workflow/internal/domain"
	"github.com/spec-kit/helpdesk-workflow/internal/repository"
)

// Metrics is the per-agent performance summary a report is rendered from.
type Metrics struct {
	AgentID            string
	Period             string
	GeneratedAt        time.Time
	Total              int
	ByStatus           map[domain.TicketStatus]int
	ByPriority         map[domain.TicketPriority]int
	Resolved           int
	Rejected           int
	AvgResolutionHours float64
}

// Builder computes report metrics from the ticket repository.
type Builder struct {
	tickets repository.TicketRepository
	now     func() time.Time
}

// NewBuilder constructs a metrics builder.
func NewBuilder(tickets repository.TicketRepository, now func() time.Time) *Builder {
	if now == nil {
		now = time.Now
	}
	return &Builder{tickets: tickets, now: now}
}

// Build summarizes the agent's tickets for the period. Period is a
// "YYYY-MM" month label; an empty period covers the agent's full history.
func (b *Builder) Build(ctx context.Context, agentID, period string) (*Metrics, error) {
	var from, to time.Time
	if period != "" {
		start, err := time.Parse("2006-01", period)
		if err != nil {
			return nil, fmt.Errorf("invalid report period %q: %w", period, err)
		}
		from = start
		to = start.AddDate(0, 1, 0)
	}

	filter := repository.TicketFilter{AgentID: &agentID}
	total, err := b.tickets.CountWithFilter(ctx, filter)
	if err != nil {
		return nil, err
	}
	filter.Limit = total
	tickets, err := b.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, err
	}

	m := &Metrics{
		AgentID:     agentID,
		Period:      period,
		GeneratedAt: b.now(),
		ByStatus:    make(map[domain.TicketStatus]int),
		ByPriority:  make(map[domain.TicketPriority]int),
	}

	var resolutionTotal time.Duration
	for _, ticket := range tickets {
		if period != "" && (ticket.IssueDateTime.Before(from) || !ticket.IssueDateTime.Before(to)) {
			continue
		}
		m.Total++
		m.ByStatus[ticket.Status]++
		m.ByPriority[ticket.Priority]++
		switch ticket.Status {
		case domain.TicketStatusResolved:
			m.Resolved++
			if ticket.ResolvedAt != nil {
				resolutionTotal += ticket.ResolvedAt.Sub(ticket.IssueDateTime)
			}
		case domain.TicketStatusRejected:
			m.Rejected++
		}
	}
	if m.Resolved > 0 {
		m.AvgResolutionHours = resolutionTotal.Hours() / float64(m.Resolved)
	}
	return m, nil
}
