package report

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/spec-kit/helpdesk-workflow/internal/domain"
	"github.com/spec-kit/helpdesk-workflow/internal/repository"
)

type stubTicketSource struct {
	tickets []domain.Ticket
}

func (s *stubTicketSource) Create(ctx context.Context, ticket *domain.Ticket) error { return nil }

func (s *stubTicketSource) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	return nil, nil
}

func (s *stubTicketSource) UpdateIfStatus(ctx context.Context, ticket *domain.Ticket, expected domain.TicketStatus) error {
	return nil
}

func (s *stubTicketSource) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for _, ticket := range s.tickets {
		if filter.AgentID != nil && ticket.AgentID != *filter.AgentID {
			continue
		}
		result = append(result, ticket)
	}
	return result, nil
}

func (s *stubTicketSource) CountWithFilter(ctx context.Context, filter repository.TicketFilter) (int, error) {
	items, err := s.ListWithFilter(ctx, filter)
	return len(items), err
}

func (s *stubTicketSource) ListBreaching(ctx context.Context, cutoff time.Time, limit, offset int) ([]domain.Ticket, error) {
	return nil, nil
}

func (s *stubTicketSource) CountBreaching(ctx context.Context, cutoff time.Time) (int, error) {
	return 0, nil
}

func (s *stubTicketSource) BulkSetPriority(ctx context.Context, ids []string, priority domain.TicketPriority) error {
	return nil
}

func resolvedTicket(agentID string, issued time.Time, after time.Duration) domain.Ticket {
	resolved := issued.Add(after)
	return domain.Ticket{
		AgentID:       agentID,
		Status:        domain.TicketStatusResolved,
		Priority:      domain.TicketPriorityMedium,
		IssueDateTime: issued,
		ResolvedAt:    &resolved,
	}
}

func TestBuild_MonthPeriodFiltersTickets(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	inPeriod := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	outOfPeriod := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	source := &stubTicketSource{tickets: []domain.Ticket{
		resolvedTicket("agent-1", inPeriod, 4*time.Hour),
		resolvedTicket("agent-1", outOfPeriod, 2*time.Hour),
		{
			AgentID:       "agent-1",
			Status:        domain.TicketStatusOpen,
			Priority:      domain.TicketPriorityHigh,
			IssueDateTime: inPeriod.Add(time.Hour),
		},
		resolvedTicket("agent-2", inPeriod, time.Hour),
	}}
	builder := NewBuilder(source, func() time.Time { return now })

	m, err := builder.Build(context.Background(), "agent-1", "2026-02")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if m.Total != 2 {
		t.Fatalf("total = %d, want the two February tickets", m.Total)
	}
	if m.Resolved != 1 {
		t.Fatalf("resolved = %d, want 1", m.Resolved)
	}
	if m.ByStatus[domain.TicketStatusOpen] != 1 || m.ByStatus[domain.TicketStatusResolved] != 1 {
		t.Fatalf("byStatus = %v", m.ByStatus)
	}
	if math.Abs(m.AvgResolutionHours-4.0) > 0.001 {
		t.Fatalf("avgResolutionHours = %.3f, want 4", m.AvgResolutionHours)
	}
}

func TestBuild_EmptyPeriodCoversFullHistory(t *testing.T) {
	source := &stubTicketSource{tickets: []domain.Ticket{
		resolvedTicket("agent-1", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), 2*time.Hour),
		resolvedTicket("agent-1", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), 6*time.Hour),
	}}
	builder := NewBuilder(source, nil)

	m, err := builder.Build(context.Background(), "agent-1", "")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if m.Total != 2 {
		t.Fatalf("total = %d, want 2", m.Total)
	}
	if math.Abs(m.AvgResolutionHours-4.0) > 0.001 {
		t.Fatalf("avgResolutionHours = %.3f, want 4", m.AvgResolutionHours)
	}
}

func TestBuild_InvalidPeriodRejected(t *testing.T) {
	builder := NewBuilder(&stubTicketSource{}, nil)

	if _, err := builder.Build(context.Background(), "agent-1", "Feb-2026"); err == nil {
		t.Fatal("expected invalid period error")
	}
}

func TestRender_ContainsSummaryAndSections(t *testing.T) {
	m := &Metrics{
		AgentID:     "agent-1",
		Period:      "2026-02",
		GeneratedAt: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
		Total:       3,
		Resolved:    2,
		Rejected:    1,
		ByStatus: map[domain.TicketStatus]int{
			domain.TicketStatusResolved: 2,
			domain.TicketStatusRejected: 1,
		},
		ByPriority: map[domain.TicketPriority]int{
			domain.TicketPriorityMedium: 3,
		},
		AvgResolutionHours: 5.25,
	}

	data, err := NewCSVRenderer().Render(m)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	out := string(data)
	for _, want := range []string{
		"agent_id,agent-1",
		"period,2026-02",
		"total_tickets,3",
		"avg_resolution_hours,5.25",
		"status,count",
		"RESOLVED,2",
		"priority,count",
		"MEDIUM,3",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("rendered csv missing %q:\n%s", want, out)
		}
	}
}
