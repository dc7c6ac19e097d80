package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/spec-kit/helpdesk-workflow/internal/domain"
)

type fakeEnqueuer struct {
	calls []enqueueCall
	err   error
}

type enqueueCall struct {
	jobType domain.JobType
	payload any
}

func (f *fakeEnqueuer) Enqueue(ctx context.Context, jobType domain.JobType, payload any) (*domain.AsyncJob, error) {
	f.calls = append(f.calls, enqueueCall{jobType: jobType, payload: payload})
	if f.err != nil {
		return nil, f.err
	}
	return &domain.AsyncJob{ID: fmt.Sprintf("job-%d", len(f.calls)), Type: jobType, Status: domain.JobStatusQueued}, nil
}

func newSLAServiceForTest(repo *fakeTicketRepo, jobs *fakeEnqueuer, now time.Time) *SLAService {
	return &SLAService{
		tickets:      repo,
		jobs:         jobs,
		defaultHours: 24,
		now:          func() time.Time { return now },
	}
}

func agedTicket(age time.Duration, status domain.TicketStatus, now time.Time) *domain.Ticket {
	return &domain.Ticket{
		AgentID:       "agent-1",
		IssueCategory: "HARDWARE",
		Status:        status,
		Priority:      domain.TicketPriorityMedium,
		IssueDateTime: now.Add(-age),
	}
}

func TestSLAScan_NoBreaches(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	repo := newFakeTicketRepo()
	repo.seed(t, agedTicket(2*time.Hour, domain.TicketStatusOpen, now))
	jobs := &fakeEnqueuer{}
	svc := newSLAServiceForTest(repo, jobs, now)

	result, err := svc.Scan(context.Background(), 24)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if result.Escalated != 0 || result.Notified {
		t.Fatalf("result = %+v, want zero escalations and no notification", result)
	}
	if len(jobs.calls) != 0 {
		t.Fatalf("enqueue calls = %d, want 0", len(jobs.calls))
	}
}

func TestSLAScan_EscalatesAndNotifiesOnce(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	repo := newFakeTicketRepo()
	breached := repo.seed(t, agedTicket(30*time.Hour, domain.TicketStatusOpen, now))
	repo.seed(t, agedTicket(40*time.Hour, domain.TicketStatusInProgress, now))
	repo.seed(t, agedTicket(2*time.Hour, domain.TicketStatusOpen, now))
	jobs := &fakeEnqueuer{}
	svc := newSLAServiceForTest(repo, jobs, now)

	result, err := svc.Scan(context.Background(), 24)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if result.Escalated != 2 || !result.Notified {
		t.Fatalf("result = %+v, want 2 escalated and notified", result)
	}
	stored, _ := repo.GetByID(context.Background(), breached.ID)
	if stored.Priority != domain.TicketPriorityUrgent {
		t.Fatalf("priority = %s, want URGENT", stored.Priority)
	}

	if len(jobs.calls) != 1 {
		t.Fatalf("enqueue calls = %d, want exactly 1", len(jobs.calls))
	}
	call := jobs.calls[0]
	if call.jobType != domain.JobTypeNotification {
		t.Fatalf("job type = %s, want NOTIFICATION", call.jobType)
	}
	payload, ok := call.payload.(domain.NotificationPayload)
	if !ok {
		t.Fatalf("payload type = %T, want NotificationPayload", call.payload)
	}
	if payload.ReceiverID != nil {
		t.Fatal("escalation notification must be a broadcast")
	}
	if !strings.Contains(payload.Content, "2 breached ticket(s)") || !strings.Contains(payload.Content, "24h") {
		t.Fatalf("content = %q", payload.Content)
	}
}

func TestSLAScan_TerminalTicketsNeverBreach(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	repo := newFakeTicketRepo()
	repo.seed(t, agedTicket(100*time.Hour, domain.TicketStatusResolved, now))
	repo.seed(t, agedTicket(100*time.Hour, domain.TicketStatusRejected, now))
	jobs := &fakeEnqueuer{}
	svc := newSLAServiceForTest(repo, jobs, now)

	result, err := svc.Scan(context.Background(), 24)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if result.Escalated != 0 {
		t.Fatalf("escalated = %d, want 0", result.Escalated)
	}
}

func TestSLAScan_ZeroHoursFallsBackToDefault(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	repo := newFakeTicketRepo()
	// Older than the 24h default but not ancient.
	repo.seed(t, agedTicket(25*time.Hour, domain.TicketStatusOpen, now))
	jobs := &fakeEnqueuer{}
	svc := newSLAServiceForTest(repo, jobs, now)

	result, err := svc.Scan(context.Background(), 0)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if result.Escalated != 1 {
		t.Fatalf("escalated = %d, want 1 via default threshold", result.Escalated)
	}
	if !strings.Contains(jobs.calls[0].payload.(domain.NotificationPayload).Content, "24h") {
		t.Fatal("notification content must carry the effective threshold")
	}
}

func TestSLAScan_RerunNotifiesAgain(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	repo := newFakeTicketRepo()
	repo.seed(t, agedTicket(48*time.Hour, domain.TicketStatusOpen, now))
	jobs := &fakeEnqueuer{}
	svc := newSLAServiceForTest(repo, jobs, now)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := svc.Scan(ctx, 24); err != nil {
			t.Fatalf("scan %d: %v", i+1, err)
		}
	}
	if len(jobs.calls) != 2 {
		t.Fatalf("enqueue calls = %d, want one per scan", len(jobs.calls))
	}
}

func TestSLAListBreaches_NoSideEffects(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	repo := newFakeTicketRepo()
	breached := repo.seed(t, agedTicket(48*time.Hour, domain.TicketStatusOpen, now))
	jobs := &fakeEnqueuer{}
	svc := newSLAServiceForTest(repo, jobs, now)

	page, err := svc.ListBreaches(context.Background(), 24, 1, 20)
	if err != nil {
		t.Fatalf("list breaches: %v", err)
	}
	if page.Total != 1 || len(page.Breaches) != 1 {
		t.Fatalf("page = %+v, want one breach", page)
	}
	if len(jobs.calls) != 0 {
		t.Fatal("listing must not enqueue")
	}
	stored, _ := repo.GetByID(context.Background(), breached.ID)
	if stored.Priority != domain.TicketPriorityMedium {
		t.Fatal("listing must not escalate priority")
	}
}
