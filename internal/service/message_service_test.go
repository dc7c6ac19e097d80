package service

import (
	"context"
	"testing"
	"time"

	"github.com/spec-kit/helpdesk-workflow/internal/domain"
)

type fakeMessageRepo struct {
	broadcasts []domain.Message
	lastLimit  int
	lastOffset int
}

func (r *fakeMessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	r.broadcasts = append(r.broadcasts, *msg)
	return nil
}

func (r *fakeMessageRepo) ListBroadcast(ctx context.Context, limit, offset int) ([]domain.Message, error) {
	r.lastLimit = limit
	r.lastOffset = offset
	if offset >= len(r.broadcasts) {
		return nil, nil
	}
	end := offset + limit
	if end > len(r.broadcasts) {
		end = len(r.broadcasts)
	}
	return r.broadcasts[offset:end], nil
}

func TestListBroadcasts_Pagination(t *testing.T) {
	repo := &fakeMessageRepo{}
	for i := 0; i < 5; i++ {
		repo.broadcasts = append(repo.broadcasts, domain.Message{
			ID:        string(rune('a' + i)),
			Content:   "escalation",
			CreatedAt: time.Now(),
		})
	}
	svc := NewMessageService(repo)

	messages, err := svc.ListBroadcasts(context.Background(), 2, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(messages))
	}
	if repo.lastLimit != 2 || repo.lastOffset != 2 {
		t.Fatalf("limit/offset = %d/%d, want 2/2 for page 2", repo.lastLimit, repo.lastOffset)
	}
}

func TestListBroadcasts_NormalizesPage(t *testing.T) {
	repo := &fakeMessageRepo{broadcasts: []domain.Message{{ID: "m-1", Content: "hi"}}}
	svc := NewMessageService(repo)

	messages, err := svc.ListBroadcasts(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(messages))
	}
	if repo.lastOffset != 0 || repo.lastLimit != 20 {
		t.Fatalf("limit/offset = %d/%d, want defaults 20/0", repo.lastLimit, repo.lastOffset)
	}
}
