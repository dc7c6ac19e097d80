package service

import (
	"context"

	"github.com/spec-kit/helpdesk-workflow/internal/domain"
	"github.com/spec-kit/helpdesk-workflow/internal/repository"
)

// MessageService is the read side of the notification inbox: broadcast
// messages written by the NOTIFICATION job handler, newest first.
type MessageService struct {
	messages repository.MessageRepository
}

// NewMessageService constructs the service.
func NewMessageService(messages repository.MessageRepository) *MessageService {
	return &MessageService{messages: messages}
}

// ListBroadcasts returns broadcast messages with 1-indexed pagination.
func (s *MessageService) ListBroadcasts(ctx context.Context, page, limit int) ([]domain.Message, error) {
	page, limit = normalizePage(page, limit)
	return s.messages.ListBroadcast(ctx, limit, (page-1)*limit)
}
