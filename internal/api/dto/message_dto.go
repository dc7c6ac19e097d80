package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-workflow/internal/domain"
)

// MessageResponse represents one inbox message.
type MessageResponse struct {
	ID         string    `json:"id"`
	SenderID   *string   `json:"sender_id,omitempty"`
	ReceiverID *string   `json:"receiver_id,omitempty"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// FromMessage maps a domain message to its response shape.
func FromMessage(m *domain.Message) MessageResponse {
	return MessageResponse{
		ID:         m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Content:    m.Content,
		CreatedAt:  m.CreatedAt,
	}
}
