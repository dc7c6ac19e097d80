package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-workflow/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	AgentID       string                `json:"agent_id"`
	IssueCategory string                `json:"issue_category"`
	Description   string                `json:"description"`
	Priority      domain.TicketPriority `json:"priority"`
}

// PatchTicketRequest payload. Only present fields are applied.
type PatchTicketRequest struct {
	Status                *domain.TicketStatus   `json:"status"`
	Priority              *domain.TicketPriority `json:"priority"`
	StartedAt             *time.Time             `json:"started_at"`
	ResolutionRequestedAt *time.Time             `json:"resolution_requested_at"`
	ResolvedAt            *time.Time             `json:"resolved_at"`
	RejectedAt            *time.Time             `json:"rejected_at"`
	RejectionReason       *string                `json:"rejection_reason"`
}

// TicketResponse represents a full ticket record.
type TicketResponse struct {
	ID                    string                   `json:"id"`
	AgentID               string                   `json:"agent_id"`
	IssueCategory         string                   `json:"issue_category"`
	Description           string                   `json:"description"`
	Status                domain.TicketStatus      `json:"status"`
	Priority              domain.TicketPriority    `json:"priority"`
	IssueDateTime         time.Time                `json:"issue_date_time"`
	AssignedBy            *domain.AssignmentSource `json:"assigned_by,omitempty"`
	CreatedBy             *string                  `json:"created_by,omitempty"`
	StartedAt             *time.Time               `json:"started_at,omitempty"`
	ResolutionRequestedAt *time.Time               `json:"resolution_requested_at,omitempty"`
	ResolvedAt            *time.Time               `json:"resolved_at,omitempty"`
	RejectedAt            *time.Time               `json:"rejected_at,omitempty"`
	RejectionReason       *string                  `json:"rejection_reason,omitempty"`
	CreatedAt             time.Time                `json:"created_at"`
	UpdatedAt             time.Time                `json:"updated_at"`
}

// TicketHistoryResponse represents one audit trail entry.
type TicketHistoryResponse struct {
	ID         string                  `json:"id"`
	TicketID   string                  `json:"ticket_id"`
	ChangedBy  *string                 `json:"changed_by,omitempty"`
	ChangeType domain.TicketChangeType `json:"change_type"`
	OldValue   string                  `json:"old_value"`
	NewValue   string                  `json:"new_value"`
	CreatedAt  time.Time               `json:"created_at"`
}

// FromTicketHistory maps an audit entry to its response shape.
func FromTicketHistory(h *domain.TicketHistory) TicketHistoryResponse {
	return TicketHistoryResponse{
		ID:         h.ID,
		TicketID:   h.TicketID,
		ChangedBy:  h.ChangedBy,
		ChangeType: h.ChangeType,
		OldValue:   h.OldValue,
		NewValue:   h.NewValue,
		CreatedAt:  h.CreatedAt,
	}
}

// TicketPageResponse is a paginated ticket listing.
type TicketPageResponse struct {
	Total       int              `json:"total"`
	Pages       int              `json:"pages"`
	CurrentPage int              `json:"currentPage"`
	Items       []TicketResponse `json:"items"`
}

// FromTicket maps a domain ticket to its response shape.
func FromTicket(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:                    t.ID,
		AgentID:               t.AgentID,
		IssueCategory:         t.IssueCategory,
		Description:           t.Description,
		Status:                t.Status,
		Priority:              t.Priority,
		IssueDateTime:         t.IssueDateTime,
		AssignedBy:            t.AssignedBy,
		CreatedBy:             t.CreatedBy,
		StartedAt:             t.StartedAt,
		ResolutionRequestedAt: t.ResolutionRequestedAt,
		ResolvedAt:            t.ResolvedAt,
		RejectedAt:            t.RejectedAt,
		RejectionReason:       t.RejectionReason,
		CreatedAt:             t.CreatedAt,
		UpdatedAt:             t.UpdatedAt,
	}
}
