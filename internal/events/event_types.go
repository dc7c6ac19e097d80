package events

import (
	"time"

	"github.com/spec-kit/helpdesk-workflow/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventSLAEscalated        EventType = "sla_escalated"
	EventJobCompleted        EventType = "job_completed"
	EventJobFailed           EventType = "job_failed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketID      string                `json:"ticket_id"`
	AgentID       string                `json:"agent_id"`
	IssueCategory string                `json:"issue_category"`
	Priority      domain.TicketPriority `json:"priority"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	TicketID  string              `json:"ticket_id"`
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// SLAEscalatedPayload payload.
type SLAEscalatedPayload struct {
	Hours     int      `json:"hours"`
	TicketIDs []string `json:"ticket_ids"`
}

// JobOutcomePayload payload for job completion and failure events.
type JobOutcomePayload struct {
	JobID    string         `json:"job_id"`
	Type     domain.JobType `json:"type"`
	Attempts int            `json:"attempts"`
	Error    string         `json:"error,omitempty"`
}
