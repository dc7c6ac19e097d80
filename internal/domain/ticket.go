package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen                TicketStatus = "OPEN"
	TicketStatusAssigned            TicketStatus = "ASSIGNED"
	TicketStatusInProgress          TicketStatus = "IN_PROGRESS"
	TicketStatusResolutionRequested TicketStatus = "RESOLUTION_REQUESTED"
	TicketStatusResolved            TicketStatus = "RESOLVED"
	TicketStatusRejected            TicketStatus = "REJECTED"
)

// IsTerminal reports whether no further status mutation is permitted.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusResolved || s == TicketStatusRejected
}

// IsValid reports whether the value is a known status.
func (s TicketStatus) IsValid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusAssigned, TicketStatusInProgress,
		TicketStatusResolutionRequested, TicketStatusResolved, TicketStatusRejected:
		return true
	}
	return false
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// IsValid reports whether the value is a known priority.
func (p TicketPriority) IsValid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// AssignmentSource records who placed the ticket onto an agent's queue.
type AssignmentSource string

const (
	AssignedBySupervisor AssignmentSource = "SUPERVISOR"
	AssignedBySystem     AssignmentSource = "SYSTEM"
)

// Ticket is the aggregate for reported operational issues. Tickets are audit
// records: they are never deleted, and once terminal they never change status.
type Ticket struct {
	ID                    string
	AgentID               string
	IssueCategory         string
	Description           string
	Status                TicketStatus
	Priority              TicketPriority
	IssueDateTime         time.Time
	AssignedBy            *AssignmentSource
	CreatedBy             *string
	StartedAt             *time.Time
	ResolutionRequestedAt *time.Time
	ResolvedAt            *time.Time
	RejectedAt            *time.Time
	RejectionReason       *string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// SupervisorGated reports whether the ticket's lifecycle is constrained by
// approval steps. A ticket is gated when a supervisor assigned it, or when a
// supervisor created it and it has already left OPEN.
func (t *Ticket) SupervisorGated() bool {
	if t.AssignedBy != nil && *t.AssignedBy == AssignedBySupervisor {
		return true
	}
	return t.CreatedBy != nil && t.Status != TicketStatusOpen
}
