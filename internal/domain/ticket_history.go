package domain

import "time"

// TicketChangeType captures what changed in a history entry.
type TicketChangeType string

const (
	ChangeTypeStatus   TicketChangeType = "STATUS_CHANGE"
	ChangeTypePriority TicketChangeType = "PRIORITY_CHANGE"
)

// TicketHistory is an immutable audit trail entry written alongside every
// successful ticket mutation. ChangedBy is the authenticated subject that
// requested the change; nil means the change came from automation.
type TicketHistory struct {
	ID         string
	TicketID   string
	ChangedBy  *string
	ChangeType TicketChangeType
	OldValue   string
	NewValue   string
	CreatedAt  time.Time
}
