package dto

import "time"

// SLAAutomationRequest payload. Zero hours means the configured default.
type SLAAutomationRequest struct {
	Hours int `json:"hours"`
}

// SLAAutomationResponse summarizes a scan invocation.
type SLAAutomationResponse struct {
	OK        bool     `json:"ok"`
	Escalated int      `json:"escalated"`
	Notified  bool     `json:"notified"`
	TicketIDs []string `json:"ticketIds,omitempty"`
}

// SLABreachesResponse is the read-only breach listing.
type SLABreachesResponse struct {
	Hours       int              `json:"hours"`
	Threshold   time.Time        `json:"threshold"`
	Total       int              `json:"total"`
	Pages       int              `json:"pages"`
	CurrentPage int              `json:"currentPage"`
	Breaches    []TicketResponse `json:"breaches"`
}
