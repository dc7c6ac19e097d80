package domain

import "testing"

func TestSupervisorGated(t *testing.T) {
	source := AssignedBySupervisor
	supervisor := "sup-1"

	cases := []struct {
		name   string
		ticket Ticket
		want   bool
	}{
		{
			name:   "agent self-service",
			ticket: Ticket{Status: TicketStatusInProgress},
			want:   false,
		},
		{
			name:   "supervisor assignment source",
			ticket: Ticket{Status: TicketStatusAssigned, AssignedBy: &source},
			want:   true,
		},
		{
			name:   "supervisor creator past open",
			ticket: Ticket{Status: TicketStatusInProgress, CreatedBy: &supervisor},
			want:   true,
		},
		{
			name:   "supervisor creator still open",
			ticket: Ticket{Status: TicketStatusOpen, CreatedBy: &supervisor},
			want:   false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.ticket.SupervisorGated(); got != tc.want {
				t.Fatalf("SupervisorGated() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestTicketStatusIsTerminal(t *testing.T) {
	for status, want := range map[TicketStatus]bool{
		TicketStatusOpen:                false,
		TicketStatusAssigned:            false,
		TicketStatusInProgress:          false,
		TicketStatusResolutionRequested: false,
		TicketStatusResolved:            true,
		TicketStatusRejected:            true,
	} {
		if got := status.IsTerminal(); got != want {
			t.Fatalf("%s.IsTerminal() = %v, want %v", status, got, want)
		}
	}
}
