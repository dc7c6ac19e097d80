package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"time"

	"github.com/spec-kit/helpdesk-workflow/internal/domain"
)

// CSVRenderer renders a metrics workbook as CSV, the format report consumers
// download and open in a spreadsheet.
type CSVRenderer struct{}

// NewCSVRenderer constructs a renderer.
func NewCSVRenderer() *CSVRenderer {
	return &CSVRenderer{}
}

// Render produces the workbook buffer for the metrics.
func (r *CSVRenderer) Render(m *Metrics) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)

	rows := [][]string{
		{"agent_id", m.AgentID},
		{"period", m.Period},
		{"generated_at", m.GeneratedAt.Format(time.RFC3339)},
		{"total_tickets", fmt.Sprint(m.Total)},
		{"resolved", fmt.Sprint(m.Resolved)},
		{"rejected", fmt.Sprint(m.Rejected)},
		{"avg_resolution_hours", fmt.Sprintf("%.2f", m.AvgResolutionHours)},
		{},
		{"status", "count"},
	}
	for _, status := range sortedStatusKeys(m.ByStatus) {
		rows = append(rows, []string{string(status), fmt.Sprint(m.ByStatus[status])})
	}
	rows = append(rows, []string{}, []string{"priority", "count"})
	for _, priority := range sortedPriorityKeys(m.ByPriority) {
		rows = append(rows, []string{string(priority), fmt.Sprint(m.ByPriority[priority])})
	}

	for _, row := range rows {
		if len(row) == 0 {
			row = []string{""}
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func sortedStatusKeys(m map[domain.TicketStatus]int) []domain.TicketStatus {
	keys := make([]domain.TicketStatus, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func sortedPriorityKeys(m map[domain.TicketPriority]int) []domain.TicketPriority {
	keys := make([]domain.TicketPriority, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
