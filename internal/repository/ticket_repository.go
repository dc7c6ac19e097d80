package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-workflow/internal/domain"
)

// ErrStatusChanged is returned by UpdateIfStatus when the stored status no
// longer matches the status read during validation (a concurrent writer won).
var ErrStatusChanged = errors.New("ticket status changed concurrently")

// TicketFilter captures listing parameters.
type TicketFilter struct {
	AgentID    *string
	Statuses   []domain.TicketStatus
	Priorities []domain.TicketPriority
	Limit      int
	Offset     int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// UpdateIfStatus writes the ticket's mutable fields only while the stored
	// status still equals expected. Returns ErrStatusChanged on a lost race.
	UpdateIfStatus(ctx context.Context, ticket *domain.Ticket, expected domain.TicketStatus) error
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	CountWithFilter(ctx context.Context, filter TicketFilter) (int, error)
	// ListBreaching returns non-terminal tickets whose issue instant is older
	// than the cutoff.
	ListBreaching(ctx context.Context, cutoff time.Time, limit, offset int) ([]domain.Ticket, error)
	CountBreaching(ctx context.Context, cutoff time.Time) (int, error)
	BulkSetPriority(ctx context.Context, ids []string, priority domain.TicketPriority) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, agent_id, issue_category, description, status, priority, issue_date_time,
               assigned_by, created_by, started_at, resolution_requested_at, resolved_at,
               rejected_at, rejection_reason, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (agent_id, issue_category, description, status, priority, issue_date_time,
                             assigned_by, created_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.AgentID,
		ticket.IssueCategory,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.IssueDateTime,
		ticket.AssignedBy,
		ticket.CreatedBy,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(ticketFields(&ticket)...); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) UpdateIfStatus(ctx context.Context, ticket *domain.Ticket, expected domain.TicketStatus) error {
	const query = `
        UPDATE tickets SET status=$1, priority=$2, started_at=$3, resolution_requested_at=$4,
            resolved_at=$5, rejected_at=$6, rejection_reason=$7, updated_at=NOW()
        WHERE id=$8 AND status=$9`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Status,
		ticket.Priority,
		ticket.StartedAt,
		ticket.ResolutionRequestedAt,
		ticket.ResolvedAt,
		ticket.RejectedAt,
		ticket.RejectionReason,
		ticket.ID,
		expected,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		// The row was read moments ago and tickets are never deleted, so a
		// zero-row update means the status moved underneath us.
		return ErrStatusChanged
	}
	return nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses, args := ticketFilterClauses(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY issue_date_time DESC LIMIT %d OFFSET %d`,
		ticketColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) CountWithFilter(ctx context.Context, filter TicketFilter) (int, error) {
	clauses, args := ticketFilterClauses(filter)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM tickets WHERE %s`, strings.Join(clauses, " AND "))
	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ticketRepository) ListBreaching(ctx context.Context, cutoff time.Time, limit, offset int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`SELECT %s FROM tickets
        WHERE status NOT IN ($1,$2) AND issue_date_time < $3
        ORDER BY issue_date_time ASC LIMIT %d OFFSET %d`, ticketColumns, limit, offset)
	rows, err := r.pool.Query(ctx, query, domain.TicketStatusResolved, domain.TicketStatusRejected, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) CountBreaching(ctx context.Context, cutoff time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM tickets
        WHERE status NOT IN ($1,$2) AND issue_date_time < $3`
	var count int
	err := r.pool.QueryRow(ctx, query, domain.TicketStatusResolved, domain.TicketStatusRejected, cutoff).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ticketRepository) BulkSetPriority(ctx context.Context, ids []string, priority domain.TicketPriority) error {
	if len(ids) == 0 {
		return nil
	}
	const query = `UPDATE tickets SET priority=$1, updated_at=NOW() WHERE id = ANY($2)`
	_, err := r.pool.Exec(ctx, query, priority, ids)
	return err
}

func ticketFilterClauses(filter TicketFilter) ([]string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.AgentID != nil {
		args = append(args, *filter.AgentID)
		clauses = append(clauses, fmt.Sprintf("agent_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	return clauses, args
}

func ticketFields(t *domain.Ticket) []any {
	return []any{
		&t.ID,
		&t.AgentID,
		&t.IssueCategory,
		&t.Description,
		&t.Status,
		&t.Priority,
		&t.IssueDateTime,
		&t.AssignedBy,
		&t.CreatedBy,
		&t.StartedAt,
		&t.ResolutionRequestedAt,
		&t.ResolvedAt,
		&t.RejectedAt,
		&t.RejectionReason,
		&t.CreatedAt,
		&t.UpdatedAt,
	}
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(ticketFields(&ticket)...); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
