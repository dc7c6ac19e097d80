package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-workflow/internal/domain"
)

// JobFilter captures job listing parameters.
type JobFilter struct {
	Status *domain.JobStatus
	Type   *domain.JobType
	Limit  int
	Offset int
}

// JobRepository encapsulates async job persistence. Records are created by
// the producer, mutated by the consumer, and never deleted.
type JobRepository interface {
	Create(ctx context.Context, job *domain.AsyncJob) error
	GetByID(ctx context.Context, id string) (*domain.AsyncJob, error)
	ListWithFilter(ctx context.Context, filter JobFilter) ([]domain.AsyncJob, error)
	CountWithFilter(ctx context.Context, filter JobFilter) (int, error)
	// MarkProcessing flips the record to PROCESSING, increments attempts and
	// clears any prior error, returning the new attempt count.
	MarkProcessing(ctx context.Context, id string) (int, error)
	MarkCompleted(ctx context.Context, id string, result json.RawMessage) error
	MarkFailed(ctx context.Context, id string, jobErr string) error
	MarkFailedPermanent(ctx context.Context, id string, jobErr string) error
}

type jobRepository struct {
	pool *pgxpool.Pool
}

// NewJobRepository instantiates repository.
func NewJobRepository(pool *pgxpool.Pool) JobRepository {
	return &jobRepository{pool: pool}
}

const jobColumns = `id, type, payload, result, error, status, attempts, created_at, updated_at`

func (r *jobRepository) Create(ctx context.Context, job *domain.AsyncJob) error {
	const query = `
        INSERT INTO async_jobs (id, type, payload, status, attempts)
        VALUES ($1,$2,$3,$4,0)
        RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		job.ID,
		job.Type,
		job.Payload,
		job.Status,
	).Scan(&job.CreatedAt, &job.UpdatedAt)
}

func (r *jobRepository) GetByID(ctx context.Context, id string) (*domain.AsyncJob, error) {
	query := `SELECT ` + jobColumns + ` FROM async_jobs WHERE id=$1`
	var job domain.AsyncJob
	if err := r.pool.QueryRow(ctx, query, id).Scan(jobFields(&job)...); err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *jobRepository) ListWithFilter(ctx context.Context, filter JobFilter) ([]domain.AsyncJob, error) {
	clauses, args := jobFilterClauses(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM async_jobs WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		jobColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AsyncJob
	for rows.Next() {
		var job domain.AsyncJob
		if err := rows.Scan(jobFields(&job)...); err != nil {
			return nil, err
		}
		result = append(result, job)
	}
	return result, rows.Err()
}

func (r *jobRepository) CountWithFilter(ctx context.Context, filter JobFilter) (int, error) {
	clauses, args := jobFilterClauses(filter)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM async_jobs WHERE %s`, strings.Join(clauses, " AND "))
	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *jobRepository) MarkProcessing(ctx context.Context, id string) (int, error) {
	const query = `
        UPDATE async_jobs SET status=$1, attempts=attempts+1, error=NULL, updated_at=NOW()
        WHERE id=$2
        RETURNING attempts`
	var attempts int
	if err := r.pool.QueryRow(ctx, query, domain.JobStatusProcessing, id).Scan(&attempts); err != nil {
		return 0, err
	}
	return attempts, nil
}

func (r *jobRepository) MarkCompleted(ctx context.Context, id string, result json.RawMessage) error {
	const query = `
        UPDATE async_jobs SET status=$1, result=$2, updated_at=NOW() WHERE id=$3`
	return r.markOutcome(ctx, query, domain.JobStatusCompleted, result, id)
}

func (r *jobRepository) MarkFailed(ctx context.Context, id string, jobErr string) error {
	const query = `
        UPDATE async_jobs SET status=$1, error=$2, updated_at=NOW() WHERE id=$3`
	return r.markOutcome(ctx, query, domain.JobStatusFailed, jobErr, id)
}

func (r *jobRepository) MarkFailedPermanent(ctx context.Context, id string, jobErr string) error {
	const query = `
        UPDATE async_jobs SET status=$1, error=$2, updated_at=NOW() WHERE id=$3`
	return r.markOutcome(ctx, query, domain.JobStatusFailedPermanent, jobErr, id)
}

func (r *jobRepository) markOutcome(ctx context.Context, query string, status domain.JobStatus, value any, id string) error {
	cmd, err := r.pool.Exec(ctx, query, status, value, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func jobFilterClauses(filter JobFilter) ([]string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Type != nil {
		args = append(args, *filter.Type)
		clauses = append(clauses, fmt.Sprintf("type=$%d", len(args)))
	}
	return clauses, args
}

func jobFields(j *domain.AsyncJob) []any {
	return []any{
		&j.ID,
		&j.Type,
		&j.Payload,
		&j.Result,
		&j.Error,
		&j.Status,
		&j.Attempts,
		&j.CreatedAt,
		&j.UpdatedAt,
	}
}
