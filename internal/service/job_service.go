package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-workflow/internal/domain"
	"github.com/spec-kit/helpdesk-workflow/internal/queue"
	"github.com/spec-kit/helpdesk-workflow/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-workflow/pkg/util"
)

// JobService is the queue producer plus the read side of job records. The
// ordering Enqueue guarantees is the system's core queue invariant: the
// durable record exists with status QUEUED before the queue message can
// become visible, so a consumer holding a message can always resolve it.
type JobService struct {
	jobs      repository.JobRepository
	transport queue.Transport
	logger    *zap.Logger
}

// JobDependencies bundles collaborators for the job service.
type JobDependencies struct {
	JobRepo   repository.JobRepository
	Transport queue.Transport
	Logger    *zap.Logger
}

// JobListInput describes listing filters with 1-indexed pagination.
type JobListInput struct {
	Status *domain.JobStatus
	Type   *domain.JobType
	Page   int
	Limit  int
}

// JobPage is a paginated job listing.
type JobPage struct {
	Total       int
	Pages       int
	CurrentPage int
	Items       []domain.AsyncJob
}

// NewJobService constructs the service.
func NewJobService(deps JobDependencies) *JobService {
	return &JobService{
		jobs:      deps.JobRepo,
		transport: deps.Transport,
		logger:    deps.Logger,
	}
}

// Enqueue creates the QUEUED record and then publishes the matching message.
// An unreachable transport fails the call before any record is created — a
// QUEUED record with no backing message would otherwise sit forever.
func (s *JobService) Enqueue(ctx context.Context, jobType domain.JobType, payload any) (*domain.AsyncJob, error) {
	if !jobType.IsValid() {
		return nil, apperrors.NewValidationError("unknown job type", map[string]any{"type": jobType})
	}
	if s.transport == nil {
		return nil, apperrors.NewQueueNotConfigured(nil)
	}
	if err := s.transport.Ping(ctx); err != nil {
		return nil, apperrors.NewQueueNotConfigured(err)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal job payload: %w", err)
	}

	job := &domain.AsyncJob{
		ID:      uuid.NewString(),
		Type:    jobType,
		Payload: raw,
		Status:  domain.JobStatusQueued,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}

	if err := s.transport.Send(ctx, queue.Envelope{
		JobID:   job.ID,
		Type:    job.Type,
		Payload: job.Payload,
	}); err != nil {
		// The record is already durable; the job stays QUEUED with no
		// message behind it and is visible to operators via the job listing.
		if s.logger != nil {
			s.logger.Error("queue publish failed after record create",
				zap.String("job_id", job.ID), zap.Error(err))
		}
		return nil, apperrors.NewQueueNotConfigured(err)
	}

	if s.logger != nil {
		s.logger.Info("job enqueued",
			zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
	}
	return job, nil
}

// GetJob fetches a job record by identifier.
func (s *JobService) GetJob(ctx context.Context, jobID string) (*domain.AsyncJob, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewJobNotFound(jobID)
		}
		return nil, err
	}
	return job, nil
}

// ListJobs returns a paginated job listing.
func (s *JobService) ListJobs(ctx context.Context, input JobListInput) (*JobPage, error) {
	page, limit := normalizePage(input.Page, input.Limit)
	filter := repository.JobFilter{
		Status: input.Status,
		Type:   input.Type,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
	total, err := s.jobs.CountWithFilter(ctx, filter)
	if err != nil {
		return nil, err
	}
	items, err := s.jobs.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &JobPage{
		Total:       total,
		Pages:       pageCount(total, limit),
		CurrentPage: page,
		Items:       items,
	}, nil
}
