package dto

import (
	"encoding/json"
	"time"

	"github.com/spec-kit/helpdesk-workflow/internal/domain"
)

// EnqueueJobRequest payload.
type EnqueueJobRequest struct {
	Type    domain.JobType  `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// EnqueueJobResponse acknowledges an accepted job. Acceptance is not a
// guarantee of eventual success; clients poll the job status.
type EnqueueJobResponse struct {
	JobID  string           `json:"jobId"`
	Status domain.JobStatus `json:"status"`
}

// JobResponse represents a full job record.
type JobResponse struct {
	JobID     string           `json:"jobId"`
	Type      domain.JobType   `json:"type"`
	Status    domain.JobStatus `json:"status"`
	Payload   json.RawMessage  `json:"payload,omitempty"`
	Result    json.RawMessage  `json:"result,omitempty"`
	Error     *string          `json:"error,omitempty"`
	Attempts  int              `json:"attempts"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// JobPageResponse is a paginated job listing.
type JobPageResponse struct {
	Total       int           `json:"total"`
	Pages       int           `json:"pages"`
	CurrentPage int           `json:"currentPage"`
	Items       []JobResponse `json:"items"`
}

// FromJob maps a domain job to its response shape.
func FromJob(j *domain.AsyncJob) JobResponse {
	return JobResponse{
		JobID:     j.ID,
		Type:      j.Type,
		Status:    j.Status,
		Payload:   j.Payload,
		Result:    j.Result,
		Error:     j.Error,
		Attempts:  j.Attempts,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}
