package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-workflow/internal/api/dto"
	"github.com/spec-kit/helpdesk-workflow/internal/domain"
	"github.com/spec-kit/helpdesk-workflow/internal/service"
	apperrors "github.com/spec-kit/helpdesk-workflow/pkg/util"
)

// JobsHandler manages async job endpoints.
type JobsHandler struct {
	service *service.JobService
}

// NewJobsHandler constructs handler.
func NewJobsHandler(jobService *service.JobService) *JobsHandler {
	return &JobsHandler{service: jobService}
}

// EnqueueJob POST /api/jobs. Responds 202: the work happens off the request
// path and failure is observable only by polling the job status.
func (h *JobsHandler) EnqueueJob(c *fiber.Ctx) error {
	var req dto.EnqueueJobRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if !req.Type.IsValid() {
		return apperrors.NewValidationError("unknown job type", map[string]any{"type": req.Type})
	}

	job, err := h.service.Enqueue(c.UserContext(), req.Type, req.Payload)
	if err != nil {
		return err
	}
	return c.Status(http.StatusAccepted).JSON(dto.EnqueueJobResponse{
		JobID:  job.ID,
		Status: job.Status,
	})
}

// GetJob GET /api/jobs/:id.
func (h *JobsHandler) GetJob(c *fiber.Ctx) error {
	job, err := h.service.GetJob(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.FromJob(job))
}

// ListJobs GET /api/jobs.
func (h *JobsHandler) ListJobs(c *fiber.Ctx) error {
	input := service.JobListInput{
		Page:  parseInt(c.Query("page"), 1),
		Limit: parseInt(c.Query("limit"), 20),
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status := domain.JobStatus(statusStr)
		if !status.IsValid() {
			return apperrors.NewValidationError("unknown job status", map[string]any{"status": statusStr})
		}
		input.Status = &status
	}
	if typeStr := c.Query("type"); typeStr != "" {
		jobType := domain.JobType(typeStr)
		if !jobType.IsValid() {
			return apperrors.NewValidationError("unknown job type", map[string]any{"type": typeStr})
		}
		input.Type = &jobType
	}

	page, err := h.service.ListJobs(c.UserContext(), input)
	if err != nil {
		return err
	}
	items := make([]dto.JobResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, dto.FromJob(&page.Items[i]))
	}
	return c.JSON(dto.JobPageResponse{
		Total:       page.Total,
		Pages:       page.Pages,
		CurrentPage: page.CurrentPage,
		Items:       items,
	})
}
