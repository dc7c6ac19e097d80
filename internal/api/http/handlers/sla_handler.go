package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-workflow/internal/api/dto"
	"github.com/spec-kit/helpdesk-workflow/internal/service"
	apperrors "github.com/spec-kit/helpdesk-workflow/pkg/util"
)

// SLAHandler manages breach scanning endpoints.
type SLAHandler struct {
	service *service.SLAService
}

// NewSLAHandler constructs handler.
func NewSLAHandler(slaService *service.SLAService) *SLAHandler {
	return &SLAHandler{service: slaService}
}

// RunAutomation POST /api/sla/automation. Runs on demand with no cooldown:
// triggering it again while the same tickets remain unresolved sends another
// notification.
func (h *SLAHandler) RunAutomation(c *fiber.Ctx) error {
	var req dto.SLAAutomationRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	if req.Hours < 0 {
		return apperrors.NewValidationError("hours must be at least 1", map[string]any{"hours": req.Hours})
	}

	result, err := h.service.Scan(c.UserContext(), req.Hours)
	if err != nil {
		return err
	}
	return c.JSON(dto.SLAAutomationResponse{
		OK:        true,
		Escalated: result.Escalated,
		Notified:  result.Notified,
		TicketIDs: result.TicketIDs,
	})
}

// ListBreaches GET /api/sla/breaches.
func (h *SLAHandler) ListBreaches(c *fiber.Ctx) error {
	hours := parseInt(c.Query("hours"), 0)
	page, err := h.service.ListBreaches(c.UserContext(), hours,
		parseInt(c.Query("page"), 1), parseInt(c.Query("limit"), 20))
	if err != nil {
		return err
	}
	breaches := make([]dto.TicketResponse, 0, len(page.Breaches))
	for i := range page.Breaches {
		breaches = append(breaches, dto.FromTicket(&page.Breaches[i]))
	}
	return c.JSON(dto.SLABreachesResponse{
		Hours:       page.Hours,
		Threshold:   page.Threshold,
		Total:       page.Total,
		Pages:       page.Pages,
		CurrentPage: page.CurrentPage,
		Breaches:    breaches,
	})
}
