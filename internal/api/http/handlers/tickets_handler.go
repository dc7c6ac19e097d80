package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-workflow/internal/api/dto"
	"github.com/spec-kit/helpdesk-workflow/internal/auth"
	"github.com/spec-kit/helpdesk-workflow/internal/domain"
	"github.com/spec-kit/helpdesk-workflow/internal/service"
	apperrors "github.com/spec-kit/helpdesk-workflow/pkg/util"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /api/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.IssueCategory) == "" {
		return apperrors.NewValidationError("issue_category required", nil)
	}

	input := service.TicketCreateInput{
		AgentID:       req.AgentID,
		IssueCategory: req.IssueCategory,
		Description:   req.Description,
		Priority:      req.Priority,
	}
	switch principal.SubjectType {
	case domain.SubjectTypeAgent:
		// Agents file their own tickets.
		input.AgentID = principal.SubjectID
	case domain.SubjectTypeSupervisor:
		if strings.TrimSpace(req.AgentID) == "" {
			return apperrors.NewValidationError("agent_id required", nil)
		}
		supervisorID := principal.SubjectID
		input.SupervisorID = &supervisorID
	}

	ticket, err := h.service.CreateTicket(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	input := service.TicketListInput{
		Page:  parseInt(c.Query("page"), 1),
		Limit: parseInt(c.Query("limit"), 20),
	}
	if agentID := c.Query("agent_id"); agentID != "" {
		input.AgentID = &agentID
	}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			input.Statuses = append(input.Statuses, domain.TicketStatus(strings.TrimSpace(part)))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			input.Priorities = append(input.Priorities, domain.TicketPriority(strings.TrimSpace(part)))
		}
	}

	page, err := h.service.ListTickets(c.UserContext(), input)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, dto.FromTicket(&page.Items[i]))
	}
	return c.JSON(dto.TicketPageResponse{
		Total:       page.Total,
		Pages:       page.Pages,
		CurrentPage: page.CurrentPage,
		Items:       items,
	})
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.service.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// PatchTicket PATCH /api/tickets/:id.
func (h *TicketsHandler) PatchTicket(c *fiber.Ctx) error {
	var req dto.PatchTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	var actorID *string
	if principal, ok := auth.PrincipalFromContext(c); ok {
		id := principal.SubjectID
		actorID = &id
	}
	input := service.TransitionInput{
		ActorID:               actorID,
		Status:                req.Status,
		Priority:              req.Priority,
		StartedAt:             req.StartedAt,
		ResolutionRequestedAt: req.ResolutionRequestedAt,
		ResolvedAt:            req.ResolvedAt,
		RejectedAt:            req.RejectedAt,
		RejectionReason:       req.RejectionReason,
	}
	if _, err := h.service.ApplyTransition(c.UserContext(), c.Params("id"), input); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true})
}

// ListTicketHistory GET /api/tickets/:id/history.
func (h *TicketsHandler) ListTicketHistory(c *fiber.Ctx) error {
	entries, err := h.service.ListHistory(c.UserContext(), c.Params("id"),
		parseInt(c.Query("page"), 1), parseInt(c.Query("limit"), 50))
	if err != nil {
		return err
	}
	items := make([]dto.TicketHistoryResponse, 0, len(entries))
	for i := range entries {
		items = append(items, dto.FromTicketHistory(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
