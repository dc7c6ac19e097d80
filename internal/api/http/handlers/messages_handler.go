package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-workflow/internal/api/dto"
	"github.com/spec-kit/helpdesk-workflow/internal/service"
)

// MessagesHandler serves the supervisor notification inbox.
type MessagesHandler struct {
	service *service.MessageService
}

// NewMessagesHandler constructs handler.
func NewMessagesHandler(messageService *service.MessageService) *MessagesHandler {
	return &MessagesHandler{service: messageService}
}

// ListMessages GET /api/messages. Broadcast messages only; these are the
// records the NOTIFICATION job handler writes.
func (h *MessagesHandler) ListMessages(c *fiber.Ctx) error {
	messages, err := h.service.ListBroadcasts(c.UserContext(),
		parseInt(c.Query("page"), 1), parseInt(c.Query("limit"), 20))
	if err != nil {
		return err
	}
	items := make([]dto.MessageResponse, 0, len(messages))
	for i := range messages {
		items = append(items, dto.FromMessage(&messages[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}
