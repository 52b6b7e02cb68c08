package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/intercom-bridge/internal/api/dto"
	"github.com/spec-kit/intercom-bridge/internal/domain"
	"github.com/spec-kit/intercom-bridge/internal/service"
	apperrors "github.com/spec-kit/intercom-bridge/pkg/util"
)

// InteractionsHandler receives display-surface component interactions
// (button clicks, modal submissions) and dispatches them.
type InteractionsHandler struct {
	quickReplies *service.QuickReplyService
}

// NewInteractionsHandler constructs the handler.
func NewInteractionsHandler(quickReplies *service.QuickReplyService) *InteractionsHandler {
	return &InteractionsHandler{quickReplies: quickReplies}
}

// Handle POST /interactions.
func (h *InteractionsHandler) Handle(c *fiber.Ctx) error {
	var req dto.InteractionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.CustomID == "" {
		return apperrors.NewValidationError("custom_id required", nil)
	}

	action, err := domain.DecodeAction(req.CustomID)
	if err != nil {
		return apperrors.NewValidationError("malformed action identifier", map[string]any{"custom_id": req.CustomID})
	}

	result, err := h.quickReplies.Dispatch(c.UserContext(), action, req.Text)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": result})
}
