package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/intercom-bridge/internal/api/dto"
	"github.com/spec-kit/intercom-bridge/internal/repository"
	"github.com/spec-kit/intercom-bridge/internal/service"
	apperrors "github.com/spec-kit/intercom-bridge/pkg/util"
)

// AdminHandler exposes the operations surface: sync sweep, status
// census, retention cleanup and ticket listing.
type AdminHandler struct {
	sync          *service.SyncService
	tickets       repository.TicketRepository
	retentionDays int
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(syncService *service.SyncService, tickets repository.TicketRepository, retentionDays int) *AdminHandler {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	return &AdminHandler{sync: syncService, tickets: tickets, retentionDays: retentionDays}
}

// Sync POST /admin/sync.
func (h *AdminHandler) Sync(c *fiber.Ctx) error {
	posted, err := h.sync.SyncOpen(c.UserContext())
	if err != nil {
		return apperrors.NewRemoteFailure("intercom", err)
	}
	return c.JSON(fiber.Map{"data": dto.SyncResponse{Posted: posted}})
}

// Status GET /admin/status.
func (h *AdminHandler) Status(c *fiber.Ctx) error {
	summary, err := h.sync.Status(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": summary})
}

// Cleanup POST /admin/cleanup.
func (h *AdminHandler) Cleanup(c *fiber.Ctx) error {
	days := h.retentionDays
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return apperrors.NewValidationError("days must be a positive integer", nil)
		}
		days = parsed
	}
	removed, err := h.sync.Cleanup(c.UserContext(), days)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.CleanupResponse{Days: days, Removed: removed}})
}

// ListTickets GET /admin/tickets.
func (h *AdminHandler) ListTickets(c *fiber.Ctx) error {
	tickets, err := h.tickets.ListAll(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for _, t := range tickets {
		items = append(items, dto.FromTicket(t))
	}
	return c.JSON(fiber.Map{"data": items})
}
