package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/EnuliForge/kwikorder-engine/internal/api/dto"
	"github.com/EnuliForge/kwikorder-engine/internal/auth"
	"github.com/EnuliForge/kwikorder-engine/internal/domain"
	"github.com/EnuliForge/kwikorder-engine/internal/service"
	apperrors "github.com/EnuliForge/kwikorder-engine/pkg/util/errorutil"
)

// IdempotencyHeader carries the client's retry key for status changes.
const IdempotencyHeader = "X-Idempotency-Key"

// TicketsHandler manages station ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// TransitionStatus POST /api/v1/tickets/:id/status. A station may only move tickets
// of the stream its token was issued for.
func (h *TicketsHandler) TransitionStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("station required")
	}
	var req dto.TransitionStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	target, err := domain.ParseTargetStatus(req.To)
	if err != nil {
		return apperrors.NewValidationError("invalid target status", map[string]any{"to": req.To})
	}

	ticket, err := h.service.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	if ticket.Stream != principal.Stream {
		return apperrors.NewForbidden("ticket belongs to another stream")
	}

	out, err := h.service.TransitionStatus(c.UserContext(), ticket.ID, target, c.Get(IdempotencyHeader))
	if err != nil {
		return err
	}

	resp := dto.TransitionStatusResponse{
		OK:      true,
		Ticket:  ticketResponse(out.Ticket),
		Applied: out.Applied,
	}
	if out.Event != nil {
		resp.EventID = &out.Event.ID
	}
	return c.JSON(resp)
}

// GetTicket GET /api/v1/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.service.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true, "ticket": ticketResponse(ticket)})
}

// ListEvents GET /api/v1/tickets/:id/events.
func (h *TicketsHandler) ListEvents(c *fiber.Ctx) error {
	records, err := h.service.ListEvents(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.EventResponse, 0, len(records))
	for _, rec := range records {
		items = append(items, eventResponse(rec))
	}
	return c.JSON(fiber.Map{"ok": true, "events": items})
}
