package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/EnuliForge/kwikorder-engine/internal/api/dto"
	"github.com/EnuliForge/kwikorder-engine/internal/domain"
	"github.com/EnuliForge/kwikorder-engine/internal/service"
	apperrors "github.com/EnuliForge/kwikorder-engine/pkg/util/errorutil"
)

// OrdersHandler exposes order intake and lookup.
type OrdersHandler struct {
	service *service.OrderService
}

// NewOrdersHandler constructs handler.
func NewOrdersHandler(orderService *service.OrderService) *OrdersHandler {
	return &OrdersHandler{service: orderService}
}

// CreateOrder POST /api/v1/orders.
func (h *OrdersHandler) CreateOrder(c *fiber.Ctx) error {
	var req dto.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.OrderCreateInput{
		TableNumber: req.TableNumber,
		Streams:     make([]domain.Stream, 0, len(req.Streams)),
		Items:       make([]service.OrderItemInput, 0, len(req.Items)),
	}
	for _, stream := range req.Streams {
		input.Streams = append(input.Streams, domain.Stream(stream))
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, service.OrderItemInput{
			Stream:         domain.Stream(item.Stream),
			SKU:            item.SKU,
			Name:           item.Name,
			Qty:            item.Qty,
			UnitPriceCents: item.UnitPriceCents,
			Notes:          item.Notes,
			Modifiers:      item.Modifiers,
		})
	}

	order, err := h.service.CreateOrder(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "order": orderResponse(order)})
}

// GetOrder GET /api/v1/orders/:code.
func (h *OrdersHandler) GetOrder(c *fiber.Ctx) error {
	order, err := h.service.GetOrderByCode(c.UserContext(), c.Params("code"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true, "order": orderResponse(order)})
}
