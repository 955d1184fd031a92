package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/EnuliForge/kwikorder-engine/internal/api/dto"
	"github.com/EnuliForge/kwikorder-engine/internal/domain"
	"github.com/EnuliForge/kwikorder-engine/internal/service"
	apperrors "github.com/EnuliForge/kwikorder-engine/pkg/util/errorutil"
)

// StationAuthHandler signs stations in.
type StationAuthHandler struct {
	service *service.StationAuthService
}

// NewStationAuthHandler constructs handler.
func NewStationAuthHandler(authService *service.StationAuthService) *StationAuthHandler {
	return &StationAuthHandler{service: authService}
}

// Login POST /auth/station/login.
func (h *StationAuthHandler) Login(c *fiber.Ctx) error {
	var req dto.StationLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Stream == "" || req.PIN == "" {
		return apperrors.NewValidationError("stream and pin required", nil)
	}

	token, exp, err := h.service.Login(c.UserContext(), req.StationID, domain.Stream(req.Stream), req.PIN)
	if err != nil {
		return err
	}
	return c.JSON(dto.StationLoginResponse{OK: true, Token: token, ExpiresAt: exp})
}
