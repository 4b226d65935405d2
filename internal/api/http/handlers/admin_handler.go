package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/errorutil"
)

// AdminHandler exposes the admin directory endpoints.
type AdminHandler struct {
	service *service.AdminService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{service: adminService}
}

// ListUsers GET /api/admin/users.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.service.ListUsers(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.DirectoryUserResponse, 0, len(users))
	for i := range users {
		items = append(items, directoryUser(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ToggleBlock PATCH /api/admin/block.
func (h *AdminHandler) ToggleBlock(c *fiber.Ctx) error {
	var req dto.BlockRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.UserID == "" {
		return apperrors.NewValidationError("user_id required", nil)
	}
	user, err := h.service.ToggleBlock(c.Context(), req.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userSummary(user)})
}
