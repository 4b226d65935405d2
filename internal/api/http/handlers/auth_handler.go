package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/errorutil"
)

// AuthHandler manages registration, login and identity endpoints.
type AuthHandler struct {
	authService  *service.AuthService
	adminService *service.AdminService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, adminService *service.AdminService) *AuthHandler {
	return &AuthHandler{authService: authService, adminService: adminService}
}

// Register POST /api/auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.authService.Register(c.Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": userSummary(user)})
}

// Login POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, token, exp, err := h.authService.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AuthResponse{
		Token:     token,
		ExpiresAt: exp,
		User:      userSummary(user),
	}})
}

// Me GET /api/auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	return c.JSON(fiber.Map{"data": userSummary(principal.User)})
}

// Heads GET /api/auth/heads serves the admin assignment picker.
func (h *AuthHandler) Heads(c *fiber.Ctx) error {
	heads, err := h.adminService.ListHeads(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.DirectoryUserResponse, 0, len(heads))
	for i := range heads {
		items = append(items, directoryUser(&heads[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func userSummary(user *domain.User) dto.UserSummary {
	return dto.UserSummary{
		ID:         user.ID,
		Name:       user.Name,
		Email:      user.Email,
		Role:       user.Role,
		IsBlocked:  user.IsBlocked,
		Department: user.Department,
		CreatedAt:  user.CreatedAt,
	}
}

func directoryUser(entry *service.UserWithStats) dto.DirectoryUserResponse {
	resp := dto.DirectoryUserResponse{
		UserSummary:  userSummary(&entry.User),
		TotalQueries: entry.TotalQueries,
	}
	if entry.HeadStats != nil {
		resp.HeadStats = &dto.HeadStatsResponse{
			Active:   entry.HeadStats.Active,
			Resolved: entry.HeadStats.Resolved,
		}
	}
	return resp
}
